// Package static loads brands from a YAML document, by default the seed
// dataset compiled into the binary.
package static

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/probin-johori/sustainable/internal/domain"
	"github.com/probin-johori/sustainable/internal/source"
)

const sourceName = "static"

//go:embed data/brands.yaml
var seed []byte

// Seed returns the embedded dataset.
func Seed() []byte { return bytes.Clone(seed) }

// Loader reads brands from a YAML file, or from the embedded seed when no
// path is configured.
type Loader struct {
	path   string
	logger *slog.Logger
}

// New creates a Loader. An empty path selects the embedded seed.
func New(path string, logger *slog.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

func (l *Loader) Name() string { return sourceName }

// Load decodes the dataset. Unknown categories are dropped with a warning.
func (l *Loader) Load(ctx context.Context) ([]domain.Brand, error) {
	data := seed
	if l.path != "" {
		var err error
		if data, err = os.ReadFile(l.path); err != nil {
			return nil, fmt.Errorf("read brand dataset: %w", err)
		}
	}

	brands, err := Decode(data)
	if err != nil {
		return nil, err
	}
	for i := range brands {
		brands[i] = source.DropUnknownCategories(ctx, l.logger, sourceName, brands[i])
	}
	return brands, nil
}

// Decode parses a YAML list of brands. Fields the schema does not know are
// rejected so typos in the dataset surface at startup.
func Decode(data []byte) ([]domain.Brand, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var brands []domain.Brand
	if err := dec.Decode(&brands); err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.Brand{}, nil
		}
		return nil, fmt.Errorf("decode brand dataset: %w", err)
	}
	if brands == nil {
		brands = []domain.Brand{}
	}
	return brands, nil
}
