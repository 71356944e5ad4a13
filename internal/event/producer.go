// Package event publishes catalog activity to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/probin-johori/sustainable/internal/domain"
	pkgkafka "github.com/probin-johori/sustainable/pkg/kafka"
	"github.com/probin-johori/sustainable/pkg/logger"
)

// Kafka topics for catalog events.
const (
	TopicBrandViewed   = "catalog.brand.viewed"
	TopicCatalogLoaded = "catalog.loaded"
)

const (
	AggregateTypeBrand   = "brand"
	AggregateTypeCatalog = "catalog"

	SourceCatalogService = "catalog-service"
)

// BrandViewedData is the payload of a catalog.brand.viewed event.
type BrandViewedData struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// CatalogLoadedData is the payload of a catalog.loaded event.
type CatalogLoadedData struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Publisher emits catalog events. Both methods are best effort from the
// caller's point of view.
type Publisher interface {
	PublishBrandViewed(ctx context.Context, brand domain.Brand, identifier string) error
	PublishCatalogLoaded(ctx context.Context, source string, count int) error
}

// Producer publishes catalog events through a Kafka producer.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishBrandViewed publishes a catalog.brand.viewed event.
func (p *Producer) PublishBrandViewed(ctx context.Context, brand domain.Brand, identifier string) error {
	data := BrandViewedData{
		ID:         brand.ID,
		Slug:       brand.Slug,
		Name:       brand.Name,
		Identifier: identifier,
	}
	return p.publish(ctx, TopicBrandViewed, brand.ID, AggregateTypeBrand, data)
}

// PublishCatalogLoaded publishes a catalog.loaded event.
func (p *Producer) PublishCatalogLoaded(ctx context.Context, source string, count int) error {
	return p.publish(ctx, TopicCatalogLoaded, source, AggregateTypeCatalog, CatalogLoadedData{Source: source, Count: count})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

var (
	_ Publisher = (*Producer)(nil)
	_ Publisher = Noop{}
)

// Noop discards every event. It is used when Kafka is not configured.
type Noop struct{}

func (Noop) PublishBrandViewed(context.Context, domain.Brand, string) error { return nil }
func (Noop) PublishCatalogLoaded(context.Context, string, int) error        { return nil }
