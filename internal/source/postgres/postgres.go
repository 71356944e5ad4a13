// Package postgres stores the brand collection in a PostgreSQL table.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/probin-johori/sustainable/internal/domain"
	"github.com/probin-johori/sustainable/internal/source"
	"github.com/probin-johori/sustainable/pkg/database"
)

const sourceName = "postgres"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations for the brands table, for use
// with database.RunMigrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const columns = `id, name, categories, short_description, description, about, impact,
	thumbnail, image_url, url, theme_color, brand_trailer_url, business_start_date,
	views, likes, clicks, images, founders, designer, product_range, certifications,
	available_on, contact_email, contact_phone, origin_city, origin_country,
	rating_environmental, rating_social, rating_ethical, rating_durability, rating_innovation`

const listBrandsSQL = `SELECT ` + columns + `
	FROM brands
	ORDER BY position, id`

const upsertBrandSQL = `INSERT INTO brands (position, ` + columns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)
	ON CONFLICT (id) DO UPDATE SET
		position = EXCLUDED.position,
		name = EXCLUDED.name,
		categories = EXCLUDED.categories,
		short_description = EXCLUDED.short_description,
		description = EXCLUDED.description,
		about = EXCLUDED.about,
		impact = EXCLUDED.impact,
		thumbnail = EXCLUDED.thumbnail,
		image_url = EXCLUDED.image_url,
		url = EXCLUDED.url,
		theme_color = EXCLUDED.theme_color,
		brand_trailer_url = EXCLUDED.brand_trailer_url,
		business_start_date = EXCLUDED.business_start_date,
		views = EXCLUDED.views,
		likes = EXCLUDED.likes,
		clicks = EXCLUDED.clicks,
		images = EXCLUDED.images,
		founders = EXCLUDED.founders,
		designer = EXCLUDED.designer,
		product_range = EXCLUDED.product_range,
		certifications = EXCLUDED.certifications,
		available_on = EXCLUDED.available_on,
		contact_email = EXCLUDED.contact_email,
		contact_phone = EXCLUDED.contact_phone,
		origin_city = EXCLUDED.origin_city,
		origin_country = EXCLUDED.origin_country,
		rating_environmental = EXCLUDED.rating_environmental,
		rating_social = EXCLUDED.rating_social,
		rating_ethical = EXCLUDED.rating_ethical,
		rating_durability = EXCLUDED.rating_durability,
		rating_innovation = EXCLUDED.rating_innovation,
		updated_at = NOW()`

const pruneBrandsSQL = `DELETE FROM brands WHERE NOT (id = ANY($1))`

// Repository reads and writes the brands table.
type Repository struct {
	db     database.DBTX
	tracer database.QueryTracer
	logger *slog.Logger
}

// New creates a Repository. Queries slower than slowQuery are logged.
func New(db database.DBTX, slowQuery time.Duration, logger *slog.Logger) *Repository {
	return &Repository{
		db:     db,
		tracer: database.QueryTracer{SlowThreshold: slowQuery, Logger: logger},
		logger: logger,
	}
}

func (r *Repository) Name() string { return sourceName }

// Load returns every brand in position order.
func (r *Repository) Load(ctx context.Context) (brands []domain.Brand, err error) {
	ctx, end := r.tracer.Start(ctx, "ListBrands", listBrandsSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listBrandsSQL)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	brands = []domain.Brand{}
	for rows.Next() {
		var (
			b                                       domain.Brand
			categories                              []string
			images, founders, designer, availableOn []byte
		)
		if err := rows.Scan(
			&b.ID, &b.Name, &categories, &b.ShortDescription, &b.Description,
			&b.Content.About, &b.Content.Impact,
			&b.Thumbnail, &b.ImageURL, &b.URL, &b.ThemeColor, &b.BrandTrailerURL, &b.BusinessStartDate,
			&b.Metrics.Views, &b.Metrics.Likes, &b.Metrics.Clicks,
			&images, &founders, &designer, &b.ProductRange, &b.Certifications,
			&availableOn, &b.Contact.Email, &b.Contact.Phone, &b.Origin.City, &b.Origin.Country,
			&b.Ratings.Environmental, &b.Ratings.Social, &b.Ratings.Ethical,
			&b.Ratings.Durability, &b.Ratings.Innovation,
		); err != nil {
			return nil, fmt.Errorf("scan brand row: %w", err)
		}

		if err := decodeJSON(images, &b.Images); err != nil {
			return nil, fmt.Errorf("brand %s images: %w", b.ID, err)
		}
		if err := decodeJSON(founders, &b.Founders); err != nil {
			return nil, fmt.Errorf("brand %s founders: %w", b.ID, err)
		}
		if err := decodeJSON(availableOn, &b.AvailableOn); err != nil {
			return nil, fmt.Errorf("brand %s available_on: %w", b.ID, err)
		}
		if len(designer) > 0 && string(designer) != "null" {
			b.Designer = &domain.Designer{}
			if err := json.Unmarshal(designer, b.Designer); err != nil {
				return nil, fmt.Errorf("brand %s designer: %w", b.ID, err)
			}
		}
		b.Categories = source.ParseCategories(ctx, r.logger, sourceName, b.ID, categories)

		brands = append(brands, b.WithDefaults())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brand rows: %w", err)
	}
	return brands, nil
}

// Replace makes the table hold exactly brands, in their order, within one
// transaction.
func (r *Repository) Replace(ctx context.Context, brands []domain.Brand) (err error) {
	ctx, end := r.tracer.Start(ctx, "ReplaceBrands", upsertBrandSQL)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace brands: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	ids := make([]string, len(brands))
	for i, b := range brands {
		ids[i] = b.ID
		args, err := upsertArgs(i, b.WithDefaults())
		if err != nil {
			return fmt.Errorf("brand %s: %w", b.ID, err)
		}
		if _, err := tx.Exec(ctx, upsertBrandSQL, args...); err != nil {
			return fmt.Errorf("upsert brand %s: %w", b.ID, err)
		}
	}

	tag, err := tx.Exec(ctx, pruneBrandsSQL, ids)
	if err != nil {
		return fmt.Errorf("prune brands: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace brands: %w", err)
	}

	r.logger.InfoContext(ctx, "brands table replaced",
		slog.Int("upserted", len(brands)),
		slog.Int64("removed", tag.RowsAffected()),
	)
	return nil
}

func upsertArgs(position int, b domain.Brand) ([]any, error) {
	images, err := json.Marshal(b.Images)
	if err != nil {
		return nil, err
	}
	founders, err := json.Marshal(b.Founders)
	if err != nil {
		return nil, err
	}
	availableOn, err := json.Marshal(b.AvailableOn)
	if err != nil {
		return nil, err
	}
	var designer []byte
	if b.Designer != nil {
		if designer, err = json.Marshal(b.Designer); err != nil {
			return nil, err
		}
	}
	categories := make([]string, len(b.Categories))
	for i, c := range b.Categories {
		categories[i] = string(c)
	}

	return []any{
		position,
		b.ID, b.Name, categories, b.ShortDescription, b.Description,
		b.Content.About, b.Content.Impact,
		b.Thumbnail, b.ImageURL, b.URL, b.ThemeColor, b.BrandTrailerURL, b.BusinessStartDate,
		b.Metrics.Views, b.Metrics.Likes, b.Metrics.Clicks,
		images, founders, designer, b.ProductRange, b.Certifications,
		availableOn, b.Contact.Email, b.Contact.Phone, b.Origin.City, b.Origin.Country,
		b.Ratings.Environmental, b.Ratings.Social, b.Ratings.Ethical,
		b.Ratings.Durability, b.Ratings.Innovation,
	}, nil
}

func decodeJSON[T any](data []byte, dst *[]T) error {
	if len(data) == 0 {
		*dst = []T{}
		return nil
	}
	return json.Unmarshal(data, dst)
}
