package domain

import (
	"math"

	"github.com/probin-johori/sustainable/pkg/validator"
)

func init() {
	if err := validator.RegisterValidation("category", func(v string) bool {
		return Category(v).Valid()
	}); err != nil {
		panic(err)
	}
}

// Brand is a catalog record. Sources fill every field except Slug, which the
// catalog derives from Name.
type Brand struct {
	ID                string        `json:"id" yaml:"id" validate:"required"`
	Name              string        `json:"name" yaml:"name" validate:"required"`
	Slug              string        `json:"slug" yaml:"-"`
	Categories        []Category    `json:"categories" yaml:"categories" validate:"required,min=1,unique,dive,category"`
	ShortDescription  string        `json:"short_description,omitempty" yaml:"short_description"`
	Description       string        `json:"description,omitempty" yaml:"description"`
	Content           Content       `json:"content" yaml:"content"`
	Thumbnail         string        `json:"thumbnail,omitempty" yaml:"thumbnail"`
	ImageURL          string        `json:"image_url,omitempty" yaml:"image_url"`
	URL               string        `json:"url,omitempty" yaml:"url" validate:"omitempty,url"`
	ThemeColor        string        `json:"theme_color,omitempty" yaml:"theme_color" validate:"omitempty,hexcolor"`
	BrandTrailerURL   string        `json:"brand_trailer_url,omitempty" yaml:"brand_trailer_url" validate:"omitempty,url"`
	BusinessStartDate string        `json:"business_start_date,omitempty" yaml:"business_start_date" validate:"omitempty,datetime=2006-01-02"`
	Metrics           Metrics       `json:"metrics" yaml:"metrics"`
	Images            []Image       `json:"images" yaml:"images" validate:"dive"`
	Founders          []Person      `json:"founders" yaml:"founders" validate:"dive"`
	Designer          *Designer     `json:"designer,omitempty" yaml:"designer"`
	ProductRange      []string      `json:"product_range" yaml:"product_range"`
	Certifications    []string      `json:"certifications" yaml:"certifications"`
	AvailableOn       []Marketplace `json:"available_on" yaml:"available_on" validate:"dive"`
	Contact           Contact       `json:"contact" yaml:"contact"`
	Origin            Origin        `json:"origin" yaml:"origin"`
	Ratings           Ratings       `json:"ratings" yaml:"ratings"`
}

// Content holds the long-form narrative sections of a brand page.
type Content struct {
	About  string `json:"about,omitempty" yaml:"about"`
	Impact string `json:"impact,omitempty" yaml:"impact"`
}

// Metrics are engagement counters shown on cards. They are display data
// supplied by the source and never updated by the service.
type Metrics struct {
	Views  int64 `json:"views" yaml:"views" validate:"gte=0"`
	Likes  int64 `json:"likes" yaml:"likes" validate:"gte=0"`
	Clicks int64 `json:"clicks" yaml:"clicks" validate:"gte=0"`
}

// Image is a gallery entry.
type Image struct {
	URL         string `json:"url" yaml:"url" validate:"required"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Person is a founder or cofounder.
type Person struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Role     string `json:"role,omitempty" yaml:"role"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url"`
}

// Designer describes the brand's designer, when the source has one.
type Designer struct {
	Description string `json:"description,omitempty" yaml:"description"`
	Location    string `json:"location,omitempty" yaml:"location"`
}

// Marketplace is an outbound store listing.
type Marketplace struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	URL  string `json:"url,omitempty" yaml:"url" validate:"omitempty,url"`
}

type Contact struct {
	Email string `json:"email,omitempty" yaml:"email" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" yaml:"phone"`
}

type Origin struct {
	City    string `json:"city,omitempty" yaml:"city"`
	Country string `json:"country,omitempty" yaml:"country"`
}

// Ratings are sustainability sub-scores on a 0-5 scale.
type Ratings struct {
	Environmental float64 `json:"environmental" yaml:"environmental" validate:"gte=0,lte=5"`
	Social        float64 `json:"social" yaml:"social" validate:"gte=0,lte=5"`
	Ethical       float64 `json:"ethical" yaml:"ethical" validate:"gte=0,lte=5"`
	Durability    float64 `json:"durability" yaml:"durability" validate:"gte=0,lte=5"`
	Innovation    float64 `json:"innovation" yaml:"innovation" validate:"gte=0,lte=5"`
}

// Average is the mean of the five sub-scores rounded to two decimals.
func (r Ratings) Average() float64 {
	sum := r.Environmental + r.Social + r.Ethical + r.Durability + r.Innovation
	return math.Round(sum/5*100) / 100
}

// Validate checks field constraints. Uniqueness across the collection is
// the catalog's job.
func (b Brand) Validate() error {
	return validator.Validate(b)
}

// HasCategory reports whether b is tagged with c.
func (b Brand) HasCategory(c Category) bool {
	for _, bc := range b.Categories {
		if bc == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of b.
func (b Brand) Clone() Brand {
	c := b
	c.Categories = cloneSlice(b.Categories)
	c.Images = cloneSlice(b.Images)
	c.Founders = cloneSlice(b.Founders)
	c.ProductRange = cloneSlice(b.ProductRange)
	c.Certifications = cloneSlice(b.Certifications)
	c.AvailableOn = cloneSlice(b.AvailableOn)
	if b.Designer != nil {
		d := *b.Designer
		c.Designer = &d
	}
	return c
}

// WithDefaults replaces nil list fields with empty ones so absent arrays
// serialise as [] rather than null.
func (b Brand) WithDefaults() Brand {
	if b.Categories == nil {
		b.Categories = []Category{}
	}
	if b.Images == nil {
		b.Images = []Image{}
	}
	if b.Founders == nil {
		b.Founders = []Person{}
	}
	if b.ProductRange == nil {
		b.ProductRange = []string{}
	}
	if b.Certifications == nil {
		b.Certifications = []string{}
	}
	if b.AvailableOn == nil {
		b.AvailableOn = []Marketplace{}
	}
	return b
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
