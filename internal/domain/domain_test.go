package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	apperrors "github.com/probin-johori/sustainable/pkg/errors"
	"github.com/probin-johori/sustainable/pkg/validator"
)

func validBrand() Brand {
	return Brand{
		ID:                "no-nasties",
		Name:              "No Nasties",
		Categories:        []Category{CategoryClothing},
		URL:               "https://nonasties.in",
		ThemeColor:        "#2E7D32",
		BusinessStartDate: "2011-05-15",
		Contact:           Contact{Email: "hello@nonasties.in"},
		AvailableOn:       []Marketplace{{Name: "Amazon", URL: "https://amazon.com/no-nasties"}},
		Ratings:           Ratings{Environmental: 4.8, Social: 4.5, Ethical: 4.7, Durability: 4.2, Innovation: 4.6},
	}
}

func TestAllCategories(t *testing.T) {
	assert.Len(t, AllCategories, 26)
	for i, c := range AllCategories {
		assert.True(t, c.Valid(), c)
		assert.Equal(t, i, c.Order())
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"Food", CategoryFood},
		{"food", CategoryFood},
		{"  JEWELRY ", CategoryJewelry},
		{"stationery", CategoryStationery},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseCategory("Spaceships")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), `"Spaceships"`)
}

func TestParseCategories(t *testing.T) {
	known, unknown := ParseCategories([]string{"home", "Decor", "", "HOME", "Gadgets", " clothing"})
	assert.Equal(t, []Category{CategoryHome, CategoryDecor, CategoryClothing}, known)
	assert.Equal(t, []string{"Gadgets"}, unknown)
}

func TestCategory_Valid(t *testing.T) {
	assert.True(t, CategoryFood.Valid())
	assert.False(t, Category("food").Valid())
	assert.False(t, Category("Gadgets").Valid())
	assert.Equal(t, -1, Category("Gadgets").Order())
}

func TestCategory_UnmarshalText(t *testing.T) {
	var doc struct {
		Categories []Category `yaml:"categories" json:"categories"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("categories: [food, Beauty, gadgets]"), &doc))
	assert.Equal(t, []Category{CategoryFood, CategoryBeauty, "gadgets"}, doc.Categories)

	require.NoError(t, json.Unmarshal([]byte(`{"categories":["HOME"]}`), &doc))
	assert.Equal(t, []Category{CategoryHome}, doc.Categories)
}

func TestBrand_Validate(t *testing.T) {
	require.NoError(t, validBrand().Validate())

	tests := []struct {
		name  string
		edit  func(*Brand)
		field string
	}{
		{"missing id", func(b *Brand) { b.ID = "" }, "id"},
		{"missing name", func(b *Brand) { b.Name = "" }, "name"},
		{"no categories", func(b *Brand) { b.Categories = nil }, "categories"},
		{"unknown category", func(b *Brand) { b.Categories = []Category{"Gadgets"} }, "categories[0]"},
		{"duplicate category", func(b *Brand) { b.Categories = []Category{CategoryFood, CategoryFood} }, "categories"},
		{"bad url", func(b *Brand) { b.URL = "nonasties" }, "url"},
		{"bad colour", func(b *Brand) { b.ThemeColor = "green" }, "theme_color"},
		{"bad date", func(b *Brand) { b.BusinessStartDate = "15/05/2011" }, "business_start_date"},
		{"bad email", func(b *Brand) { b.Contact.Email = "hello" }, "email"},
		{"rating above scale", func(b *Brand) { b.Ratings.Social = 5.5 }, "social"},
		{"negative likes", func(b *Brand) { b.Metrics.Likes = -1 }, "likes"},
		{"marketplace without name", func(b *Brand) { b.AvailableOn[0].Name = "" }, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBrand()
			tt.edit(&b)

			err := b.Validate()
			require.Error(t, err)
			var valErr *validator.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Fields(), tt.field)
		})
	}
}

func TestRatings_Average(t *testing.T) {
	r := Ratings{Environmental: 4.8, Social: 4.5, Ethical: 4.7, Durability: 4.2, Innovation: 4.6}
	assert.InDelta(t, 4.56, r.Average(), 1e-9)

	r = Ratings{Environmental: 4.9, Social: 4.7, Ethical: 4.8, Durability: 4.6, Innovation: 4.5}
	assert.InDelta(t, 4.70, r.Average(), 1e-9)

	r = Ratings{Environmental: 1, Social: 2, Ethical: 2, Durability: 2, Innovation: 2}
	assert.InDelta(t, 1.8, r.Average(), 1e-9)

	assert.Zero(t, Ratings{}.Average())
}

func TestBrand_HasCategory(t *testing.T) {
	b := validBrand()
	assert.True(t, b.HasCategory(CategoryClothing))
	assert.False(t, b.HasCategory(CategoryFood))
}

func TestBrand_Clone(t *testing.T) {
	b := validBrand()
	b.Designer = &Designer{Location: "Goa"}
	c := b.Clone()

	c.Categories[0] = CategoryFood
	c.AvailableOn[0].Name = "Etsy"
	c.Designer.Location = "Pune"

	assert.Equal(t, CategoryClothing, b.Categories[0])
	assert.Equal(t, "Amazon", b.AvailableOn[0].Name)
	assert.Equal(t, "Goa", b.Designer.Location)
	assert.Nil(t, Brand{}.Clone().Images)
}

func TestBrand_WithDefaults(t *testing.T) {
	data, err := json.Marshal(Brand{ID: "x", Name: "X"}.WithDefaults())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"categories", "images", "founders", "product_range", "certifications", "available_on"} {
		assert.Equal(t, []any{}, m[key], key)
	}
	assert.NotContains(t, m, "designer")
}

func TestGallery(t *testing.T) {
	images := []Image{{URL: "/a.jpg"}, {URL: "/b.jpg"}, {URL: "/c.jpg"}}

	g := NewGallery(images, 0)
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 1, g.Next())
	assert.Equal(t, 2, g.Prev())

	g = NewGallery(images, 2)
	assert.Equal(t, 0, g.Next())
	cur, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, "/c.jpg", cur.URL)

	assert.Equal(t, 2, NewGallery(images, -1).Index)
	assert.Equal(t, 1, NewGallery(images, 7).Index)
}

func TestGallery_Empty(t *testing.T) {
	g := NewGallery(nil, 4)
	_, ok := g.Current()
	assert.False(t, ok)
	assert.Zero(t, g.Next())
	assert.Zero(t, g.Prev())
}
