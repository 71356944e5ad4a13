package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/probin-johori/sustainable/pkg/errors"
)

// Category is one of the fixed catalog categories.
type Category string

const (
	CategoryClothing    Category = "Clothing"
	CategoryAccessories Category = "Accessories"
	CategoryFood        Category = "Food"
	CategoryHome        Category = "Home"
	CategoryBeauty      Category = "Beauty"
	CategoryElectronics Category = "Electronics"
	CategoryToys        Category = "Toys"
	CategoryOutdoor     Category = "Outdoor"
	CategorySports      Category = "Sports"
	CategoryGifts       Category = "Gifts"
	CategoryHealth      Category = "Health"
	CategoryStationery  Category = "Stationery"
	CategoryPets        Category = "Pets"
	CategoryTravel      Category = "Travel"
	CategoryGarden      Category = "Garden"
	CategoryBooks       Category = "Books"
	CategoryAutomotive  Category = "Automotive"
	CategoryCrafts      Category = "Crafts"
	CategoryArt         Category = "Art"
	CategoryFurniture   Category = "Furniture"
	CategoryDecor       Category = "Decor"
	CategoryTextiles    Category = "Textiles"
	CategoryFarming     Category = "Farming"
	CategoryJewelry     Category = "Jewelry"
	CategoryFootwear    Category = "Footwear"
	CategoryCleaning    Category = "Cleaning"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryClothing, CategoryAccessories, CategoryFood, CategoryHome,
	CategoryBeauty, CategoryElectronics, CategoryToys, CategoryOutdoor,
	CategorySports, CategoryGifts, CategoryHealth, CategoryStationery,
	CategoryPets, CategoryTravel, CategoryGarden, CategoryBooks,
	CategoryAutomotive, CategoryCrafts, CategoryArt, CategoryFurniture,
	CategoryDecor, CategoryTextiles, CategoryFarming, CategoryJewelry,
	CategoryFootwear, CategoryCleaning,
}

var categoryIndex = func() map[string]int {
	m := make(map[string]int, len(AllCategories))
	for i, c := range AllCategories {
		m[strings.ToLower(string(c))] = i
	}
	return m
}()

// ParseCategory matches s against the known categories ignoring case and
// surrounding space.
func ParseCategory(s string) (Category, error) {
	i, ok := categoryIndex[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown category %q", s))
	}
	return AllCategories[i], nil
}

// ParseCategories parses each value, splitting known from unknown ones.
// Blank values are ignored and duplicates collapse onto the first occurrence.
func ParseCategories(values []string) (known []Category, unknown []string) {
	seen := make(map[Category]bool, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		c, err := ParseCategory(v)
		if err != nil {
			unknown = append(unknown, v)
			continue
		}
		if !seen[c] {
			seen[c] = true
			known = append(known, c)
		}
	}
	return known, unknown
}

// Valid reports whether c is one of the known categories in canonical form.
func (c Category) Valid() bool {
	i, ok := categoryIndex[strings.ToLower(string(c))]
	return ok && AllCategories[i] == c
}

// Order is the position of c in AllCategories, or -1.
func (c Category) Order() int {
	if i, ok := categoryIndex[strings.ToLower(string(c))]; ok {
		return i
	}
	return -1
}

// UnmarshalText canonicalises the case of known categories. Unknown values
// are kept verbatim so loaders can report and drop them.
func (c *Category) UnmarshalText(b []byte) error {
	if parsed, err := ParseCategory(string(b)); err == nil {
		*c = parsed
		return nil
	}
	*c = Category(strings.TrimSpace(string(b)))
	return nil
}
