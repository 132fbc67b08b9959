package catalog

import (
	"fmt"
	"strings"
)

// Category is one of the fixed menu sections.
type Category string

// CategoryAll is the filter sentinel; it is never stored on an item.
const CategoryAll Category = "All"

const (
	CategoryPizza   Category = "Pizza"
	CategoryBurger  Category = "Burger"
	CategoryRoll    Category = "Roll"
	CategoryWrap    Category = "Wrap"
	CategoryDessert Category = "Dessert"
	CategoryFries   Category = "Fries"
	CategoryDrink   Category = "Drink"
)

var categories = []Category{
	CategoryPizza,
	CategoryBurger,
	CategoryRoll,
	CategoryWrap,
	CategoryDessert,
	CategoryFries,
	CategoryDrink,
}

// Categories lists the menu sections in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c names a real menu section.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory resolves a filter value. Empty input and "all" select every section.
func ParseCategory(raw string) (Category, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, string(CategoryAll)) {
		return CategoryAll, nil
	}
	c := Category(trimmed)
	if !c.Valid() {
		return "", newValidationError(fmt.Sprintf("unknown category %q", trimmed))
	}
	return c, nil
}

// FoodItem is an orderable dish. Prices are whole currency units.
type FoodItem struct {
	ID       string   `json:"_id" yaml:"-"`
	Name     string   `json:"name" yaml:"name"`
	Price    int64    `json:"price" yaml:"price"`
	Category Category `json:"category" yaml:"category"`
	Image    string   `json:"image" yaml:"image"`
}

// Validate checks the fields required before an item may enter the catalog.
func (f FoodItem) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return newValidationError("food name is required")
	}
	if f.Price <= 0 {
		return newValidationError(fmt.Sprintf("price for %s must be positive", f.Name))
	}
	if !f.Category.Valid() {
		return newValidationError(fmt.Sprintf("unknown category %q for %s", f.Category, f.Name))
	}
	return nil
}

// Filter narrows a catalog listing.
type Filter struct {
	Category string
	Query    string
}
