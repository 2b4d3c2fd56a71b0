// Package models defines the core data structures for NextDawn.
package models

// Category represents a feed section backed by a Polymarket tag.
type Category struct {
	Slug        string `bson:"slug" json:"slug"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	Order       int    `bson:"order" json:"order"`
}

// DefaultCategories mirrors the sections shown on the front page.
var DefaultCategories = []Category{
	{Slug: "politics", Name: "Politics", Description: "Elections, legislation and government", Order: 10},
	{Slug: "crypto", Name: "Crypto", Description: "Digital assets and on-chain events", Order: 20},
	{Slug: "business", Name: "Business", Description: "Companies, markets and the economy", Order: 30},
	{Slug: "science", Name: "Science", Description: "Research, space and technology", Order: 40},
}

// GetCategoryBySlug returns a category by its slug.
func GetCategoryBySlug(slug string) *Category {
	for _, cat := range DefaultCategories {
		if cat.Slug == slug {
			return &cat
		}
	}
	return nil
}
