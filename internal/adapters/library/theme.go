package library

import (
	"fmt"

	"github.com/okian/motionparty/internal/domain/popper"
)

// CategorySpec is a popper category plus how a frontend draws it.
type CategorySpec struct {
	Name     string  `yaml:"name" json:"name"`
	Label    string  `yaml:"label" json:"label"`
	Points   int     `yaml:"points" json:"points"`
	Interval float64 `yaml:"interval" json:"interval"`
	Lifetime float64 `yaml:"lifetime" json:"lifetime"`
	Speed    float64 `yaml:"speed" json:"speed"`
	Size     float64 `yaml:"size" json:"size"`
	// Color is a "#rrggbb" string.
	Color string `yaml:"color" json:"color"`
	Glyph string `yaml:"glyph" json:"glyph"`
}

// Category strips the cosmetics.
func (c CategorySpec) Category() popper.Category {
	return popper.Category{
		Name:     c.Name,
		Points:   c.Points,
		Interval: c.Interval,
		Lifetime: c.Lifetime,
		Speed:    c.Speed,
		Size:     c.Size,
	}
}

// Theme is a named popper category table.
type Theme struct {
	Name       string         `yaml:"name" json:"name"`
	Categories []CategorySpec `yaml:"categories" json:"categories"`
}

// Table returns the categories in declaration order.
func (t Theme) Table() []popper.Category {
	out := make([]popper.Category, len(t.Categories))
	for i, c := range t.Categories {
		out[i] = c.Category()
	}
	return out
}

// Lookup returns the entry for a category name.
func (t Theme) Lookup(name string) (CategorySpec, bool) {
	for _, c := range t.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategorySpec{}, false
}

// Validate checks the table the engine will receive.
func (t Theme) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: theme with empty name", popper.ErrInvalidCategory)
	}
	if err := popper.ValidateTable(t.Table()); err != nil {
		return fmt.Errorf("theme %s: %w", t.Name, err)
	}
	return nil
}
