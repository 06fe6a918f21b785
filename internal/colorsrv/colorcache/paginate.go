package colorcache

import (
	"slices"
	"strings"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100
)

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// Page is one slice of a collection. Colors is owned by the caller.
type Page struct {
	Colors     []palette.Color
	Pagination Pagination
}

// Paginate returns page (1-based) of c holding at most limit colours. Pages
// past the end are empty. page is raised to 1 and limit is clamped to
// 1..MaxLimit; callers are expected to have rejected such values already.
func Paginate(c *palette.Collection, page, limit int) Page {
	page = max(page, 1)
	limit = min(max(limit, 1), MaxLimit)

	var colors []palette.Color
	total := 0
	if c != nil {
		colors = c.Colors
		total = c.Total
	}

	totalPages := (total + limit - 1) / limit
	p := Page{
		Colors: []palette.Color{},
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    page < totalPages,
		},
	}

	if page > totalPages {
		return p
	}
	start := (page - 1) * limit
	if start >= len(colors) {
		return p
	}
	end := min(start+limit, len(colors))
	p.Colors = slices.Clone(colors[start:end])
	return p
}

// FilterFamily returns a collection holding only the colours of family, in
// their original order. An empty family returns c itself.
func FilterFamily(c *palette.Collection, family string) *palette.Collection {
	if c == nil || family == "" {
		return c
	}
	colors := make([]palette.Color, 0, len(c.Colors))
	for _, color := range c.Colors {
		if strings.EqualFold(color.Family, family) {
			colors = append(colors, color)
		}
	}
	return &palette.Collection{
		Key:           c.Key,
		Meta:          c.Meta,
		Colors:        colors,
		Total:         len(colors),
		SourceVersion: c.SourceVersion,
	}
}
