package palette

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Collection is the immutable, cached form of one colour resource. Callers
// must not modify Colors.
type Collection struct {
	Key           Key
	Meta          Meta
	Colors        []Color
	Total         int
	SourceVersion string
}

// NewCollection builds a collection from a decoded document. Total comes from
// meta.totalColors only when it agrees with the number of colours kept.
func NewCollection(ctx context.Context, key Key, doc *Document, version string) *Collection {
	total := len(doc.Colors)
	if doc.Meta.TotalColors != nil && *doc.Meta.TotalColors != total {
		log.Ctx(ctx).Info().
			Str("key", key.String()).
			Int("meta_total", *doc.Meta.TotalColors).
			Int("colors", total).
			Msg("meta.totalColors disagrees with colour count, using colour count")
	}
	return &Collection{
		Key:           key,
		Meta:          doc.Meta,
		Colors:        doc.Colors,
		Total:         total,
		SourceVersion: version,
	}
}
