package palette

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed schema/colors.schema.json
var documentSchemaJSON []byte

const documentSchemaURL = "colors.schema.json"

var (
	documentSchema     *jsonschema.Schema
	documentSchemaErr  error
	documentSchemaOnce sync.Once
)

func compiledSchema() (*jsonschema.Schema, error) {
	documentSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(documentSchemaURL, bytes.NewReader(documentSchemaJSON)); err != nil {
			documentSchemaErr = err
			return
		}
		documentSchema, documentSchemaErr = compiler.Compile(documentSchemaURL)
	})
	return documentSchema, documentSchemaErr
}

// Meta is the optional header of a colour document. Any field may be missing;
// fields of the wrong type are ignored rather than rejecting the document.
type Meta struct {
	Brand        string `json:"brand,omitempty"`
	PaintType    string `json:"paintType,omitempty"`
	QualityLevel string `json:"qualityLevel,omitempty"`
	TotalColors  *int   `json:"totalColors,omitempty"`
	LastUpdated  string `json:"lastUpdated,omitempty"`
}

// Document is a decoded and normalised colour resource.
type Document struct {
	Meta   Meta    `json:"meta"`
	Colors []Color `json:"colors"`

	// Warnings lists records that were dropped during normalisation.
	Warnings []string `json:"-"`
}

// DocumentError describes why a resource could not be used.
type DocumentError struct {
	Key    string
	Reason string
}

func (e *DocumentError) Error() string {
	if e.Key == "" {
		return ErrMalformedDocument.Error() + ": " + e.Reason
	}
	return ErrMalformedDocument.Error() + " " + e.Key + ": " + e.Reason
}

func (e *DocumentError) Unwrap() error {
	return ErrMalformedDocument
}

// DecodeDocument validates content against the colour document schema, decodes it
// and normalises every record. Normalisation upper-cases hex codes, derives rgb
// and family when absent and drops later records that repeat an earlier hex.
// Duplicate ids and rgb values that disagree with hex are rejected.
func DecodeDocument(ctx context.Context, key Key, content []byte) (*Document, error) {
	keyStr := ""
	if key != (Key{}) {
		keyStr = key.String()
	}
	fail := func(format string, args ...any) error {
		return &DocumentError{Key: keyStr, Reason: fmt.Sprintf(format, args...)}
	}

	if !gjson.ValidBytes(content) {
		return nil, fail("not valid JSON")
	}
	colors := gjson.GetBytes(content, "colors")
	if !colors.Exists() {
		return nil, fail("colors is missing")
	}
	if !colors.IsArray() {
		return nil, fail("colors is not an array")
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, ErrPaletteError.MsgErr("colour document schema does not compile", err)
	}
	var raw any
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fail("%v", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fail("%v", err)
	}

	var body struct {
		Colors []Color `json:"colors"`
	}
	if err := json.Unmarshal(content, &body); err != nil {
		return nil, fail("%v", err)
	}
	meta, ignored := decodeMeta(gjson.GetBytes(content, "meta"))
	if len(ignored) > 0 {
		log.Ctx(ctx).Info().Str("key", keyStr).Strs("fields", ignored).Msg("ignoring unusable meta fields")
	}
	doc := &Document{Meta: meta, Colors: body.Colors}
	if err := doc.normalize(); err != nil {
		return nil, fail("%v", err)
	}
	for _, w := range doc.Warnings {
		log.Ctx(ctx).Warn().Str("key", keyStr).Msg(w)
	}
	return doc, nil
}

// decodeMeta reads the fields of m it can use and returns the names of those
// it had to ignore.
func decodeMeta(m gjson.Result) (Meta, []string) {
	var meta Meta
	if !m.Exists() || m.Type == gjson.Null {
		return meta, nil
	}
	if !m.IsObject() {
		return meta, []string{"meta"}
	}
	var ignored []string
	str := func(name string, dst *string) {
		switch v := m.Get(name); v.Type {
		case gjson.String:
			*dst = v.Str
		case gjson.Null:
		default:
			ignored = append(ignored, name)
		}
	}
	str("brand", &meta.Brand)
	str("paintType", &meta.PaintType)
	str("qualityLevel", &meta.QualityLevel)
	str("lastUpdated", &meta.LastUpdated)

	switch v := m.Get("totalColors"); v.Type {
	case gjson.Null:
	case gjson.Number:
		if n := v.Int(); v.Num >= 0 && float64(n) == v.Num {
			total := int(n)
			meta.TotalColors = &total
		} else {
			ignored = append(ignored, "totalColors")
		}
	default:
		ignored = append(ignored, "totalColors")
	}
	return meta, ignored
}

func (d *Document) normalize() error {
	ids := make(map[string]struct{}, len(d.Colors))
	hexes := make(map[string]string, len(d.Colors))
	kept := make([]Color, 0, len(d.Colors))

	for i, c := range d.Colors {
		if _, dup := ids[c.ID]; dup {
			return fmt.Errorf("duplicate color id %q at index %d", c.ID, i)
		}
		ids[c.ID] = struct{}{}

		hex, err := NormalizeHex(c.Hex)
		if err != nil {
			return fmt.Errorf("color %q: %v", c.ID, err)
		}
		c.Hex = hex

		derived, err := RGBFromHex(hex)
		if err != nil {
			return fmt.Errorf("color %q: %v", c.ID, err)
		}
		if c.RGB == nil {
			c.RGB = &derived
		} else if *c.RGB != derived {
			return fmt.Errorf("color %q: rgb(%d,%d,%d) does not match %s", c.ID, c.RGB.R, c.RGB.G, c.RGB.B, hex)
		}
		if c.Family == "" {
			c.Family = ClassifyFamily(*c.RGB)
		}

		if first, dup := hexes[hex]; dup {
			d.Warnings = append(d.Warnings, fmt.Sprintf("dropping color %q: hex %s already used by %q", c.ID, hex, first))
			continue
		}
		hexes[hex] = c.ID
		kept = append(kept, c)
	}
	d.Colors = kept
	return nil
}
