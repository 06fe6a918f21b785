package palette

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is the 0-255 channel triple of a colour.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Color is one paint colour. Values are never modified once part of a Collection.
type Color struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hex    string `json:"hex"`
	RGB    *RGB   `json:"rgb,omitempty"`
	Code   string `json:"code,omitempty"`
	Family string `json:"family,omitempty"`
}

// NormalizeHex returns s in canonical #RRGGBB form. The leading # is optional
// and letters may be in either case.
func NormalizeHex(s string) (string, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(v) != 6 {
		return "", ErrInvalidHex.Msg("hex colour must have 6 digits: " + s)
	}
	if _, err := colorful.Hex("#" + v); err != nil {
		return "", ErrInvalidHex.Msg("hex colour has invalid digits: " + s)
	}
	return "#" + strings.ToUpper(v), nil
}

// RGBFromHex derives the channel triple of a canonical or raw hex code.
func RGBFromHex(hex string) (RGB, error) {
	n, err := NormalizeHex(hex)
	if err != nil {
		return RGB{}, err
	}
	c, err := colorful.Hex(n)
	if err != nil {
		return RGB{}, ErrInvalidHex.Err(err)
	}
	r, g, b := c.RGB255()
	return RGB{R: int(r), G: int(g), B: int(b)}, nil
}

// Colour families used when a record carries no family tag.
const (
	FamilyWhites   = "whites"
	FamilyBlacks   = "blacks"
	FamilyGrays    = "grays"
	FamilyNeutrals = "neutrals"
	FamilyReds     = "reds"
	FamilyOranges  = "oranges"
	FamilyYellows  = "yellows"
	FamilyGreens   = "greens"
	FamilyBlues    = "blues"
	FamilyPurples  = "purples"
)

// ClassifyFamily buckets a colour by lightness, saturation and hue.
func ClassifyFamily(rgb RGB) string {
	c := colorful.Color{R: float64(rgb.R) / 255, G: float64(rgb.G) / 255, B: float64(rgb.B) / 255}
	h, s, l := c.Hsl()
	switch {
	case l >= 0.92:
		return FamilyWhites
	case l <= 0.12:
		return FamilyBlacks
	case s < 0.12:
		return FamilyGrays
	case s < 0.35 && h >= 20 && h < 60:
		// muted warm hues: beiges, tans, greiges
		return FamilyNeutrals
	}
	switch {
	case h < 15 || h >= 345:
		return FamilyReds
	case h < 45:
		return FamilyOranges
	case h < 70:
		return FamilyYellows
	case h < 170:
		return FamilyGreens
	case h < 260:
		return FamilyBlues
	default:
		return FamilyPurples
	}
}

var Families = []string{
	FamilyWhites, FamilyNeutrals, FamilyGrays, FamilyBlacks, FamilyReds,
	FamilyOranges, FamilyYellows, FamilyGreens, FamilyBlues, FamilyPurples,
}
