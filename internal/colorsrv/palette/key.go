package palette

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Brand is a paint manufacturer.
type Brand string

const (
	BrandSherwinWilliams Brand = "sherwin-williams"
	BrandBenjaminMoore   Brand = "benjamin-moore"
	BrandBehr            Brand = "behr"
	BrandPPG             Brand = "ppg"
)

// PaintType is the usage category of a paint.
type PaintType string

const (
	PaintTypeInterior PaintType = "interior"
	PaintTypeExterior PaintType = "exterior"
	PaintTypeTrimDoor PaintType = "trim-door"
)

// QualityLevel is a manufacturer's product tier.
type QualityLevel string

const (
	QualityGood    QualityLevel = "good"
	QualityBetter  QualityLevel = "better"
	QualityBest    QualityLevel = "best"
	QualityPremium QualityLevel = "premium"
)

var (
	Brands        = []Brand{BrandSherwinWilliams, BrandBenjaminMoore, BrandBehr, BrandPPG}
	PaintTypes    = []PaintType{PaintTypeInterior, PaintTypeExterior, PaintTypeTrimDoor}
	QualityLevels = []QualityLevel{QualityGood, QualityBetter, QualityBest, QualityPremium}
)

var brandDisplayNames = map[Brand]string{
	BrandSherwinWilliams: "Sherwin-Williams",
	BrandPPG:             "PPG",
}

var paintTypeDisplayNames = map[PaintType]string{
	PaintTypeTrimDoor: "Trim & Door",
}

func (b Brand) Valid() bool { return slices.Contains(Brands, b) }
func (t PaintType) Valid() bool { return slices.Contains(PaintTypes, t) }
func (q QualityLevel) Valid() bool { return slices.Contains(QualityLevels, q) }
func (b Brand) String() string { return string(b) }
func (t PaintType) String() string { return string(t) }
func (q QualityLevel) String() string { return string(q) }

func (b Brand) DisplayName() string {
	if n, ok := brandDisplayNames[b]; ok {
		return n
	}
	return titleSlug(string(b))
}

func (t PaintType) DisplayName() string {
	if n, ok := paintTypeDisplayNames[t]; ok {
		return n
	}
	return titleSlug(string(t))
}

func (q QualityLevel) DisplayName() string {
	return titleSlug(string(q))
}

// titleSlug turns "benjamin-moore" into "Benjamin Moore".
func titleSlug(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "-", " "))
}

// Key identifies one colour collection. Fields are matched exactly and are
// not checked against the known enums; that is the caller's job.
type Key struct {
	Brand        string
	PaintType    string
	QualityLevel string
}

const keySeparator = ":"

func NewKey(brand Brand, paintType PaintType, level QualityLevel) Key {
	return Key{Brand: string(brand), PaintType: string(paintType), QualityLevel: string(level)}
}

// String returns the cache key form brand:paintType:qualityLevel.
func (k Key) String() string {
	return k.Brand + keySeparator + k.PaintType + keySeparator + k.QualityLevel
}

// Valid reports whether every component belongs to its enum.
func (k Key) Valid() bool {
	return Brand(k.Brand).Valid() && PaintType(k.PaintType).Valid() && QualityLevel(k.QualityLevel).Valid()
}

// ParseKey parses brand:paintType:qualityLevel.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, keySeparator)
	if len(parts) != 3 {
		return Key{}, ErrInvalidKey.Msg("key must have the form brand:type:level")
	}
	for _, p := range parts {
		if p == "" {
			return Key{}, ErrInvalidKey.Msg("key has an empty component")
		}
	}
	return Key{Brand: parts[0], PaintType: parts[1], QualityLevel: parts[2]}, nil
}
