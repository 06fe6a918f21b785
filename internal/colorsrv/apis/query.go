package apis

import (
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/colorcache"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
	"github.com/exteriorpros/paintstudio/internal/common/httpx"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// V returns the validator used for request parameters.
func V() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return f.Tag.Get("query")
		})
	})
	return validate
}

func brandValidator(fl validator.FieldLevel) bool {
	return palette.Brand(fl.Field().String()).Valid()
}

func paintTypeValidator(fl validator.FieldLevel) bool {
	return palette.PaintType(fl.Field().String()).Valid()
}

func qualityLevelValidator(fl validator.FieldLevel) bool {
	return palette.QualityLevel(fl.Field().String()).Valid()
}

func colorFamilyValidator(fl validator.FieldLevel) bool {
	return slices.Contains(palette.Families, strings.ToLower(fl.Field().String()))
}

func init() {
	V().RegisterValidation("brand", brandValidator)
	V().RegisterValidation("paintType", paintTypeValidator)
	V().RegisterValidation("qualityLevel", qualityLevelValidator)
	V().RegisterValidation("colorFamily", colorFamilyValidator)
}

type listColorsQuery struct {
	Brand  string `query:"brand" validate:"required,brand"`
	Type   string `query:"type" validate:"required,paintType"`
	Line   string `query:"line" validate:"required,qualityLevel"`
	Family string `query:"family" validate:"omitempty,colorFamily"`
	Page   int    `query:"page" validate:"min=1"`
	Limit  int    `query:"limit" validate:"min=1,max=100"`
}

func (q listColorsQuery) key() palette.Key {
	return palette.Key{Brand: q.Brand, PaintType: q.Type, QualityLevel: q.Line}
}

// parseListColorsQuery reads and validates the query of GET /paint-colors.
// Values are matched exactly; nothing is lower-cased or guessed.
func parseListColorsQuery(values url.Values) (listColorsQuery, error) {
	q := listColorsQuery{
		Brand:  values.Get("brand"),
		Type:   values.Get("type"),
		Line:   values.Get("line"),
		Family: values.Get("family"),
		Page:   colorcache.DefaultPage,
		Limit:  colorcache.DefaultLimit,
	}

	var problems []string
	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			problems = append(problems, "page must be an integer")
		} else {
			q.Page = n
		}
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			problems = append(problems, "limit must be an integer")
		} else {
			q.Limit = n
		}
	}

	if err := V().Struct(q); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return q, httpx.ErrInvalidRequest(err.Error())
		}
		for _, e := range ve {
			problems = append(problems, describe(e))
		}
	}
	if len(problems) > 0 {
		return q, httpx.ErrInvalidRequest(strings.Join(problems, "; "))
	}
	return q, nil
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "brand":
		return "brand must be one of " + joinValues(palette.Brands)
	case "paintType":
		return "type must be one of " + joinValues(palette.PaintTypes)
	case "qualityLevel":
		return "line must be one of " + joinValues(palette.QualityLevels)
	case "colorFamily":
		return "family must be one of " + strings.Join(palette.Families, ", ")
	case "min":
		if e.Field() == "limit" {
			return "limit must be between 1 and " + strconv.Itoa(colorcache.MaxLimit)
		}
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be between 1 and " + e.Param()
	}
	return e.Field() + " is invalid"
}

func joinValues[T ~string](values []T) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = string(v)
	}
	return strings.Join(s, ", ")
}
