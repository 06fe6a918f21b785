package palette

import (
	"net/http"

	"github.com/exteriorpros/paintstudio/internal/common/apperrors"
)

var (
	ErrPaletteError      apperrors.Error = apperrors.New("error in colour palette").SetStatusCode(http.StatusInternalServerError)
	ErrInvalidKey        apperrors.Error = ErrPaletteError.New("invalid collection key").SetStatusCode(http.StatusBadRequest)
	ErrInvalidHex        apperrors.Error = ErrPaletteError.New("invalid hex colour").SetStatusCode(http.StatusBadRequest)
	ErrMalformedDocument apperrors.Error = ErrPaletteError.New("malformed colour document").SetExpandError(true).SetStatusCode(http.StatusUnprocessableEntity)
)
