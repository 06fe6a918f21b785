package colorcache

import (
	"net/http"

	"github.com/exteriorpros/paintstudio/internal/common/apperrors"
)

var (
	ErrColorCacheError     apperrors.Error = apperrors.New("colour catalog error").SetStatusCode(http.StatusInternalServerError).SetExpandError(true)
	ErrCollectionNotFound  apperrors.Error = ErrColorCacheError.New("colour collection not found").SetStatusCode(http.StatusNotFound)
	ErrMalformedCollection apperrors.Error = ErrCollectionNotFound.New("colour collection is malformed")
	ErrCatalogIO           apperrors.Error = ErrColorCacheError.New("unable to read colour collection")
	ErrInvalidOption       apperrors.Error = ErrColorCacheError.New("invalid cache option")
)
