package resourcestore

import (
	"net/http"

	"github.com/exteriorpros/paintstudio/internal/common/apperrors"
)

var (
	ErrResourceStoreError apperrors.Error = apperrors.New("resource store error").SetStatusCode(http.StatusInternalServerError).SetExpandError(true)
	ErrResourceNotFound   apperrors.Error = ErrResourceStoreError.New("resource not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidPath        apperrors.Error = ErrResourceStoreError.New("invalid resource path").SetStatusCode(http.StatusBadRequest)
	ErrStoreConfig        apperrors.Error = ErrResourceStoreError.New("invalid resource store configuration")
)
