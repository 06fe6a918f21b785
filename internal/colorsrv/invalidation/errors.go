package invalidation

import (
	"net/http"

	"github.com/exteriorpros/paintstudio/internal/common/apperrors"
)

var (
	ErrInvalidationError apperrors.Error = apperrors.New("cache invalidation error").SetStatusCode(http.StatusInternalServerError).SetExpandError(true)
	ErrInvalidMessage    apperrors.Error = ErrInvalidationError.New("invalid invalidation message").SetStatusCode(http.StatusBadRequest)
	ErrRedis             apperrors.Error = ErrInvalidationError.New("redis unavailable")
)
