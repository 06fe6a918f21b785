package apis

import (
	"net/http"

	"github.com/exteriorpros/paintstudio/internal/common/apperrors"
	"github.com/exteriorpros/paintstudio/internal/common/httpx"
)

// ToHttpxError converts err to an httpx error. Server errors carry only the
// error's own message; the wrapped causes are logged where they occur and may
// name paths or connection details.
func ToHttpxError(err error) error {
	if appErr, ok := err.(apperrors.Error); ok {
		statusCode := appErr.StatusCode()
		if statusCode == 0 {
			statusCode = http.StatusInternalServerError
		}
		description := appErr.ErrorAll()
		if statusCode >= http.StatusInternalServerError {
			description = appErr.Error()
		}
		return &httpx.Error{
			StatusCode:  statusCode,
			Description: description,
		}
	}
	return err
}
