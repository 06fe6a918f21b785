package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/exteriorpros/paintstudio/internal/common/apperrors"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Response struct {
	StatusCode  int
	Location    string //in case of http.StatusAccepted
	Response    any
	ContentType string
	Headers     http.Header
	// ETag, when set, is sent as the ETag header and compared with If-None-Match.
	ETag string
}

type RequestHandler func(r *http.Request) (*Response, error)

func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			sendErr(w, err)
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}
		if rsp.ContentType == "" {
			rsp.ContentType = "application/json"
		}
		for k, v := range rsp.Headers {
			for _, vv := range v {
				w.Header().Add(k, vv)
			}
		}
		if rsp.ETag != "" {
			w.Header().Set("ETag", rsp.ETag)
			if etagMatches(r.Header.Get("If-None-Match"), rsp.ETag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		var location []string
		if rsp.Location != "" {
			location = append(location, rsp.Location)
		}
		if rsp.ContentType == "application/json" {
			SendJsonRsp(r.Context(), w, rsp.StatusCode, rsp.Response, location...)
		} else {
			ErrApplicationError("unsupported response type").Send(w)
		}
	})
}

func sendErr(w http.ResponseWriter, err error) {
	if httperror, ok := err.(*Error); ok {
		httperror.Send(w)
	} else if appErr, ok := err.(apperrors.Error); ok {
		SendError(w, appErr)
	} else {
		ErrApplicationError(err.Error()).Send(w)
	}
}

// SendJsonRsp writes rsp as a JSON body with the given status code.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, rsp any, location ...string) {
	body, err := json.Marshal(rsp)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to marshal response")
		ErrApplicationError("unable to encode response").Send(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if len(location) > 0 && location[0] != "" {
		w.Header().Set("Location", location[0])
	}
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to write response")
	}
}

func etagMatches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if weakCompare(strings.TrimSpace(candidate), etag) {
			return true
		}
	}
	return false
}

// weakCompare implements the weak comparison of RFC 9110 section 8.8.3.2.
func weakCompare(a, b string) bool {
	return stripWeak(a) == stripWeak(b)
}

func stripWeak(s string) string {
	return strings.TrimPrefix(s, "W/")
}

type ResponseHandlerParam struct {
	Method  string
	Path    string
	Handler RequestHandler
}
