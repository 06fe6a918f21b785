package apis

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/colorcache"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
	"github.com/exteriorpros/paintstudio/internal/common/httpx"
)

// ColorSource is the read side of the colour catalog cache.
type ColorSource interface {
	GetCollection(ctx context.Context, key palette.Key) (*palette.Collection, error)
	Stats() colorcache.Stats
}

const DefaultCacheControl = "public, max-age=3600, stale-while-revalidate=7200"

// API serves the colour catalog endpoints.
type API struct {
	colors       ColorSource
	cacheControl string
}

func New(colors ColorSource, cacheControl string) *API {
	if cacheControl == "" {
		cacheControl = DefaultCacheControl
	}
	return &API{colors: colors, cacheControl: cacheControl}
}

func (a *API) handlers() []httpx.ResponseHandlerParam {
	return []httpx.ResponseHandlerParam{
		{
			Method:  http.MethodGet,
			Path:    "/",
			Handler: a.listColors,
		},
		{
			Method:  http.MethodGet,
			Path:    "/options",
			Handler: a.getOptions,
		},
		{
			Method:  http.MethodGet,
			Path:    "/stats",
			Handler: a.getStats,
		},
	}
}

// Router mounts the colour endpoints on r. It is meant to be mounted at /paint-colors.
func (a *API) Router(r chi.Router) {
	for _, handler := range a.handlers() {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
}
