package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/apis"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/colorcache"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/config"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/invalidation"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/resourcestore"
	"github.com/exteriorpros/paintstudio/internal/common/httpx"
	"github.com/exteriorpros/paintstudio/internal/common/logtrace"
	"github.com/exteriorpros/paintstudio/internal/common/middleware"
	"github.com/exteriorpros/paintstudio/pkg/api"
)

// Version is overridden at build time with -ldflags "-X .../server.Version=..."
var Version = "0.1.0"

type ColorServer struct {
	Router *chi.Mux

	cfg       *config.ConfigParam
	resources resourcestore.Store
	colors    *colorcache.Store
}

// CreateNewServer opens the configured resource store and builds the colour cache over it.
func CreateNewServer(ctx context.Context, cfg *config.ConfigParam) (*ColorServer, error) {
	resources, err := resourcestore.Open(ctx, cfg.Catalog.StoreOptions())
	if err != nil {
		return nil, err
	}
	return NewServerWithStore(cfg, resources)
}

// NewServerWithStore builds a server over an existing resource store.
func NewServerWithStore(cfg *config.ConfigParam, resources resourcestore.Store, opts ...colorcache.Option) (*ColorServer, error) {
	ttl, err := cfg.Catalog.GetCacheTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid catalog.cache_ttl: %w", err)
	}
	cacheOpts := []colorcache.Option{
		colorcache.WithTTL(ttl),
		colorcache.WithMaxEntries(cfg.Catalog.MaxEntries),
		colorcache.WithVersionCheckOnHit(cfg.Catalog.CheckVersionOnHit()),
	}
	colors, err := colorcache.New(resources, append(cacheOpts, opts...)...)
	if err != nil {
		return nil, err
	}
	return &ColorServer{
		Router:    chi.NewRouter(),
		cfg:       cfg,
		resources: resources,
		colors:    colors,
	}, nil
}

// Colors returns the colour cache served by s.
func (s *ColorServer) Colors() *colorcache.Store {
	return s.colors
}

func (s *ColorServer) MountHandlers() {
	s.Router.Use(middleware.RequestLogger)
	s.Router.Use(middleware.PanicHandler)
	if s.cfg.HandleCORS {
		s.Router.Use(s.corsHandler())
	}
	s.Router.Route("/paint-colors", apis.New(s.colors, s.cfg.HTTPCache.CacheControl()).Router)
	s.Router.Get("/version", httpx.WrapHttpRsp(s.getVersion))
	s.Router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.ErrNotFound().Send(w)
	})
	s.Router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.ErrReqMethodNotSupported().Send(w)
	})
	if logtrace.IsTraceEnabled() {
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			log.Trace().Str("method", method).Str("route", route).Msg("route")
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("unable to walk routes")
		}
	}
}

func (s *ColorServer) corsHandler() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match"},
		ExposedHeaders: []string{"ETag", middleware.RequestIdHeader},
		MaxAge:         300,
	})
}

func (s *ColorServer) getVersion(r *http.Request) (*httpx.Response, error) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response: &api.GetVersionRsp{
			ServerVersion: "PaintStudio Colour Server: " + Version,
			ApiVersion:    api.ApiVersion_1_0,
		},
	}, nil
}

// Close releases the resource store connections.
func (s *ColorServer) Close() error {
	return resourcestore.Close(s.resources)
}

// StartInvalidationListener subscribes to the configured redis channel and
// applies clear requests to the colour cache until ctx is done. It does
// nothing when no redis url is configured.
func (s *ColorServer) StartInvalidationListener(ctx context.Context) error {
	if s.cfg.Invalidation.RedisURL == "" {
		log.Info().Msg("cache invalidation listener disabled")
		return nil
	}
	client, err := invalidation.NewClient(ctx, s.cfg.Invalidation.RedisURL)
	if err != nil {
		return err
	}
	listener := invalidation.NewListener(client, s.cfg.Invalidation.Channel, s.colors)
	go func() {
		defer client.Close()
		if err := listener.Run(ctx); err != nil {
			log.Error().Err(err).Msg("cache invalidation listener stopped")
		}
	}()
	return nil
}

// ListenAndServe serves until ctx is done and then shuts down gracefully.
func (s *ColorServer) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.ServerPort,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
