package apis

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/colorcache"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
	"github.com/exteriorpros/paintstudio/internal/common/httpx"
	"github.com/exteriorpros/paintstudio/pkg/api"
)

// emptyCacheControl applies to responses for collections that do not exist
// yet, so a newly published catalog is picked up on the next request.
const emptyCacheControl = "no-cache"

func (a *API) listColors(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	q, err := parseListColorsQuery(r.URL.Query())
	if err != nil {
		return nil, err
	}

	rsp := api.ListColorsRsp{
		Colors: []api.Color{},
		Pagination: api.Pagination{
			Page:  q.Page,
			Limit: q.Limit,
		},
		Brand:  q.Brand,
		Type:   q.Type,
		Line:   q.Line,
		Family: q.Family,
	}
	cacheControl := a.cacheControl

	collection, err := a.colors.GetCollection(ctx, q.key())
	switch {
	case errors.Is(err, colorcache.ErrCollectionNotFound):
		log.Ctx(ctx).Debug().Str("key", q.key().String()).Msg("serving empty colour page")
		cacheControl = emptyCacheControl
	case err != nil:
		return nil, ToHttpxError(err)
	default:
		page := colorcache.Paginate(colorcache.FilterFamily(collection, q.Family), q.Page, q.Limit)
		rsp.Colors = toAPIColors(page.Colors)
		rsp.Pagination = api.Pagination(page.Pagination)
	}

	etag, err := weakETag(rsp)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to compute etag")
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   rsp,
		Headers:    http.Header{"Cache-Control": []string{cacheControl}},
		ETag:       etag,
	}, nil
}

func toAPIColors(colors []palette.Color) []api.Color {
	out := make([]api.Color, len(colors))
	for i, c := range colors {
		out[i] = api.Color{
			ID:     c.ID,
			Name:   c.Name,
			Hex:    c.Hex,
			Code:   c.Code,
			Family: c.Family,
		}
		if c.RGB != nil {
			out[i].RGB = &api.RGB{R: c.RGB.R, G: c.RGB.G, B: c.RGB.B}
		}
	}
	return out
}

func (a *API) getOptions(r *http.Request) (*httpx.Response, error) {
	rsp := api.ColorOptionsRsp{
		Families:     palette.Families,
		DefaultLimit: colorcache.DefaultLimit,
		MaxLimit:     colorcache.MaxLimit,
	}
	for _, b := range palette.Brands {
		rsp.Brands = append(rsp.Brands, api.Option{Value: b.String(), DisplayName: b.DisplayName()})
	}
	for _, t := range palette.PaintTypes {
		rsp.Types = append(rsp.Types, api.Option{Value: t.String(), DisplayName: t.DisplayName()})
	}
	for _, l := range palette.QualityLevels {
		rsp.Lines = append(rsp.Lines, api.Option{Value: l.String(), DisplayName: l.DisplayName()})
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   rsp,
		Headers:    http.Header{"Cache-Control": []string{a.cacheControl}},
	}, nil
}

func (a *API) getStats(r *http.Request) (*httpx.Response, error) {
	st := a.colors.Stats()
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   api.CacheStatsRsp(st),
		Headers:    http.Header{"Cache-Control": []string{"no-store"}},
	}, nil
}
