package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/config"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/resourcestore"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/server"
	"github.com/exteriorpros/paintstudio/internal/common/httpx"
	"github.com/exteriorpros/paintstudio/pkg/api"
)

func newColorServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := resourcestore.NewMemoryStore()
	key := palette.NewKey(palette.BrandBehr, palette.PaintTypeInterior, palette.QualityGood)
	require.NoError(t, store.Put(context.Background(), store.ResolvePath(key), []byte(`{"colors": [
		{"id": "a", "name": "Polar Bear", "hex": "#F4F1E8", "code": "75"},
		{"id": "b", "name": "Night Watch", "hex": "#2C3A3B"},
		{"id": "c", "name": "Blue Danube", "hex": "#3A6FB0"}]}`)))

	s, err := server.NewServerWithStore(config.DefaultConfig(), store)
	require.NoError(t, err)
	s.MountHandlers()
	ts := httptest.NewServer(s.Router)
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPClientFetch(t *testing.T) {
	ts := newColorServer(t)
	client := NewHTTPClient(&Config{Server: ts.URL})

	var rsp api.ListColorsRsp
	req := &api.ListColorsReq{Brand: "behr", Type: "interior", Line: "good", Limit: 2}
	require.NoError(t, client.Fetch(req, &rsp))
	require.Len(t, rsp.Colors, 2)
	assert.Equal(t, "Polar Bear", rsp.Colors[0].Name)
	assert.Equal(t, api.Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2, HasMore: true}, rsp.Pagination)

	var buf bytes.Buffer
	printColors(&buf, rsp)
	assert.Contains(t, buf.String(), "Polar Bear")
	assert.Contains(t, buf.String(), "Page 1 of 2 (3 colours, 2 per page), more available")

	var opts api.ColorOptionsRsp
	require.NoError(t, client.Fetch(&api.GetColorOptionsReq{}, &opts))
	buf.Reset()
	printOptions(&buf, opts)
	assert.Contains(t, buf.String(), "Sherwin-Williams")

	var stats api.CacheStatsRsp
	require.NoError(t, client.Fetch(&api.GetCacheStatsReq{}, &stats))
	assert.Equal(t, 1, stats.Size)
}

func TestHTTPClientBadRequestNotRetried(t *testing.T) {
	ts := newColorServer(t)
	client := NewHTTPClient(&Config{Server: ts.URL})

	var rsp api.ListColorsRsp
	err := client.Fetch(&api.ListColorsReq{Brand: "valspar", Type: "interior", Line: "good"}, &rsp)
	var httpErr *httpx.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, httpErr.Message, "brand must be one of")
}

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < fetchAttempts {
			httpx.ErrApplicationError().Send(w)
			return
		}
		httpx.SendJsonRsp(r.Context(), w, http.StatusOK, api.GetVersionRsp{ServerVersion: "test", ApiVersion: api.ApiVersion_1_0})
	}))
	defer ts.Close()

	var rsp api.GetVersionRsp
	require.NoError(t, NewHTTPClient(&Config{Server: ts.URL}).Fetch(&api.GetVersionReq{}, &rsp))
	assert.Equal(t, "test", rsp.ServerVersion)
	assert.Equal(t, int32(fetchAttempts), calls.Load())
}

func TestPrintStatusPretty(t *testing.T) {
	var buf bytes.Buffer
	printStatusPretty(&buf, StatusResponse{
		Server:  "http://localhost:8194",
		Version: api.GetVersionRsp{ServerVersion: "PaintStudio Colour Server: 0.1.0", ApiVersion: "1.0"},
		Cache:   api.CacheStatsRsp{Hits: 3, Misses: 1, Size: 1, Capacity: 256},
	})
	assert.Contains(t, buf.String(), "Collections: 1 of 256")
	assert.Contains(t, buf.String(), "Hit Ratio: 75.0%")
}
