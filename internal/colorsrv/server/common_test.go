package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/config"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/resourcestore"
	"github.com/exteriorpros/paintstudio/internal/common/middleware"
)

func newTestServer(t *testing.T, cfg *config.ConfigParam) (*ColorServer, *resourcestore.MemoryStore) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	rs := resourcestore.NewMemoryStore()
	s, err := NewServerWithStore(cfg, rs)
	require.NoError(t, err, "create new server")
	s.MountHandlers()
	return s, rs
}

func executeTestRequest(t *testing.T, s *ColorServer, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func checkHeader(t *testing.T, h http.Header) {
	t.Helper()
	expected := "application/json"
	got := h.Get("Content-Type")
	assert.Equal(t, expected, got, "Content-Type expected %s, got %s", expected, got)
	assert.NotEmpty(t, h.Get(middleware.RequestIdHeader), "No Request Id")
}

func compareJson(t *testing.T, expected any, actual string) {
	t.Helper()
	j, err := json.Marshal(expected)
	assert.NoError(t, err, "json marshal")
	assert.JSONEq(t, string(j), actual, "Expected: %v\n Got: %v\n", expected, actual)
}

// publish stores a document with n colours for key. Every third colour is blue.
func publish(t *testing.T, rs *resourcestore.MemoryStore, key palette.Key, n int) {
	t.Helper()
	colors := make([]string, 0, n)
	for i := range n {
		hex := fmt.Sprintf("#%02X%02X%02X", i, 40, 40)
		family := "reds"
		if i%3 == 0 {
			hex = fmt.Sprintf("#%02X%02X%02X", 20, 40, 100+i)
			family = "blues"
		}
		colors = append(colors, fmt.Sprintf(`{"id":"c%d","name":"Color %d","hex":"%s","code":"K-%d","family":"%s"}`, i, i, hex, i, family))
	}
	content := fmt.Sprintf(`{"meta":{"brand":"%s","totalColors":%d},"colors":[%s]}`, key.Brand, n, strings.Join(colors, ","))
	require.NoError(t, rs.Put(context.Background(), rs.ResolvePath(key), []byte(content)))
}
