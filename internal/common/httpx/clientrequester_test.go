package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRequester struct {
	Brand string `json:"brand" query:"brand"`
	Page  int    `json:"page" query:"page"`
	Limit int    `json:"-" query:"limit"`
}

func (r *mockRequester) RequestMethod() (string, string) {
	return http.MethodGet, "/brands/{brand}/colors"
}

func TestResolvPath(t *testing.T) {
	req := mockRequester{
		Brand: "behr",
	}
	path, err := resolvePath(&req)
	assert.NoError(t, err)
	assert.Equal(t, "/brands/behr/colors", path)

	_, err = resolvePath(&mockRequester{})
	assert.Error(t, err)
}

func TestStructToQueryString(t *testing.T) {
	q, err := structToQueryString(&mockRequester{Brand: "ppg", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, "brand=ppg&page=2", q)

	_, err = structToQueryString(mockRequester{})
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/brands/behr/colors" {
			ErrNotFound().Send(w)
			return
		}
		if r.URL.Query().Get("limit") == "0" || r.URL.Query().Get("page") == "9" {
			ErrInvalidRequest("page out of range").Send(w)
			return
		}
		SendJsonRsp(r.Context(), w, http.StatusOK, map[string]any{"page": r.URL.Query().Get("page")})
	}))
	defer srv.Close()

	var rsp map[string]any
	err := Fetch(srv.URL+"/", &mockRequester{Brand: "behr", Page: 3}, &rsp, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "3", rsp["page"])

	err = Fetch(srv.URL, &mockRequester{Brand: "behr", Page: 9}, &rsp, time.Second)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "page out of range", httpErr.Message)
	assert.False(t, httpErr.Temporary())
}
