package cli

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/exteriorpros/paintstudio/internal/common/httpx"
)

const (
	fetchAttempts = 3
	fetchDelay    = 250 * time.Millisecond
)

// HTTPClient fetches from the colour server named in the CLI configuration.
type HTTPClient struct {
	config    *Config
	transport http.RoundTripper
}

// NewHTTPClient creates a new HTTP client using the provided configuration
func NewHTTPClient(config *Config) *HTTPClient {
	return &HTTPClient{config: config}
}

// Fetch issues req and decodes the response into rsp. Network failures and
// 5xx or 429 responses are retried with backoff; other errors are returned
// at once.
func (c *HTTPClient) Fetch(req httpx.Requester, rsp any) error {
	var transport []http.RoundTripper
	if c.transport != nil {
		transport = append(transport, c.transport)
	}
	return retry.Do(func() error {
		return httpx.Fetch(c.config.GetServerURL(), req, rsp, c.config.GetTimeout(), transport...)
	},
		retry.Attempts(fetchAttempts),
		retry.Delay(fetchDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTemporary),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Uint("attempt", n+1).Msg("retrying request")
		}))
}

func isTemporary(err error) bool {
	var httpErr *httpx.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
