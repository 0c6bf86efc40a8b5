package flmhttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/steveyegge/flm/internal/flmerrors"
)

// DefaultClient is the library's only concrete Client: a thin
// net/http.Client wrapper enforcing the ambient request_timeout_ms and
// translating transport failures into the taxonomy §7 names.
type DefaultClient struct {
	httpClient *http.Client
}

// NewDefaultClient builds a client with the given per-request timeout.
func NewDefaultClient(timeout time.Duration) *DefaultClient {
	return &DefaultClient{httpClient: &http.Client{Timeout: timeout}}
}

func (c *DefaultClient) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.getBody(ctx, url, false)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return flmerrors.Wrap(flmerrors.HTTPClientBodyRecoveryFailed, err, "decode JSON from %s", url)
	}
	return nil
}

func (c *DefaultClient) GetText(ctx context.Context, url string, strict200 bool) (string, error) {
	body, err := c.getBody(ctx, url, strict200)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *DefaultClient) getBody(ctx context.Context, url string, strict200 bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, flmerrors.Wrap(flmerrors.HTTPClientNetworkError, err, "build request for %s", url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, flmerrors.Wrap(flmerrors.HTTPClientNetworkError, err, "fetch %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if strict200 && resp.StatusCode != http.StatusOK {
		return nil, flmerrors.New(flmerrors.HTTPStrict200Response, "fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, flmerrors.Wrap(flmerrors.HTTPClientBodyRecoveryFailed, err, "read body from %s", url)
	}
	return body, nil
}
