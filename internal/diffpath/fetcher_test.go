package diffpath

import (
	"context"
	"testing"

	"github.com/cenkalti/backoff/v4"

	"github.com/steveyegge/flm/internal/flmerrors"
)

type flakyClient struct {
	failuresLeft int
	body         string
	err          error
}

func (c *flakyClient) GetJSON(ctx context.Context, url string, out any) error { return nil }

func (c *flakyClient) GetText(ctx context.Context, url string, strict200 bool) (string, error) {
	if c.failuresLeft > 0 {
		c.failuresLeft--
		return "", flmerrors.New(flmerrors.HTTPClientNetworkError, "transient")
	}
	if c.err != nil {
		return "", c.err
	}
	return c.body, nil
}

func fastPolicy() *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 1
	eb.MaxInterval = 1
	eb.MaxElapsedTime = 0
	return eb
}

func TestHTTPFetcherRetriesNetworkErrors(t *testing.T) {
	client := &flakyClient{failuresLeft: 2, body: "rules"}
	f := &HTTPFetcher{Client: client, Policy: fastPolicy}

	body, err := f.Fetch(context.Background(), "https://example.com/list.txt")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if body != "rules" {
		t.Errorf("body = %q, want %q", body, "rules")
	}
}

func TestHTTPFetcherDoesNotRetryNoContent(t *testing.T) {
	client := &flakyClient{err: flmerrors.New(flmerrors.NoContent, "nothing new")}
	f := &HTTPFetcher{Client: client, Policy: fastPolicy}

	_, err := f.Fetch(context.Background(), "https://example.com/list.txt")
	if !flmerrors.Is(err, flmerrors.NoContent) {
		t.Fatalf("err = %v, want NoContent", err)
	}
}
