package diffpath

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/flmhttp"
)

// HTTPFetcher adapts an flmhttp.Client into a Fetcher, retrying
// transient network failures with a bounded exponential backoff.
// HTTPClientNetworkError is the only *flmerrors.Error kind retried;
// every other kind, including the quiet-termination kinds (NoContent,
// EntityNotFound), is treated as permanent so a missing next patch
// doesn't retry needlessly. An error that is not an *flmerrors.Error is
// retried.
type HTTPFetcher struct {
	Client flmhttp.Client
	// Policy, when set, overrides the default unbounded-elapsed-time
	// exponential backoff. Callers with a scheduler loose_timeout in
	// effect should supply one capped to the remaining budget.
	Policy func() *backoff.ExponentialBackOff
}

// NewHTTPFetcher builds a fetcher with a sensible default backoff.
func NewHTTPFetcher(client flmhttp.Client) *HTTPFetcher {
	return &HTTPFetcher{Client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var policy backoff.BackOff
	if f.Policy != nil {
		policy = backoff.WithContext(f.Policy(), ctx)
	} else {
		eb := backoff.NewExponentialBackOff()
		eb.MaxElapsedTime = 0
		policy = backoff.WithContext(eb, ctx)
	}

	var body string
	op := func() error {
		b, err := f.Client.GetText(ctx, url, true)
		if err != nil {
			if fe, ok := err.(*flmerrors.Error); ok && fe.Kind != flmerrors.HTTPClientNetworkError {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	if err := backoff.Retry(op, backoff.WithMaxRetries(policy, 5)); err != nil {
		if perr, ok := err.(*backoff.PermanentError); ok {
			return "", perr.Err
		}
		return "", err
	}
	return body, nil
}
