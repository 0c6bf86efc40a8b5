// Package diffpath implements the Diff-Path Provider (§4.G): it walks
// the chain of incremental patches a filter body advertises via its
// `Diff-Path` metadata header, applying each in turn until the chain
// ends, the step bound is reached, or the server signals it has
// nothing newer yet.
package diffpath

import (
	"context"
	"regexp"
	"strconv"
	"sync"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/patchdirective"
	"github.com/steveyegge/flm/internal/rcsdiff"
	"github.com/steveyegge/flm/internal/urlresolve"
)

// DefaultSteps bounds how many patches one provider run will chase
// before giving up, guarding against a misbehaving or cyclic chain.
const DefaultSteps = 10

// Fetcher retrieves the raw bytes at url. Implementations wrap the
// scheduler's HTTP client; tests supply an in-memory map.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// BatchCache fetches and memoizes whole batch patch files by their base
// URL (stripped of any `#name` fragment), so that filters sharing one
// batch patch only trigger a single download per scheduler run.
type BatchCache struct {
	mu      sync.Mutex
	fetcher Fetcher
	bodies  map[string]string
	errs    map[string]error
}

// NewBatchCache builds a cache backed by fetcher, scoped to one run.
func NewBatchCache(fetcher Fetcher) *BatchCache {
	return &BatchCache{fetcher: fetcher, bodies: make(map[string]string), errs: make(map[string]error)}
}

// Get returns the batch body at url, fetching it at most once.
func (c *BatchCache) Get(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if body, ok := c.bodies[url]; ok {
		return body, nil
	}
	if err, ok := c.errs[url]; ok {
		return "", err
	}

	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		c.errs[url] = err
		return "", err
	}
	c.bodies[url] = body
	return body, nil
}

// State is one filter's position within its Diff-Path chain.
type State struct {
	BaseURL           string // the filter's own download URL, resolution anchor
	CurrentBody       string
	NextPath          string
	AppliedAtLeastOne bool
	StepsRemaining    int
}

// NewState seeds a fresh walk from a filter's current body and the
// Diff-Path it currently advertises.
func NewState(baseURL, currentBody, initialDiffPath string) *State {
	return &State{
		BaseURL:        baseURL,
		CurrentBody:    currentBody,
		NextPath:       initialDiffPath,
		StepsRemaining: DefaultSteps,
	}
}

// Run drives state forward until its Diff-Path chain terminates,
// returning the final body. A NoContent or EntityNotFound fetch error
// after at least one successful patch ends the walk quietly (the
// server isn't publishing the next delta yet); any other error
// propagates.
func Run(ctx context.Context, fetcher Fetcher, cache *BatchCache, state *State) (string, error) {
	for state.NextPath != "" && state.StepsRemaining > 0 {
		resolved, err := urlresolve.Resolve(state.BaseURL, state.NextPath)
		if err != nil {
			return "", err
		}

		base, name, hasFragment := urlresolve.SplitFragment(resolved)

		var patchFile string
		var fetchErr error
		if hasFragment {
			patchFile, fetchErr = cache.Get(ctx, base)
		} else {
			patchFile, fetchErr = fetcher.Fetch(ctx, resolved)
		}
		if fetchErr != nil {
			if state.AppliedAtLeastOne && isQuietTermination(fetchErr) {
				return state.CurrentBody, nil
			}
			return "", fetchErr
		}

		section, err := patchdirective.ExtractSection(patchFile, name)
		if err != nil {
			return "", err
		}

		result, err := rcsdiff.Apply(state.CurrentBody, section.Body)
		if err != nil {
			return "", err
		}
		if err := patchdirective.ValidateResult(result.Body, section.Header); err != nil {
			return "", err
		}

		state.CurrentBody = result.Body
		state.AppliedAtLeastOne = true
		state.StepsRemaining--

		if !result.HasNextDiffPath {
			state.NextPath = ""
			return state.CurrentBody, nil
		}
		state.NextPath = result.NextDiffPath
	}
	return state.CurrentBody, nil
}

func isQuietTermination(err error) bool {
	return flmerrors.Is(err, flmerrors.NoContent) || flmerrors.Is(err, flmerrors.EntityNotFound)
}

// nextCheckNameRe matches the trailing `-<unit?>-<epoch>-<period>.patch`
// segment of a Diff-Path filename.
var nextCheckNameRe = regexp.MustCompile(`(?:-([hms]))?-(\d+)-(\d+)\.patch$`)

var unitMultiplier = map[string]int64{
	"h": 3600,
	"m": 60,
	"s": 1,
	"":  3600, // unit omitted defaults to hours
}

// ParseNextCheckTime extracts the next_check_time encoded in a patch
// filename, per §6: next_check_time = (epoch + period) * multiplier.
func ParseNextCheckTime(path string) (int64, bool) {
	m := nextCheckNameRe.FindStringSubmatch(path)
	if m == nil {
		return 0, false
	}
	epoch, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, false
	}
	period, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return 0, false
	}
	mult := unitMultiplier[m[1]]
	return (epoch + period) * mult, true
}
