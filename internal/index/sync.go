package index

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/flmhttp"
	"github.com/steveyegge/flm/internal/types"
)

// LocaleEntry is one language's title/description override for one
// filter, as carried by the upstream filters_i18n.json registry.
type LocaleEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Locales maps language code to filter id to its override, matching the
// upstream locales document's two-level shape.
type Locales map[string]map[types.FilterId]LocaleEntry

// Enrich returns a copy of filters with locale's title/description
// overrides applied in place of the default-language values, leaving
// filters untouched for any id the locale document doesn't cover.
func Enrich(filters []types.IndexFilter, locales Locales, locale string) []types.IndexFilter {
	byID, ok := locales[locale]
	out := make([]types.IndexFilter, len(filters))
	copy(out, filters)
	if !ok {
		return out
	}
	for i := range out {
		entry, ok := byID[out[i].FilterID]
		if !ok {
			continue
		}
		if entry.Name != "" {
			out[i].Name = entry.Name
		}
		if entry.Description != "" {
			out[i].Description = entry.Description
		}
	}
	return out
}

// IndexesProcessor pulls and validates the upstream registry. Its one
// concurrent join (index document + locales document) is the sole async
// operation permitted anywhere in the core (§5, §9).
type IndexesProcessor struct {
	Client flmhttp.Client
}

// NewIndexesProcessor builds a processor backed by client.
func NewIndexesProcessor(client flmhttp.Client) *IndexesProcessor {
	return &IndexesProcessor{Client: client}
}

// SyncMetadata fetches indexURL and localesURL concurrently, applies the
// requested locale's overrides, and runs CheckConsistency before
// returning. A failure on either fetch aborts the pull; nothing is
// written by this step, it only produces the index Reconcile consumes.
func (p *IndexesProcessor) SyncMetadata(ctx context.Context, indexURL, localesURL, locale string) (types.Index, error) {
	var idx types.Index
	var locales Locales

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Client.GetJSON(gctx, indexURL, &idx)
	})
	g.Go(func() error {
		return p.Client.GetJSON(gctx, localesURL, &locales)
	})
	if err := g.Wait(); err != nil {
		return types.Index{}, flmerrors.Wrap(flmerrors.HTTPClientNetworkError, err, "sync index metadata")
	}

	idx.Filters = Enrich(idx.Filters, locales, locale)
	if err := CheckConsistency(idx); err != nil {
		return types.Index{}, err
	}
	return idx, nil
}
