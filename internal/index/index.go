// Package index implements the Index Reconciler (§4.J): it validates a
// freshly pulled registry for internal consistency, then diffs it
// against the persisted filter set to decide, per persisted filter,
// whether to leave it alone, overwrite it with fresh values, demote it
// to a custom filter, or schedule it for deletion.
package index

import (
	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/types"
)

// CheckConsistency validates a freshly pulled index before it is used
// for anything else: every filter must have a positive id, a non-empty
// name, a group present among the index's own groups, and every
// referenced tag present among the index's own tags. Failure here
// aborts the pull entirely; nothing is written.
func CheckConsistency(idx types.Index) error {
	groupIDs := make(map[int32]struct{}, len(idx.Groups))
	for _, g := range idx.Groups {
		groupIDs[g.GroupID] = struct{}{}
	}
	tagIDs := make(map[int32]struct{}, len(idx.Tags))
	for _, t := range idx.Tags {
		tagIDs[t.TagID] = struct{}{}
	}

	for _, f := range idx.Filters {
		if f.FilterID <= 0 {
			return flmerrors.New(flmerrors.InvalidConfiguration, "index filter %d: filter_id must be positive", f.FilterID)
		}
		if f.Name == "" {
			return flmerrors.New(flmerrors.FieldIsEmpty, "index filter %d: title is empty", f.FilterID)
		}
		if _, ok := groupIDs[f.GroupID]; !ok {
			return flmerrors.New(flmerrors.InvalidConfiguration, "index filter %d: group %d not present in index groups", f.FilterID, f.GroupID)
		}
		for _, tagID := range f.Tags {
			if _, ok := tagIDs[tagID]; !ok {
				return flmerrors.New(flmerrors.InvalidConfiguration, "index filter %d: tag %d not present in index tags", f.FilterID, tagID)
			}
		}
	}
	return nil
}

// FreshMap builds id → IndexFilter from idx, skipping deprecated entries.
func FreshMap(idx types.Index) map[types.FilterId]types.IndexFilter {
	m := make(map[types.FilterId]types.IndexFilter, len(idx.Filters))
	for _, f := range idx.Filters {
		if f.Deprecated {
			continue
		}
		m[f.FilterID] = f
	}
	return m
}

// Overwrite carries the fresh field values to apply to one persisted,
// matched filter. Title and Description are omitted (zero value, check
// the Has* flags) when the persisted row is user-owned for that field.
type Overwrite struct {
	FilterID       types.FilterId
	DisplayNumber  int32
	Title          string
	HasTitle       bool
	Description    string
	HasDescription bool
	Homepage       string
	Expires        int32
	DownloadURL    string
	LastUpdateTime int64
}

// Plan is the reconciliation outcome: what the storage layer should do
// inside one transaction.
type Plan struct {
	Groups      []types.IndexGroup
	Tags        []types.IndexTag
	Overwrites  []Overwrite
	Demotions   []types.FilterId
	Deletions   []types.FilterId
	NewFilters  []types.IndexFilter
}

// Reconcile diffs idx against persisted (which must exclude bootstrapped
// and already-custom filters; those are never touched here) and returns
// the plan the Storage Contract should apply. idx must already have
// passed CheckConsistency.
func Reconcile(idx types.Index, persisted []types.Filter) Plan {
	fresh := FreshMap(idx)
	consumed := make(map[types.FilterId]bool, len(persisted))

	plan := Plan{Groups: idx.Groups, Tags: idx.Tags}

	for _, p := range persisted {
		if p.GroupID < 1 {
			continue // custom: leave alone
		}
		if p.FilterID <= 0 {
			continue // service/bootstrapped: leave alone
		}

		f, ok := fresh[p.FilterID]
		if ok {
			consumed[p.FilterID] = true
			plan.Overwrites = append(plan.Overwrites, Overwrite{
				FilterID:       p.FilterID,
				DisplayNumber:  f.DisplayNumber,
				Title:          f.Name,
				HasTitle:       !p.IsUserTitle,
				Description:    f.Description,
				HasDescription: !p.IsUserDescription,
				Homepage:       f.Homepage,
				Expires:        f.Expires,
				DownloadURL:    f.DownloadURL,
				LastUpdateTime: f.TimeUpdated.Unix(),
			})
			continue
		}

		if p.IsEnabled {
			plan.Demotions = append(plan.Demotions, p.FilterID)
		} else {
			plan.Deletions = append(plan.Deletions, p.FilterID)
		}
	}

	for id, f := range fresh {
		if !consumed[id] {
			plan.NewFilters = append(plan.NewFilters, f)
		}
	}

	return plan
}
