package index

import (
	"context"

	"github.com/steveyegge/flm/internal/idgen"
	"github.com/steveyegge/flm/internal/storage"
	"github.com/steveyegge/flm/internal/storage/sqlop"
	"github.com/steveyegge/flm/internal/types"
)

// Apply persists a Plan inside one transaction, in the Ordering
// Guarantees' dependents-before-parents-before-dependents order (§5):
// groups/tags first, then per-filter overwrites/demotions/deletions/new
// filters.
func Apply(ctx context.Context, db storage.DBTX, plan Plan) error {
	if err := sqlop.ReplaceNonCustomGroupsAndTags(ctx, db, plan.Groups, plan.Tags); err != nil {
		return err
	}

	for _, ov := range plan.Overwrites {
		f, err := sqlop.GetFilter(ctx, db, ov.FilterID)
		if err != nil {
			return err
		}
		f.DisplayNumber = ov.DisplayNumber
		if ov.HasTitle {
			f.Title = ov.Title
		}
		if ov.HasDescription {
			f.Description = ov.Description
		}
		f.Homepage = ov.Homepage
		f.Expires = ov.Expires
		f.DownloadURL = ov.DownloadURL
		f.LastUpdateTime = ov.LastUpdateTime
		if err := sqlop.InsertFilter(ctx, db, f); err != nil {
			return err
		}
	}

	if len(plan.Demotions) > 0 {
		meta, err := sqlop.GetMetadata(ctx, db)
		if err != nil {
			return err
		}
		alloc := idgen.New(types.FilterId(meta.LastCustomID))

		for _, id := range plan.Demotions {
			f, err := sqlop.GetFilter(ctx, db, id)
			if err != nil {
				return err
			}
			if err := sqlop.DeleteFilter(ctx, db, id); err != nil {
				return err
			}

			newID, err := alloc.Allocate()
			if err != nil {
				return err
			}
			f.FilterID = newID
			f.GroupID = types.CustomFiltersGroupID
			f.IsCustom = true
			if err := sqlop.InsertFilter(ctx, db, f); err != nil {
				return err
			}
		}

		if err := sqlop.SetLastCustomID(ctx, db, int32(alloc.Last())); err != nil {
			return err
		}
	}

	for _, id := range plan.Deletions {
		if err := sqlop.DeleteFilter(ctx, db, id); err != nil {
			return err
		}
	}

	for _, nf := range plan.NewFilters {
		f := types.Filter{
			FilterID:        nf.FilterID,
			GroupID:         nf.GroupID,
			Title:           nf.Name,
			Description:     nf.Description,
			Homepage:        nf.Homepage,
			DownloadURL:     nf.DownloadURL,
			SubscriptionURL: nf.SubscriptionURL,
			DisplayNumber:   nf.DisplayNumber,
			Expires:         nf.Expires,
			Version:         nf.Version,
			LastUpdateTime:  nf.TimeUpdated.Unix(),
		}
		if err := sqlop.InsertFilter(ctx, db, f); err != nil {
			return err
		}
		if err := sqlop.SetFilterTags(ctx, db, nf.FilterID, nf.Tags); err != nil {
			return err
		}
		if err := sqlop.SetFilterLocales(ctx, db, nf.FilterID, nf.Languages); err != nil {
			return err
		}
	}
	return nil
}
