// Package scheduler implements the Update Scheduler (§4.K): per
// candidate filter, it decides between a full redownload and an
// incremental patch chain, recompiles the result, and persists it,
// capturing per-filter failures without aborting the batch.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/steveyegge/flm/internal/compiler"
	"github.com/steveyegge/flm/internal/config"
	"github.com/steveyegge/flm/internal/diffpath"
	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/flmhttp"
	"github.com/steveyegge/flm/internal/metadata"
	"github.com/steveyegge/flm/internal/storage"
	"github.com/steveyegge/flm/internal/storage/sqlop"
	"github.com/steveyegge/flm/internal/types"
)

// Mode selects which filters a Run considers before the per-filter skip
// rules (§4.K steps 1-2) are applied.
type Mode int

const (
	// ModeEligible considers every enabled, persisted filter.
	ModeEligible Mode = iota
	// ModeAll considers every persisted filter regardless of status.
	ModeAll
	// ModeForceByIDs considers only the filters named in Request.ForceIDs.
	ModeForceByIDs
)

// Request configures one scheduler pass.
type Request struct {
	Mode             Mode
	ForceIDs         []types.FilterId
	IgnoreExpiration bool
	IgnoreStatus     bool
	// LooseTimeout bounds wall-clock time across the whole run. Zero
	// means no budget; checked after each filter completes, never
	// mid-transfer.
	LooseTimeout time.Duration
}

// Scheduler owns the collaborators one Run needs: the database, an HTTP
// client, the resolved configuration, and a logger.
type Scheduler struct {
	cm   *storage.ConnectionManager
	http flmhttp.Client
	cfg  config.Configuration
	log  *slog.Logger

	attempted metric.Int64Counter
	failed    metric.Int64Counter
	skipped   metric.Int64Counter
}

// New builds a Scheduler and registers its per-run metric counters
// against the global otel meter provider.
func New(cm *storage.ConnectionManager, client flmhttp.Client, cfg config.Configuration, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	meter := otel.Meter("github.com/steveyegge/flm/internal/scheduler")

	attempted, err := meter.Int64Counter("flm.scheduler.filters_attempted")
	if err != nil {
		return nil, flmerrors.Wrap(flmerrors.Other, err, "register attempted counter")
	}
	failed, err := meter.Int64Counter("flm.scheduler.filters_failed")
	if err != nil {
		return nil, flmerrors.Wrap(flmerrors.Other, err, "register failed counter")
	}
	skipped, err := meter.Int64Counter("flm.scheduler.filters_skipped")
	if err != nil {
		return nil, flmerrors.Wrap(flmerrors.Other, err, "register skipped counter")
	}

	return &Scheduler{cm: cm, http: client, cfg: cfg, log: log, attempted: attempted, failed: failed, skipped: skipped}, nil
}

// Run performs one scheduler pass and returns the aggregate outcome.
// Per-filter failures are captured in UpdateResult.FiltersErrors; Run
// itself only returns an error when the candidate set can't be loaded
// at all.
func (s *Scheduler) Run(ctx context.Context, req Request) (types.UpdateResult, error) {
	var all []types.Filter
	err := s.cm.Execute(ctx, func(tx *sql.Tx) error {
		var lerr error
		all, lerr = sqlop.ListFilters(ctx, tx)
		return lerr
	})
	if err != nil {
		return types.UpdateResult{}, err
	}

	candidates := s.selectCandidates(all, req)
	cache := diffpath.NewBatchCache(diffpath.NewHTTPFetcher(s.http))

	var result types.UpdateResult
	start := time.Now()
	now := time.Now().Unix()

	for i, f := range candidates {
		if req.LooseTimeout > 0 && i > 0 && time.Since(start) > req.LooseTimeout {
			result.RemainingFiltersCount = len(candidates) - i
			s.log.Warn("scheduler stopped: loose_timeout exceeded", "remaining", result.RemainingFiltersCount)
			break
		}

		s.attempted.Add(ctx, 1)
		updated, uerr := s.updateOne(ctx, f, req, now, cache)
		if uerr != nil {
			if flmerrors.Is(uerr, flmerrors.NoContent) {
				s.log.Debug("no new content", "filter_id", f.FilterID)
				continue
			}
			s.failed.Add(ctx, 1)
			result.FiltersErrors = append(result.FiltersErrors, toFailedUpdate(f, uerr))
			continue
		}
		if !updated {
			s.skipped.Add(ctx, 1)
			continue
		}
		result.UpdatedFilters = append(result.UpdatedFilters, f.FilterID)
	}
	return result, nil
}

// selectCandidates narrows the persisted set to req.Mode's base set, then
// applies the two universal per-filter skip rules (§4.K steps 1-2).
func (s *Scheduler) selectCandidates(all []types.Filter, req Request) []types.Filter {
	var base []types.Filter
	switch req.Mode {
	case ModeForceByIDs:
		want := make(map[types.FilterId]bool, len(req.ForceIDs))
		for _, id := range req.ForceIDs {
			want[id] = true
		}
		for _, f := range all {
			if want[f.FilterID] {
				base = append(base, f)
			}
		}
	case ModeAll:
		base = all
	default: // ModeEligible
		for _, f := range all {
			if f.IsEnabled {
				base = append(base, f)
			}
		}
	}

	out := make([]types.Filter, 0, len(base))
	for _, f := range base {
		if f.DownloadURL == "" {
			continue
		}
		if !req.IgnoreStatus && !f.IsEnabled {
			continue
		}
		out = append(out, f)
	}
	return out
}

func toFailedUpdate(f types.Filter, err error) types.FailedFilterUpdate {
	return types.FailedFilterUpdate{FilterID: f.FilterID, Message: err.Error(), URL: f.DownloadURL}
}

// updateOne performs the download-or-patch → recompile → persist flow
// for one filter. False with a nil error means the filter had nothing
// due yet. True means a body was fetched and compiled; it is also true
// on the Version-equal fast path, which writes nothing.
func (s *Scheduler) updateOne(ctx context.Context, f types.Filter, req Request, now int64, cache *diffpath.BatchCache) (bool, error) {
	expires := s.cfg.ExpiresFloor(f.Expires)
	readyForFull := now > f.LastDownloadTime+int64(expires)

	var body string
	var nextDiffPath string

	switch {
	case req.IgnoreExpiration || readyForFull:
		b, err := s.http.GetText(ctx, f.DownloadURL, true)
		if err != nil {
			return false, err
		}
		body = b

	default:
		var due types.DiffUpdate
		var hasDue bool
		var existing types.RulesList
		var hasBody bool
		err := s.cm.Execute(ctx, func(tx *sql.Tx) error {
			var derr error
			due, hasDue, derr = sqlop.GetDiffUpdate(ctx, tx, f.FilterID)
			if derr != nil {
				return derr
			}
			existing, derr = sqlop.GetRulesList(ctx, tx, f.FilterID)
			if flmerrors.Is(derr, flmerrors.EntityNotFound) {
				return nil
			}
			hasBody = derr == nil
			return derr
		})
		if err != nil {
			return false, err
		}
		if !hasDue || now <= due.NextCheckTime || !hasBody || existing.Text == "" {
			return false, nil
		}

		state := diffpath.NewState(f.DownloadURL, existing.Text, due.NextPath)
		fetcher := diffpath.NewHTTPFetcher(s.http)
		patched, rerr := diffpath.Run(ctx, fetcher, cache, state)
		if rerr != nil {
			return false, rerr
		}
		body = patched
		nextDiffPath = state.NextPath
	}

	provider := compiler.RootOverrideProvider{
		Root:     body,
		Includes: compiler.HTTPProvider{Ctx: ctx, Client: s.http},
	}
	comp := compiler.New(provider, s.cfg.CompilerConditionalConstants)
	out, cerr := comp.Compile(f.DownloadURL)
	if cerr != nil {
		return false, cerr
	}

	if version, ok := out.Metadata[metadata.PropVersion]; ok && version != "" && version == f.Version {
		// Version-equal fast path (§9 open question): short-circuit the
		// write but still count as attempted, not as skipped.
		return true, nil
	}

	updated := f
	updated.Version = out.Metadata[metadata.PropVersion]
	if !f.IsCustom {
		updated.Homepage = out.Metadata[metadata.PropHomepage]
	}
	if !f.IsUserTitle {
		if title, ok := out.Metadata[metadata.PropTitle]; ok && title != "" {
			updated.Title = title
		}
	}
	if !f.IsUserDescription {
		if desc, ok := out.Metadata[metadata.PropDescription]; ok && desc != "" {
			updated.Description = desc
		}
	}
	if rawExpires, ok := out.Metadata[metadata.PropExpires]; ok {
		updated.Expires = int32(s.cfg.ExpiresFloor(int32(metadata.ParseExpires(rawExpires))))
	}
	updated.Checksum = out.Metadata[metadata.PropChecksum]
	updated.LastDownloadTime = now
	updated.LastUpdateTime = now

	rl := types.RulesList{
		FilterID:      f.FilterID,
		Text:          out.Body,
		RulesCount:    out.RulesCount,
		HasDirectives: out.HasDirectives,
	}

	err := s.cm.Execute(ctx, func(tx *sql.Tx) error {
		if err := sqlop.InsertFilter(ctx, tx, updated); err != nil {
			return err
		}
		if err := sqlop.UpsertRulesList(ctx, tx, rl); err != nil {
			return err
		}
		if err := sqlop.ReplaceFilterIncludes(ctx, tx, f.FilterID, out.Includes); err != nil {
			return err
		}
		if diffPathURL, ok := out.Metadata[metadata.PropDiffPath]; ok && diffPathURL != "" {
			checkTime, _ := diffpath.ParseNextCheckTime(diffPathURL)
			return sqlop.UpsertDiffUpdate(ctx, tx, types.DiffUpdate{
				FilterID:      f.FilterID,
				NextPath:      diffPathURL,
				NextCheckTime: checkTime,
			})
		}
		if nextDiffPath != "" {
			checkTime, _ := diffpath.ParseNextCheckTime(nextDiffPath)
			return sqlop.UpsertDiffUpdate(ctx, tx, types.DiffUpdate{
				FilterID:      f.FilterID,
				NextPath:      nextDiffPath,
				NextCheckTime: checkTime,
			})
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
