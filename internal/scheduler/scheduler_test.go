package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/steveyegge/flm/internal/config"
	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/storage/sqlite"
	"github.com/steveyegge/flm/internal/storage/sqlop"
	"github.com/steveyegge/flm/internal/types"
)

type fakeClient struct {
	pages map[string]string
	err   error
}

func (c fakeClient) GetJSON(ctx context.Context, url string, out any) error { return nil }

func (c fakeClient) GetText(ctx context.Context, url string, strict200 bool) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	body, ok := c.pages[url]
	if !ok {
		return "", flmerrors.New(flmerrors.EntityNotFound, "no page for %s", url)
	}
	return body, nil
}

func newTestScheduler(t *testing.T, client fakeClient) *Scheduler {
	t.Helper()
	dir := t.TempDir()
	cm, err := sqlite.NewConnectionManager(filepath.Join(dir, "standard.db"))
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	t.Cleanup(func() { _ = cm.Close() })
	if err := cm.LiftUpDatabase(context.Background()); err != nil {
		t.Fatalf("LiftUpDatabase: %v", err)
	}

	cfg := config.Configuration{
		FilterListType:                    "standard",
		DefaultFilterListExpiresPeriodSec: 3600,
		MetadataURL:                       "https://x/filters.json",
	}
	s, err := New(cm, client, cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func insertFilter(t *testing.T, s *Scheduler, f types.Filter) {
	t.Helper()
	err := s.cm.Execute(context.Background(), func(tx *sql.Tx) error {
		return sqlop.InsertFilter(context.Background(), tx, f)
	})
	if err != nil {
		t.Fatalf("insertFilter: %v", err)
	}
}

func TestRunFullDownloadsDueFilter(t *testing.T) {
	body := "! Title: Ads Filter\n! Version: 2.0\n||ads.example.com^\n"
	client := fakeClient{pages: map[string]string{"https://x/101.txt": body}}
	s := newTestScheduler(t, client)

	insertFilter(t, s, types.Filter{
		FilterID:    101,
		GroupID:     1,
		Title:       "Ads Filter",
		DownloadURL: "https://x/101.txt",
		IsEnabled:   true,
		Version:     "1.0",
	})

	result, err := s.Run(context.Background(), Request{Mode: ModeEligible})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.UpdatedFilters) != 1 || result.UpdatedFilters[0] != 101 {
		t.Fatalf("UpdatedFilters = %v, want [101]", result.UpdatedFilters)
	}
	if len(result.FiltersErrors) != 0 {
		t.Fatalf("FiltersErrors = %v, want none", result.FiltersErrors)
	}

	var rl types.RulesList
	err = s.cm.Execute(context.Background(), func(tx *sql.Tx) error {
		var gerr error
		rl, gerr = sqlop.GetRulesList(context.Background(), tx, 101)
		return gerr
	})
	if err != nil {
		t.Fatalf("GetRulesList: %v", err)
	}
	if rl.RulesCount != 1 {
		t.Errorf("RulesCount = %d, want 1", rl.RulesCount)
	}
}

func TestRunSkipsDisabledFilterUnlessIgnoreStatus(t *testing.T) {
	client := fakeClient{pages: map[string]string{"https://x/101.txt": "||ads^\n"}}
	s := newTestScheduler(t, client)

	insertFilter(t, s, types.Filter{
		FilterID:    101,
		GroupID:     1,
		Title:       "Ads Filter",
		DownloadURL: "https://x/101.txt",
		IsEnabled:   false,
	})

	result, err := s.Run(context.Background(), Request{Mode: ModeAll})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.UpdatedFilters) != 0 {
		t.Fatalf("UpdatedFilters = %v, want none (disabled, ignore_status=false)", result.UpdatedFilters)
	}

	result, err = s.Run(context.Background(), Request{Mode: ModeAll, IgnoreStatus: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.UpdatedFilters) != 1 {
		t.Fatalf("UpdatedFilters = %v, want [101] with ignore_status", result.UpdatedFilters)
	}
}

func TestRunSkipsFilterWithEmptyDownloadURL(t *testing.T) {
	client := fakeClient{}
	s := newTestScheduler(t, client)

	insertFilter(t, s, types.Filter{FilterID: 101, GroupID: 1, Title: "No URL", IsEnabled: true})

	result, err := s.Run(context.Background(), Request{Mode: ModeEligible})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.UpdatedFilters) != 0 || len(result.FiltersErrors) != 0 {
		t.Fatalf("expected filter with empty download_url to be silently skipped, got %+v", result)
	}
}

func TestRunCapturesPerFilterErrorWithoutAbortingBatch(t *testing.T) {
	client := fakeClient{pages: map[string]string{
		"https://x/102.txt": "! Title: Good\n||good^\n",
	}}
	s := newTestScheduler(t, client)

	insertFilter(t, s, types.Filter{FilterID: 101, GroupID: 1, Title: "Broken", DownloadURL: "https://x/101.txt", IsEnabled: true})
	insertFilter(t, s, types.Filter{FilterID: 102, GroupID: 1, Title: "Good", DownloadURL: "https://x/102.txt", IsEnabled: true})

	result, err := s.Run(context.Background(), Request{Mode: ModeEligible})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.FiltersErrors) != 1 || result.FiltersErrors[0].FilterID != 101 {
		t.Fatalf("FiltersErrors = %+v, want one entry for filter 101", result.FiltersErrors)
	}
	if len(result.UpdatedFilters) != 1 || result.UpdatedFilters[0] != 102 {
		t.Fatalf("UpdatedFilters = %v, want [102]", result.UpdatedFilters)
	}
}

func TestRunRespectsLooseTimeout(t *testing.T) {
	client := fakeClient{pages: map[string]string{
		"https://x/101.txt": "||a^\n",
		"https://x/102.txt": "||b^\n",
	}}
	s := newTestScheduler(t, client)
	insertFilter(t, s, types.Filter{FilterID: 101, GroupID: 1, Title: "A", DownloadURL: "https://x/101.txt", IsEnabled: true})
	insertFilter(t, s, types.Filter{FilterID: 102, GroupID: 1, Title: "B", DownloadURL: "https://x/102.txt", IsEnabled: true})

	result, err := s.Run(context.Background(), Request{Mode: ModeEligible, LooseTimeout: time.Nanosecond})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RemainingFiltersCount == 0 {
		t.Fatal("expected loose_timeout to leave at least one filter unattempted")
	}
}
