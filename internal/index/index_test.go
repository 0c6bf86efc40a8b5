package index

import (
	"testing"
	"time"

	"github.com/steveyegge/flm/internal/types"
)

func sampleIndex() types.Index {
	return types.Index{
		Groups: []types.IndexGroup{{GroupID: 1, GroupName: "Ads"}},
		Tags:   []types.IndexTag{{TagID: 10, Keyword: "mobile"}},
		Filters: []types.IndexFilter{
			{FilterID: 101, Name: "Ads Filter", GroupID: 1, Tags: []int32{10}, TimeUpdated: time.Unix(1000, 0)},
			{FilterID: 102, Name: "Deprecated Filter", GroupID: 1, Deprecated: true, TimeUpdated: time.Unix(1000, 0)},
		},
	}
}

func TestCheckConsistencyAccepts(t *testing.T) {
	if err := CheckConsistency(sampleIndex()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckConsistencyRejectsUnknownGroup(t *testing.T) {
	idx := sampleIndex()
	idx.Filters[0].GroupID = 999
	if err := CheckConsistency(idx); err == nil {
		t.Fatal("expected error for unknown group")
	}
}

func TestCheckConsistencyRejectsUnknownTag(t *testing.T) {
	idx := sampleIndex()
	idx.Filters[0].Tags = []int32{999}
	if err := CheckConsistency(idx); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestCheckConsistencyRejectsEmptyTitle(t *testing.T) {
	idx := sampleIndex()
	idx.Filters[0].Name = ""
	if err := CheckConsistency(idx); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestCheckConsistencyRejectsNonPositiveID(t *testing.T) {
	idx := sampleIndex()
	idx.Filters[0].FilterID = 0
	if err := CheckConsistency(idx); err == nil {
		t.Fatal("expected error for non-positive filter id")
	}
}

func TestFreshMapSkipsDeprecated(t *testing.T) {
	m := FreshMap(sampleIndex())
	if _, ok := m[102]; ok {
		t.Error("deprecated filter should not appear in fresh map")
	}
	if _, ok := m[101]; !ok {
		t.Error("expected non-deprecated filter in fresh map")
	}
}

func TestReconcileLeavesCustomAndServiceAlone(t *testing.T) {
	persisted := []types.Filter{
		{FilterID: -12345, GroupID: -2147483648, IsEnabled: true},  // custom
		{FilterID: types.UserRulesFilterID, GroupID: 0, IsEnabled: true}, // service/bootstrapped
	}
	plan := Reconcile(sampleIndex(), persisted)
	if len(plan.Overwrites) != 0 || len(plan.Demotions) != 0 || len(plan.Deletions) != 0 {
		t.Errorf("expected no action on custom/service filters, got %+v", plan)
	}
}

func TestReconcileOverwritesMatchedFilter(t *testing.T) {
	persisted := []types.Filter{
		{FilterID: 101, GroupID: 1, IsEnabled: true, Title: "Old Title"},
	}
	plan := Reconcile(sampleIndex(), persisted)
	if len(plan.Overwrites) != 1 {
		t.Fatalf("expected 1 overwrite, got %d", len(plan.Overwrites))
	}
	ow := plan.Overwrites[0]
	if ow.FilterID != 101 || ow.Title != "Ads Filter" || !ow.HasTitle {
		t.Errorf("got %+v", ow)
	}
}

func TestReconcileRespectsUserOwnedTitle(t *testing.T) {
	persisted := []types.Filter{
		{FilterID: 101, GroupID: 1, IsEnabled: true, Title: "My Custom Title", IsUserTitle: true},
	}
	plan := Reconcile(sampleIndex(), persisted)
	ow := plan.Overwrites[0]
	if ow.HasTitle {
		t.Error("expected user-owned title to be excluded from overwrite")
	}
}

func TestReconcileDemotesEnabledAbsentFilter(t *testing.T) {
	persisted := []types.Filter{
		{FilterID: 777, GroupID: 1, IsEnabled: true},
	}
	plan := Reconcile(sampleIndex(), persisted)
	if len(plan.Demotions) != 1 || plan.Demotions[0] != 777 {
		t.Errorf("expected demotion of 777, got %+v", plan.Demotions)
	}
}

func TestReconcileDeletesDisabledAbsentFilter(t *testing.T) {
	persisted := []types.Filter{
		{FilterID: 777, GroupID: 1, IsEnabled: false},
	}
	plan := Reconcile(sampleIndex(), persisted)
	if len(plan.Deletions) != 1 || plan.Deletions[0] != 777 {
		t.Errorf("expected deletion of 777, got %+v", plan.Deletions)
	}
}

func TestReconcileIncludesUnconsumedFreshFilters(t *testing.T) {
	plan := Reconcile(sampleIndex(), nil)
	if len(plan.NewFilters) != 1 || plan.NewFilters[0].FilterID != 101 {
		t.Errorf("expected the one non-deprecated fresh filter as new, got %+v", plan.NewFilters)
	}
}
