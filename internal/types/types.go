// Package types holds the data model shared by every component of the
// filter list manager core: filters, groups, tags, rule bodies, diff
// sidecars, and the singleton metadata row.
package types

import "time"

// FilterId is a signed 32-bit filter identifier. Positive values come
// from the upstream registry. Negative values in [MinCustomFilterID,
// MaxCustomFilterID] are host-minted custom filters. SmallestPossibleFilterID
// is reserved so host applications can safely occupy anything below it.
type FilterId int32

const (
	// UserRulesFilterID is the bootstrapped "User Rules" filter present
	// in every database.
	UserRulesFilterID FilterId = -2147483648 // math.MinInt32, i.e. iMIN

	// CustomFiltersGroupID is the group id new custom filters are
	// attached to.
	CustomFiltersGroupID int32 = -2147483648

	// ServiceGroupID is the group id for special, non-custom filters
	// (such as the user rules filter) that are not part of the registry.
	ServiceGroupID int32 = 0

	// MaxCustomFilterID and MinCustomFilterID bound the range the
	// allocator is allowed to mint into.
	MaxCustomFilterID FilterId = -10000
	MinCustomFilterID FilterId = -1000000000

	// SmallestPossibleFilterID is the floor below which the library
	// guarantees it will never mint an id, leaving that subrange free
	// for host applications.
	SmallestPossibleFilterID FilterId = -2000000000
)

// Filter is the metadata record for one filter list, keyed by FilterId.
type Filter struct {
	FilterID          FilterId
	GroupID           int32
	Title             string
	Description       string
	Version           string
	Homepage          string
	License           string
	Checksum          string
	DownloadURL       string
	SubscriptionURL   string
	DisplayNumber     int32
	LastUpdateTime    int64 // unix seconds
	LastDownloadTime  int64 // unix seconds
	Expires           int32 // seconds
	IsEnabled         bool
	IsInstalled       bool
	IsTrusted         bool
	IsCustom          bool
	IsUserTitle       bool
	IsUserDescription bool
}

// Group is a display grouping for filters.
type Group struct {
	GroupID       int32
	Name          string
	DisplayNumber int32
}

// Tag is a keyword bound to filters via a many-to-many relation.
type Tag struct {
	TagID   int32
	Keyword string
}

// FilterLocale binds a filter to one advertised target language.
type FilterLocale struct {
	FilterID FilterId
	Lang     string
}

// RulesList is the full textual body of one filter plus its
// disabled-rules overlay.
type RulesList struct {
	FilterID         FilterId
	Text             string
	DisabledText     string
	RulesCount       int32
	HasDirectives    bool
}

// FilterInclude is one resolved `!#include` child of a RulesList. Hash is
// nil when Body is empty.
type FilterInclude struct {
	FilterID   FilterId
	URL        string
	Body       string
	RulesCount int32
	Hash       []byte
}

// DiffUpdate is the optional incremental-patch sidecar for a filter.
type DiffUpdate struct {
	FilterID      FilterId
	NextPath      string
	NextCheckTime int64 // unix seconds
}

// DbMetadata is the singleton row holding schema version and the
// custom-id allocator counter.
type DbMetadata struct {
	SchemaVersion  int32
	LastCustomID   FilterId
}

// IndexFilter, IndexGroup, IndexTag and Index mirror the upstream JSON
// registry shape (filters.json / filters_i18n.json), as consumed by the
// Index Reconciler (§4.J).
type IndexGroup struct {
	GroupID       int32  `json:"groupId"`
	GroupName     string `json:"groupName"`
	DisplayNumber int32  `json:"displayNumber"`
}

type IndexTag struct {
	TagID      int32  `json:"tagId"`
	Keyword    string `json:"keyword"`
}

type IndexFilter struct {
	FilterID        FilterId  `json:"filterId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Homepage        string    `json:"homepage"`
	Expires         int32     `json:"expires"`
	DisplayNumber   int32     `json:"displayNumber"`
	GroupID         int32     `json:"groupId"`
	DownloadURL     string    `json:"downloadUrl"`
	SubscriptionURL string    `json:"subscriptionUrl"`
	Deprecated      bool      `json:"deprecated"`
	Version         string    `json:"version"`
	TimeUpdated     time.Time `json:"timeUpdated"`
	Languages       []string  `json:"languages"`
	Tags            []int32   `json:"tags"`
}

type Index struct {
	Groups  []IndexGroup  `json:"groups"`
	Tags    []IndexTag    `json:"tags"`
	Filters []IndexFilter `json:"filters"`
}

// FailedFilterUpdate captures one per-filter error during a scheduler run
// without aborting the batch (§4.K, §7).
type FailedFilterUpdate struct {
	FilterID   FilterId
	Message    string
	URL        string
	HTTPStatus int // not set by the scheduler, so always 0; an HTTP status appears only in Message
}

// UpdateResult is the outcome of one Update Scheduler pass.
type UpdateResult struct {
	UpdatedFilters       []FilterId
	RemainingFiltersCount int
	FiltersErrors        []FailedFilterUpdate
}
