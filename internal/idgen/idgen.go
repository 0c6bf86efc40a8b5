// Package idgen mints FilterId values for host-added custom filters. Ids
// are minted strictly decreasing from MaxCustomFilterID down toward
// MinCustomFilterID, so a freshly minted id is always lower (and so
// distinguishable in insertion order) than every id minted before it.
package idgen

import (
	"sync"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/types"
)

func init() {
	if types.MinCustomFilterID <= types.SmallestPossibleFilterID {
		panic("idgen: MinCustomFilterID must stay above SmallestPossibleFilterID so host applications keep a reserved id subrange")
	}
}

// Allocator mints FilterId values from MaxCustomFilterID downward, never
// below MinCustomFilterID. Safe for concurrent use.
type Allocator struct {
	mu   sync.Mutex
	next types.FilterId
}

// New builds an Allocator that resumes from lastMinted: the next call to
// Allocate returns an id strictly lower than lastMinted. Pass
// types.MaxCustomFilterID+1 for a fresh database (so the first allocated
// id is exactly MaxCustomFilterID).
func New(lastMinted types.FilterId) *Allocator {
	return &Allocator{next: lastMinted}
}

// Allocate mints the next id. It errors once the allocator would mint
// below MinCustomFilterID: the custom-id range is exhausted.
func (a *Allocator) Allocate() (types.FilterId, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	candidate := a.next - 1
	if candidate < types.MinCustomFilterID {
		return 0, flmerrors.New(flmerrors.Other, "custom filter id range exhausted at %d", candidate)
	}
	a.next = candidate
	return candidate, nil
}

// Last returns the most recently minted id, for persisting into
// DbMetadata.LastCustomID.
func (a *Allocator) Last() types.FilterId {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
