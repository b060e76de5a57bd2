// Package index owns the in-memory path→profile mapping for one
// organizing session. The index is discarded and rebuilt on every scan;
// readers always see either the old snapshot or the new one, never a mix.
package index

import (
	"sort"
	"sync/atomic"
	"time"

	"sortme/internal/profile"
)

// Snapshot is one immutable rebuild of the index.
type Snapshot struct {
	root      string
	scannedAt time.Time
	byPath    map[string]*profile.FileProfile
	ordered   []*profile.FileProfile
}

// Store holds the current snapshot. Rebuild swaps the whole snapshot in
// one atomic store; lookups never block.
type Store struct {
	current atomic.Pointer[Snapshot]
	stale   atomic.Bool
}

func NewStore() *Store {
	s := &Store{}
	s.current.Store(emptySnapshot())
	return s
}

func emptySnapshot() *Snapshot {
	return &Snapshot{byPath: map[string]*profile.FileProfile{}}
}

// Rebuild replaces the index with the given scan result.
func (s *Store) Rebuild(root string, scannedAt time.Time, profiles []*profile.FileProfile) {
	byPath := make(map[string]*profile.FileProfile, len(profiles))
	ordered := make([]*profile.FileProfile, 0, len(profiles))
	for _, p := range profiles {
		if _, dup := byPath[p.Path]; dup {
			continue
		}
		byPath[p.Path] = p
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Path < ordered[j].Path })
	s.current.Store(&Snapshot{
		root:      root,
		scannedAt: scannedAt,
		byPath:    byPath,
		ordered:   ordered,
	})
	s.stale.Store(false)
}

// Current returns the active snapshot.
func (s *Store) Current() *Snapshot { return s.current.Load() }

// Lookup finds a profile by relative path in the current snapshot.
func (s *Store) Lookup(path string) (*profile.FileProfile, bool) {
	p, ok := s.Current().byPath[path]
	return p, ok
}

// All returns the current snapshot's profiles in path order. The slice is
// shared with the snapshot and must not be mutated.
func (s *Store) All() []*profile.FileProfile { return s.Current().ordered }

// Len reports the number of indexed files.
func (s *Store) Len() int { return len(s.Current().ordered) }

// Root reports which directory the current snapshot was built from.
func (s *Store) Root() string { return s.Current().root }

// ScannedAt reports when the current snapshot was built.
func (s *Store) ScannedAt() time.Time { return s.Current().scannedAt }

// MarkStale flags the index as out of date with the directory. Advisory
// only: the snapshot itself is untouched.
func (s *Store) MarkStale() { s.stale.Store(true) }

// Stale reports whether the directory changed since the last rebuild.
func (s *Store) Stale() bool { return s.stale.Load() }

// Lookup finds a profile by relative path in this snapshot.
func (sn *Snapshot) Lookup(path string) (*profile.FileProfile, bool) {
	p, ok := sn.byPath[path]
	return p, ok
}

// All returns the snapshot's profiles in path order.
func (sn *Snapshot) All() []*profile.FileProfile { return sn.ordered }

// Root reports the directory this snapshot was built from.
func (sn *Snapshot) Root() string { return sn.root }
