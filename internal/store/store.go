// Package store holds the read-only, id-indexed view of a decoded fragment
// collection that weaving resolves references against.
package store

import (
	"regexp"
	"sort"

	"github.com/hpungsan/verso/internal/fragment"
)

// Store maps fragment ids to fragments. It is never modified after New returns,
// so concurrent readers need no locking.
type Store struct {
	byID map[string]fragment.Fragment
	ids  []string // sorted
}

// New indexes coll. Two fragments sharing an id fail with DUPLICATE_ID.
func New(coll fragment.Collection) (*Store, error) {
	if err := coll.CheckUnique(); err != nil {
		return nil, err
	}

	s := &Store{
		byID: make(map[string]fragment.Fragment, len(coll)),
		ids:  make([]string, 0, len(coll)),
	}
	for _, f := range coll {
		s.byID[f.ID] = f
		s.ids = append(s.ids, f.ID)
	}
	sort.Strings(s.ids)
	return s, nil
}

// Get returns the fragment with the given id.
func (s *Store) Get(id string) (fragment.Fragment, bool) {
	f, ok := s.byID[id]
	return f, ok
}

// IDs returns every id in lexicographic (byte) order.
func (s *Store) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Match returns, in lexicographic order, the ids re matches anywhere in.
func (s *Store) Match(re *regexp.Regexp) []string {
	var out []string
	for _, id := range s.ids {
		if re.MatchString(id) {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of fragments.
func (s *Store) Len() int {
	return len(s.ids)
}
