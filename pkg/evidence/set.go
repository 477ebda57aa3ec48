package evidence

import (
	"errors"
	"fmt"
	"sort"
)

// ErrTenantMismatch is returned when an item tagged with a different
// group_id is added to a Set. This is the hard multi-tenancy boundary:
// no evidence may cross it, regardless of which strategy gathered it.
var ErrTenantMismatch = errors.New("evidence item belongs to a different tenant")

// Set accumulates all evidence gathered for one query: text units,
// entities, relationships, and community summaries, each with provenance.
// A Set grows strictly additively within a request; nothing is ever
// removed. Every Add checks the item's group_id against the Set's tenant.
//
// Set is not safe for concurrent use; stages fan in their results before
// adding them.
type Set struct {
	groupID string

	Units         []TextUnit
	Entities      []Entity
	Relationships []Relationship
	Communities   []Community

	unitIndex map[string]int
	entityIDs map[int64]bool
	relIDs    map[int64]bool
	commIDs   map[int64]bool
}

// NewSet creates an empty evidence set bound to one tenant.
func NewSet(groupID string) *Set {
	return &Set{
		groupID:   groupID,
		unitIndex: make(map[string]int),
		entityIDs: make(map[int64]bool),
		relIDs:    make(map[int64]bool),
		commIDs:   make(map[int64]bool),
	}
}

// GroupID returns the tenant the set is bound to.
func (s *Set) GroupID() string {
	return s.groupID
}

// AddUnit adds a text unit, ignoring duplicates by unit id.
func (s *Set) AddUnit(u TextUnit) error {
	if u.GroupID != s.groupID {
		return fmt.Errorf("%w: unit %s has group %s, set has %s", ErrTenantMismatch, u.ID, u.GroupID, s.groupID)
	}
	if _, ok := s.unitIndex[u.ID]; ok {
		return nil
	}
	s.unitIndex[u.ID] = len(s.Units)
	s.Units = append(s.Units, u)
	return nil
}

// AddUnits adds all units, stopping at the first tenant violation.
func (s *Set) AddUnits(units []TextUnit) error {
	for _, u := range units {
		if err := s.AddUnit(u); err != nil {
			return err
		}
	}
	return nil
}

// AddEntity adds an entity, ignoring duplicates by id.
func (s *Set) AddEntity(e Entity) error {
	if e.GroupID != s.groupID {
		return fmt.Errorf("%w: entity %q has group %s, set has %s", ErrTenantMismatch, e.Name, e.GroupID, s.groupID)
	}
	if s.entityIDs[e.ID] {
		return nil
	}
	s.entityIDs[e.ID] = true
	s.Entities = append(s.Entities, e)
	return nil
}

// AddRelationship adds a relationship, ignoring duplicates by id.
func (s *Set) AddRelationship(r Relationship) error {
	if r.GroupID != s.groupID {
		return fmt.Errorf("%w: relationship %d has group %s, set has %s", ErrTenantMismatch, r.ID, r.GroupID, s.groupID)
	}
	if s.relIDs[r.ID] {
		return nil
	}
	s.relIDs[r.ID] = true
	s.Relationships = append(s.Relationships, r)
	return nil
}

// AddCommunity adds a community summary, ignoring duplicates by id.
func (s *Set) AddCommunity(c Community) error {
	if c.GroupID != s.groupID {
		return fmt.Errorf("%w: community %d has group %s, set has %s", ErrTenantMismatch, c.ID, c.GroupID, s.groupID)
	}
	if s.commIDs[c.ID] {
		return nil
	}
	s.commIDs[c.ID] = true
	s.Communities = append(s.Communities, c)
	return nil
}

// HasUnit reports whether a unit with the given id is already present.
func (s *Set) HasUnit(id string) bool {
	_, ok := s.unitIndex[id]
	return ok
}

// UnitByID returns the unit with the given id.
func (s *Set) UnitByID(id string) (TextUnit, bool) {
	idx, ok := s.unitIndex[id]
	if !ok {
		return TextUnit{}, false
	}
	return s.Units[idx], true
}

// HasEntityNamed reports whether an entity with the given name is present.
// Matching is exact; callers normalize case before lookup.
func (s *Set) HasEntityNamed(name string) bool {
	for _, e := range s.Entities {
		if e.Name == name {
			return true
		}
	}
	return false
}

// Empty reports whether the set contains no evidence at all.
func (s *Set) Empty() bool {
	return len(s.Units) == 0 && len(s.Entities) == 0 &&
		len(s.Relationships) == 0 && len(s.Communities) == 0
}

// DistinctDocuments returns the ids of all source documents represented in
// the set, each exactly once. Units from different sections or exhibits of
// the same document collapse onto one document identity; per-document
// counting must go through this method, never through raw unit metadata.
func (s *Set) DistinctDocuments() []string {
	seen := make(map[string]bool)
	var docs []string
	for _, u := range s.Units {
		if u.DocumentID == "" || seen[u.DocumentID] {
			continue
		}
		seen[u.DocumentID] = true
		docs = append(docs, u.DocumentID)
	}
	sort.Strings(docs)
	return docs
}

// UnitsPerDocument counts the text units present for each distinct
// source document.
func (s *Set) UnitsPerDocument() map[string]int {
	counts := make(map[string]int)
	for _, u := range s.Units {
		if u.DocumentID == "" {
			continue
		}
		counts[u.DocumentID]++
	}
	return counts
}
