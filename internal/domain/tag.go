package domain

import (
	"maps"
	"slices"
	"time"
)

// Component is a reference to an artifact grouped under a tag — typically one
// coordinate in a repository (e.g. a deployed build). The store never
// interprets components; it only persists them and matches them against
// search criteria.
type Component struct {
	Repository string `json:"repository"`
	Group      string `json:"group"`
	Name       string `json:"name"`
	Version    string `json:"version"`
}

// Tag is a named metadata record: a set of string attributes plus the list of
// components the tag annotates. Identity is determined by Name, which is
// unique across the store.
//
// A Tag value returned by the store is a snapshot, not a live handle — its
// Attributes map and Components slice never alias store-internal state.
type Tag struct {
	Name         string
	Attributes   map[string]string
	Components   []Component
	FirstCreated time.Time
	LastUpdated  time.Time
}

// TagDefinition is the caller-supplied desired state for an upsert:
// the full replacement attribute set and component list for Name.
type TagDefinition struct {
	Name       string
	Attributes map[string]string
	Components []Component
}

// Snapshot returns a deep copy of t. The store uses it to guarantee that
// persisted state never aliases caller-supplied maps or slices.
func (t Tag) Snapshot() Tag {
	t.Attributes = maps.Clone(t.Attributes)
	t.Components = slices.Clone(t.Components)
	return t
}
