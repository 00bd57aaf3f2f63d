package registry

import (
	"sync"

	"github.com/mu-semtech/delta-indexer/internal/config"
)

// Registry is the in-memory Index catalog. The registry mutex serializes
// structural changes (inserting/removing entries); it is never held
// across I/O — rebuilds proceed under the per-Index mutex only (spec
// §4.4/§9 "never hold the registry mutex across I/O").
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Index
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*Index)}
}

func catalogKey(typeName string, groups config.AllowedGroups) string {
	return typeName + "\x00" + groups.CanonicalKey()
}

// Ensure returns the catalog entry for (typeName, groups), creating one in
// the invalid state if absent (spec §4.4 "Ensure").
func (r *Registry) Ensure(typeName string, groups config.AllowedGroups) *Index {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := catalogKey(typeName, groups)
	if idx, ok := r.entries[key]; ok {
		return idx
	}
	idx := newIndex(typeName, groups)
	r.entries[key] = idx
	return idx
}

// Restore inserts a catalog entry reconstructed from persisted storage
// (spec §4.4 "load catalog from triplestore"). The entry always starts in
// the invalid status regardless of what idx.status carries in, since a
// reload never trusts a stale valid claim from before a restart.
func (r *Registry) Restore(idx *Index) *Index {
	idx.status = StatusInvalid
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[catalogKey(idx.TypeName, idx.AllowedGroups)] = idx
	return idx
}

// Get looks up an existing entry without creating one.
func (r *Registry) Get(typeName string, groups config.AllowedGroups) (*Index, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.entries[catalogKey(typeName, groups)]
	return idx, ok
}

// Remove deletes the catalog entry for (typeName, groups) (spec §4.4
// "remove_index"). It does not touch the underlying Search-Engine index;
// callers delete that first.
func (r *Registry) Remove(typeName string, groups config.AllowedGroups) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, catalogKey(typeName, groups))
}

// AllForType returns every catalog entry for typeName, regardless of
// allowed_groups.
func (r *Registry) AllForType(typeName string) []*Index {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Index
	for _, idx := range r.entries {
		if idx.TypeName == typeName {
			out = append(out, idx)
		}
	}
	return out
}

// All returns every catalog entry.
func (r *Registry) All() []*Index {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Index, 0, len(r.entries))
	for _, idx := range r.entries {
		out = append(out, idx)
	}
	return out
}

// TargetGroupSets computes the set of allowed_groups entries to ensure
// for a lookup of (typeName, allowedGroups): one per singleton subset
// when additive is set, otherwise a single entry for the full set (spec
// §4.4 "fetch_indexes_for").
func TargetGroupSets(allowedGroups config.AllowedGroups, additive bool) []config.AllowedGroups {
	if additive {
		return allowedGroups.Subsets()
	}
	return []config.AllowedGroups{allowedGroups}
}
