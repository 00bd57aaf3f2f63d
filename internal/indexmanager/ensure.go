package indexmanager

import (
	"context"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/registry"
)

// EnsureIndex guarantees a catalog row, a registry entry, and a
// Search-Engine index exist for (typeName, groups) (spec §4.4 "Ensure").
// New entries start invalid; callers decide whether to rebuild.
func (m *Manager) EnsureIndex(ctx context.Context, typeName string, groups config.AllowedGroups) (*registry.Index, error) {
	idx := m.Registry.Ensure(typeName, groups)

	m.mu.Lock()
	err := m.persistIndex(ctx, idx)
	m.mu.Unlock()
	if err != nil {
		return idx, err
	}

	exists, err := m.Search.IndexExists(ctx, idx.Name)
	if err != nil {
		return idx, err
	}
	if exists {
		return idx, nil
	}

	mappings, settings := m.indexSettingsFor(typeName)
	if err := m.Search.CreateIndex(ctx, idx.Name, mappings, settings); err != nil {
		return idx, err
	}
	return idx, nil
}

// indexSettingsFor resolves the mappings/settings a newly created index
// should carry: the type_definition's own, falling back to
// default_index_settings (spec §4.4 "create with type_definition's
// mappings/settings or defaults").
func (m *Manager) indexSettingsFor(typeName string) (mappings, settings map[string]interface{}) {
	typeDef, ok := m.Model.Lookup(typeName)
	if !ok {
		return nil, m.Settings.DefaultIndexSettings
	}
	if typeDef.Mappings != nil {
		mappings = typeDef.Mappings
	}
	if typeDef.Settings != nil {
		settings = typeDef.Settings
	} else {
		settings = m.Settings.DefaultIndexSettings
	}
	return mappings, settings
}

// RemoveIndex deletes the Search-Engine index and catalog row for
// (typeName, groups) (spec §4.4 "remove_index").
func (m *Manager) RemoveIndex(ctx context.Context, typeName string, groups config.AllowedGroups) error {
	idx, ok := m.Registry.Get(typeName, groups)
	if !ok {
		return nil
	}
	if err := m.Search.DeleteIndex(ctx, idx.Name); err != nil {
		return err
	}
	if err := m.deleteCatalogEntry(ctx, idx.URI); err != nil {
		return err
	}
	m.Registry.Remove(typeName, groups)
	return nil
}

// FetchIndexesFor resolves the Index set for (typeName, allowedGroups)
// per spec §4.4 "fetch_indexes_for": one index per singleton subset when
// additive_indexes is set, otherwise a single index for the full set.
// Every returned index has been ensured and, if it needed a rebuild, that
// rebuild has been attempted — it is guaranteed to be valid or reported
// invalid, never left in a stale unattempted state.
func (m *Manager) FetchIndexesFor(ctx context.Context, typeName string, allowedGroups, usedGroups config.AllowedGroups) ([]*registry.Index, error) {
	groupSets := registry.TargetGroupSets(allowedGroups, m.Settings.AdditiveIndexes)

	indexes := make([]*registry.Index, 0, len(groupSets))
	for _, groups := range groupSets {
		idx, err := m.EnsureIndex(ctx, typeName, groups)
		if err != nil {
			m.logf("ensure %s/%s: %v", typeName, groups.CanonicalKey(), err)
			continue
		}
		idx.UsedGroups = usedGroups
		if idx.NeedsRebuild() {
			m.Rebuild(ctx, idx, groups)
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}
