// Package registry implements the Index Registry (spec §3/§4.4): the
// in-memory catalog of Indexes keyed by (type_name, allowed-groups), each
// with its own lifecycle mutex, plus a registry mutex serializing
// structural catalog changes.
//
// Grounded on spec §4.4's state machine and the uuid.New().String()
// identifier-generation pattern visible in pkg/statemanager/middleware.go
// in the teacher codebase.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mu-semtech/delta-indexer/internal/config"
)

// Status is an Index's lifecycle state (spec §4.4 state machine).
type Status string

const (
	StatusInvalid  Status = "invalid"
	StatusUpdating Status = "updating"
	StatusValid    Status = "valid"
)

// Index is one catalog entry: a Search-Engine index scoped to one
// type_name and one allowed_groups set.
type Index struct {
	URI           string
	Name          string
	TypeName      string
	AllowedGroups config.AllowedGroups
	UsedGroups    config.AllowedGroups

	mu     sync.Mutex
	status Status
}

// newIndex creates a fresh catalog entry in the invalid state (spec §4.4
// "ensure cache entry exists (new indexes start in invalid)").
func newIndex(typeName string, allowed config.AllowedGroups) *Index {
	return &Index{
		URI:           "http://mu.semte.ch/vocabularies/authorization/" + uuid.New().String(),
		Name:          config.IndexName(typeName, allowed),
		TypeName:      typeName,
		AllowedGroups: allowed,
		status:        StatusInvalid,
	}
}

// Status reports the current lifecycle state.
func (idx *Index) Status() Status {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.status
}

// Lock acquires the per-index mutex serializing rebuilds (spec §4.4 "The
// per-index mutex serializes rebuilds"). Callers must Unlock when done.
func (idx *Index) Lock()   { idx.mu.Lock() }
func (idx *Index) Unlock() { idx.mu.Unlock() }

// BeginUpdate transitions invalid -> updating. Callers must hold the
// per-index mutex (via Lock) across the whole rebuild.
func (idx *Index) BeginUpdate() {
	idx.status = StatusUpdating
}

// Succeed transitions updating -> valid.
func (idx *Index) Succeed() {
	idx.status = StatusValid
}

// Fail transitions updating -> invalid (spec §4.4 "Any exception ->
// invalid and logged").
func (idx *Index) Fail() {
	idx.status = StatusInvalid
}

// Invalidate transitions valid -> invalid.
func (idx *Index) Invalidate() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.status = StatusInvalid
}

// NeedsRebuild reports whether the index is not currently valid.
func (idx *Index) NeedsRebuild() bool {
	return idx.Status() != StatusValid
}
