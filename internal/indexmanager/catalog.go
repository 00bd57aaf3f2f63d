package indexmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/registry"
)

// Catalog persistence vocabulary (spec §6 "Catalog persistence").
const (
	AuthorizationGraph    = "http://mu.semte.ch/graphs/authorization"
	ElasticsearchIndexIRI = "http://mu.semte.ch/vocabularies/search/ElasticsearchIndex"
	ObjectTypePredicate   = "http://mu.semte.ch/vocabularies/search/objectType"
	IndexNamePredicate    = "http://mu.semte.ch/vocabularies/search/indexName"
	UUIDPredicate         = "http://mu.semte.ch/vocabularies/core/uuid"
	AllowedGroupPredicate = "http://mu.semte.ch/vocabularies/search/hasAllowedGroup"
	UsedGroupPredicate    = "http://mu.semte.ch/vocabularies/search/hasUsedGroup"
)

// persistIndex writes (or overwrites) idx's catalog row via a sudo query
// (spec §6: catalog maintenance bypasses authorization).
func (m *Manager) persistIndex(ctx context.Context, idx *registry.Index) error {
	if err := m.deleteCatalogEntry(ctx, idx.URI); err != nil {
		return err
	}

	var b strings.Builder
	uuid := idx.URI[strings.LastIndex(idx.URI, "/")+1:]
	fmt.Fprintf(&b, "INSERT DATA { GRAPH <%s> {\n", AuthorizationGraph)
	fmt.Fprintf(&b, "  <%s> a <%s> ;\n", idx.URI, ElasticsearchIndexIRI)
	fmt.Fprintf(&b, "    <%s> %q ;\n", UUIDPredicate, uuid)
	fmt.Fprintf(&b, "    <%s> %q ;\n", ObjectTypePredicate, idx.TypeName)
	fmt.Fprintf(&b, "    <%s> %q .\n", IndexNamePredicate, idx.Name)

	for _, g := range idx.AllowedGroups {
		encoded, err := json.Marshal(g)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "  <%s> <%s> %q .\n", idx.URI, AllowedGroupPredicate, string(encoded))
	}
	for _, g := range idx.UsedGroups {
		encoded, err := json.Marshal(g)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "  <%s> <%s> %q .\n", idx.URI, UsedGroupPredicate, string(encoded))
	}
	b.WriteString("} }")

	return m.Gateway.SudoUpdate(ctx, b.String())
}

// deleteCatalogEntry removes every triple about uri from the
// authorization graph.
func (m *Manager) deleteCatalogEntry(ctx context.Context, uri string) error {
	query := fmt.Sprintf(
		"DELETE WHERE { GRAPH <%s> { <%s> ?p ?o . } }",
		AuthorizationGraph, uri,
	)
	return m.Gateway.SudoUpdate(ctx, query)
}

type catalogRow struct {
	URI, UUID, ObjectType, IndexName string
}

// loadCatalog reconstructs every persisted Index from the triplestore
// catalog (spec §4.4 "initialize(): if persist_indexes, load catalog from
// triplestore") and restores it into the registry in the invalid status
// (no status is persisted) — a reload always forces a state check, it
// never trusts a stale "valid" claim across a process restart.
func (m *Manager) loadCatalog(ctx context.Context) error {
	rows, err := m.selectCatalogRows(ctx)
	if err != nil {
		return err
	}

	for _, row := range rows {
		allowed, err := m.selectGroupLiterals(ctx, row.URI, AllowedGroupPredicate)
		if err != nil {
			return err
		}
		used, err := m.selectGroupLiterals(ctx, row.URI, UsedGroupPredicate)
		if err != nil {
			return err
		}
		m.Registry.Restore(&registry.Index{
			URI:           row.URI,
			Name:          row.IndexName,
			TypeName:      row.ObjectType,
			AllowedGroups: allowed,
			UsedGroups:    used,
		})
	}
	return nil
}

func (m *Manager) selectCatalogRows(ctx context.Context) ([]catalogRow, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ?uri ?uuid ?objectType ?indexName WHERE {
  GRAPH <%s> {
    ?uri a <%s> ;
      <%s> ?uuid ;
      <%s> ?objectType ;
      <%s> ?indexName .
  }
}`, AuthorizationGraph, ElasticsearchIndexIRI, UUIDPredicate, ObjectTypePredicate, IndexNamePredicate)

	bindings, err := m.Gateway.SudoSelect(ctx, query)
	if err != nil {
		return nil, err
	}

	rows := make([]catalogRow, 0, len(bindings))
	for _, b := range bindings {
		rows = append(rows, catalogRow{
			URI:        b["uri"].Value,
			UUID:       b["uuid"].Value,
			ObjectType: b["objectType"].Value,
			IndexName:  b["indexName"].Value,
		})
	}
	return rows, nil
}

func (m *Manager) selectGroupLiterals(ctx context.Context, indexURI, predicate string) (config.AllowedGroups, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT ?g WHERE { GRAPH <%s> { <%s> <%s> ?g . } }",
		AuthorizationGraph, indexURI, predicate,
	)
	bindings, err := m.Gateway.SudoSelect(ctx, query)
	if err != nil {
		return nil, err
	}

	groups := make(config.AllowedGroups, 0, len(bindings))
	for _, b := range bindings {
		var g config.AllowedGroup
		if err := json.Unmarshal([]byte(b["g"].Value), &g); err != nil {
			continue
		}
		groups = append(groups, g)
	}
	return groups, nil
}
