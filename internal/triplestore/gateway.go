// Package triplestore implements the Triplestore Gateway (spec §4.2): a
// scoped channel that propagates an authorization-group header on every
// request, and a sudo channel that omits it, both speaking SPARQL 1.1
// Query/Update over HTTP.
//
// Grounded on db/rdf4j.go's client idiom in the teacher codebase: an
// explicit http.Client, fmt.Sprintf-built URLs, explicit status-code
// checks, and a sparqlResponse{Head,Results{Bindings}} decode shape.
package triplestore

import (
	"context"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
)

// Binding is one SPARQL SELECT result row, keyed by variable name without
// the leading '?'.
type Binding map[string]rdfmodel.Term

// Gateway is the Triplestore Gateway contract (spec §4.2). Select/Ask/
// Update on the scoped methods attach the caller's allowed_groups; the
// Sudo variants omit the header entirely for catalog maintenance.
type Gateway interface {
	Select(ctx context.Context, query string, groups config.AllowedGroups) ([]Binding, error)
	Ask(ctx context.Context, query string, groups config.AllowedGroups) (bool, error)
	Update(ctx context.Context, query string, groups config.AllowedGroups) error

	SudoSelect(ctx context.Context, query string) ([]Binding, error)
	SudoAsk(ctx context.Context, query string) (bool, error)
	SudoUpdate(ctx context.Context, query string) error
}
