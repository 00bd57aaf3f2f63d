package deltarouter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
	"github.com/mu-semtech/delta-indexer/internal/triplestore"
)

type fakeGateway struct {
	sudoSelectFunc func(query string) ([]triplestore.Binding, error)
	queries        []string
}

func (f *fakeGateway) Select(ctx context.Context, query string, groups config.AllowedGroups) ([]triplestore.Binding, error) {
	return nil, nil
}
func (f *fakeGateway) Ask(ctx context.Context, query string, groups config.AllowedGroups) (bool, error) {
	return false, nil
}
func (f *fakeGateway) Update(ctx context.Context, query string, groups config.AllowedGroups) error {
	return nil
}
func (f *fakeGateway) SudoSelect(ctx context.Context, query string) ([]triplestore.Binding, error) {
	f.queries = append(f.queries, query)
	if f.sudoSelectFunc != nil {
		return f.sudoSelectFunc(query)
	}
	return nil, nil
}
func (f *fakeGateway) SudoAsk(ctx context.Context, query string) (bool, error) { return false, nil }
func (f *fakeGateway) SudoUpdate(ctx context.Context, query string) error      { return nil }

func iriTerm(v string) rdfmodel.Term   { return rdfmodel.Term{Type: rdfmodel.TermIRI, Value: v} }
func litTerm(v string) rdfmodel.Term   { return rdfmodel.Term{Type: rdfmodel.TermLiteral, Value: v} }

func testModel() *config.Model {
	return config.NewModel(map[string]config.TypeDefinition{
		"documents": {
			RDFTypes: []string{"http://example.org/Document"},
			Properties: map[string]config.PropertyDefinition{
				"title": {Kind: config.KindSimple, Path: config.PropertyPath{{Predicate: "http://schema.org/title"}}},
				"author": {Kind: config.KindNested, Path: config.PropertyPath{{Predicate: "http://schema.org/author"}},
					Nested: map[string]config.PropertyDefinition{
						"name": {Kind: config.KindSimple, Path: config.PropertyPath{{Predicate: "http://schema.org/name"}}},
					}},
			},
		},
	})
}

func TestRouteRDFTypeInsertEmitsUpdateJob(t *testing.T) {
	gw := &fakeGateway{}
	r := New(testModel(), gw)

	msg := rdfmodel.DeltaMessage{{
		Inserts: []rdfmodel.Triple{
			{Subject: iriTerm("http://example.org/doc1"), Predicate: iriTerm(rdfmodel.RDFTypeIRI), Object: iriTerm("http://example.org/Document")},
		},
	}}

	jobs, err := r.Route(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "http://example.org/doc1", jobs[0].Subject)
	assert.Equal(t, "documents", jobs[0].TypeName)
	assert.Equal(t, rdfmodel.OpUpdate, jobs[0].Op)
}

func TestRouteRDFTypeDeleteEmitsDeleteJob(t *testing.T) {
	gw := &fakeGateway{}
	r := New(testModel(), gw)

	msg := rdfmodel.DeltaMessage{{
		Deletes: []rdfmodel.Triple{
			{Subject: iriTerm("http://example.org/doc1"), Predicate: iriTerm(rdfmodel.RDFTypeIRI), Object: iriTerm("http://example.org/Document")},
		},
	}}

	jobs, err := r.Route(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, rdfmodel.OpDelete, jobs[0].Op)
}

func TestRouteSimplePredicateResolvesRootSubject(t *testing.T) {
	gw := &fakeGateway{sudoSelectFunc: func(query string) ([]triplestore.Binding, error) {
		return []triplestore.Binding{{"s": iriTerm("http://example.org/doc1")}}, nil
	}}
	r := New(testModel(), gw)

	msg := rdfmodel.DeltaMessage{{
		Inserts: []rdfmodel.Triple{
			{Subject: iriTerm("http://example.org/doc1"), Predicate: iriTerm("http://schema.org/title"), Object: litTerm("hello")},
		},
	}}

	jobs, err := r.Route(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "http://example.org/doc1", jobs[0].Subject)
	assert.Equal(t, "documents", jobs[0].TypeName)
	assert.True(t, strings.Contains(gw.queries[0], "FILTER(?type IN"))
}

func TestRouteDiscardsLiteralObjectAtNonTailForwardStep(t *testing.T) {
	gw := &fakeGateway{}
	r := New(testModel(), gw)

	// author's first step is forward and non-tail (author/name); a
	// literal object on the author predicate itself is inconsistent with
	// continuing to traverse name, and must be discarded without a query.
	msg := rdfmodel.DeltaMessage{{
		Inserts: []rdfmodel.Triple{
			{Subject: iriTerm("http://example.org/doc1"), Predicate: iriTerm("http://schema.org/author"), Object: litTerm("not an IRI")},
		},
	}}

	jobs, err := r.Route(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Empty(t, gw.queries)
}

func TestRouteDeleteOmitsTripleAnchorFromQuery(t *testing.T) {
	gw := &fakeGateway{sudoSelectFunc: func(query string) ([]triplestore.Binding, error) {
		return nil, nil
	}}
	r := New(testModel(), gw)

	msg := rdfmodel.DeltaMessage{{
		Deletes: []rdfmodel.Triple{
			{Subject: iriTerm("http://example.org/doc1"), Predicate: iriTerm("http://schema.org/title"), Object: litTerm("hello")},
		},
	}}

	_, err := r.Route(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, gw.queries, 1)
	assert.NotContains(t, gw.queries[0], "schema.org/title> \"hello\"")
}
