package docbuilder

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
	selectFunc func(query string) ([]triplestore.Binding, error)
}

func (f *fakeGateway) Select(ctx context.Context, query string, groups config.AllowedGroups) ([]triplestore.Binding, error) {
	return f.selectFunc(query)
}
func (f *fakeGateway) Ask(ctx context.Context, query string, groups config.AllowedGroups) (bool, error) {
	return false, nil
}
func (f *fakeGateway) Update(ctx context.Context, query string, groups config.AllowedGroups) error {
	return nil
}
func (f *fakeGateway) SudoSelect(ctx context.Context, query string) ([]triplestore.Binding, error) {
	return f.selectFunc(query)
}
func (f *fakeGateway) SudoAsk(ctx context.Context, query string) (bool, error) { return false, nil }
func (f *fakeGateway) SudoUpdate(ctx context.Context, query string) error      { return nil }

func literal(v string) rdfmodel.Term {
	return rdfmodel.Term{Type: rdfmodel.TermLiteral, Value: v}
}

func TestBuildSimpleProperty(t *testing.T) {
	model := config.NewModel(map[string]config.TypeDefinition{
		"documents": {
			RDFTypes: []string{"http://example.org/Document"},
			Properties: map[string]config.PropertyDefinition{
				"title": {Kind: config.KindSimple, Path: config.PropertyPath{{Predicate: "http://schema.org/title"}}},
			},
		},
	})

	gw := &fakeGateway{selectFunc: func(query string) ([]triplestore.Binding, error) {
		if strings.Contains(query, "schema.org/title") {
			return []triplestore.Binding{{"v": literal("hello")}}, nil
		}
		return nil, nil
	}}

	b := New(gw, model, nil, "")
	doc, err := b.Build(context.Background(), "http://example.org/s1", "documents", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", doc["title"])
	assert.Nil(t, doc["uuid"])
}

func TestBuildLanguageString(t *testing.T) {
	model := config.NewModel(map[string]config.TypeDefinition{
		"documents": {
			RDFTypes: []string{"http://example.org/Document"},
			Properties: map[string]config.PropertyDefinition{
				"description": {Kind: config.KindLangStr, Path: config.PropertyPath{{Predicate: "http://schema.org/description"}}},
			},
		},
	})

	gw := &fakeGateway{selectFunc: func(query string) ([]triplestore.Binding, error) {
		if strings.Contains(query, "schema.org/description") {
			return []triplestore.Binding{
				{"v": literal("hello"), "lang": literal("en")},
				{"v": literal("bonjour"), "lang": literal("fr")},
				{"v": literal("untagged"), "lang": literal("")},
			}, nil
		}
		return nil, nil
	}}

	b := New(gw, model, nil, "")
	doc, err := b.Build(context.Background(), "http://example.org/s1", "documents", nil)
	require.NoError(t, err)

	buckets, ok := doc["description"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"hello"}, buckets["en"])
	assert.Equal(t, []interface{}{"bonjour"}, buckets["fr"])
	assert.Equal(t, []interface{}{"untagged"}, buckets["default"])
}

func TestBuildCompositeMergesSubDefinitions(t *testing.T) {
	model := config.NewModel(map[string]config.TypeDefinition{
		"combined": {
			CompositeTypes: []string{"documents", "notes"},
		},
		"documents": {
			RDFTypes: []string{"http://example.org/Document"},
			Properties: map[string]config.PropertyDefinition{
				"title": {Kind: config.KindSimple, Path: config.PropertyPath{{Predicate: "http://schema.org/title"}}},
			},
		},
		"notes": {
			RDFTypes: []string{"http://example.org/Note"},
			Properties: map[string]config.PropertyDefinition{
				"body": {Kind: config.KindSimple, Path: config.PropertyPath{{Predicate: "http://schema.org/body"}}},
			},
		},
	})

	gw := &fakeGateway{selectFunc: func(query string) ([]triplestore.Binding, error) {
		switch {
		case strings.Contains(query, "?type"):
			return []triplestore.Binding{{"type": rdfmodel.Term{Type: rdfmodel.TermIRI, Value: "http://example.org/Document"}}}, nil
		case strings.Contains(query, "schema.org/title"):
			return []triplestore.Binding{{"v": literal("hello")}}, nil
		default:
			return nil, nil
		}
	}}

	b := New(gw, model, nil, "")
	doc, err := b.Build(context.Background(), "http://example.org/s1", "combined", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", doc["title"])
	_, hasBody := doc["body"]
	assert.False(t, hasBody)
}
