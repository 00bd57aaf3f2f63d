package sparqlquery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
)

func TestSelectDistinctAlongPath(t *testing.T) {
	path := config.PropertyPath{{Predicate: "http://schema.org/name"}}
	q := SelectDistinctAlongPath("http://example.org/s1", path)
	assert.Contains(t, q, "SELECT DISTINCT ?v")
	assert.Contains(t, q, "<http://example.org/s1>")
	assert.Contains(t, q, "<http://schema.org/name>")
}

func TestPathStringInverse(t *testing.T) {
	path := config.PropertyPath{
		{Predicate: "http://schema.org/author", Inverse: true},
		{Predicate: "http://schema.org/name"},
	}
	got := pathString(path)
	assert.Equal(t, "^<http://schema.org/author>/<http://schema.org/name>", got)
}

func TestSelectLanguageBucketed(t *testing.T) {
	path := config.PropertyPath{{Predicate: "http://schema.org/description"}}
	q := SelectLanguageBucketed("http://example.org/s1", path)
	assert.Contains(t, q, "?v ?lang")
	assert.Contains(t, q, "BIND(LANG(?v) AS ?lang)")
}

func TestAskType(t *testing.T) {
	q := AskType("http://example.org/s1", "http://example.org/Document")
	assert.Equal(t, "ASK { <http://example.org/s1> a <http://example.org/Document> }", q)
}

func TestRootSubjectQuery_InsertWithPrefixAndSuffix(t *testing.T) {
	rdfTypes := []string{"http://example.org/Document"}
	prefix := config.PropertyPath{{Predicate: "http://schema.org/part"}}
	suffix := config.PropertyPath{{Predicate: "http://schema.org/tag"}}
	obj := rdfmodel.Term{Type: rdfmodel.TermIRI, Value: "http://example.org/o1"}

	q := RootSubjectQuery(
		rdfTypes, prefix, suffix,
		"http://example.org/anchor-subj",
		true,
		"http://example.org/triple-subj", "http://schema.org/author",
		obj,
		"http://example.org/anchor-obj",
	)

	assert.Contains(t, q, "FILTER(?type IN (<http://example.org/Document>))")
	assert.Contains(t, q, "?s <http://schema.org/part> <http://example.org/anchor-subj> .")
	assert.Contains(t, q, "<http://example.org/triple-subj> <http://schema.org/author> <http://example.org/o1> .")
	assert.Contains(t, q, "<http://example.org/anchor-obj> <http://schema.org/tag> ?foo .")
}

func TestRootSubjectQuery_DeleteOmitsAnchors(t *testing.T) {
	rdfTypes := []string{"http://example.org/Document"}
	suffix := config.PropertyPath{{Predicate: "http://schema.org/tag"}}
	obj := rdfmodel.Term{Type: rdfmodel.TermLiteral, Value: "ignored"}

	q := RootSubjectQuery(
		rdfTypes, nil, suffix,
		"http://example.org/anchor-subj",
		false,
		"", "",
		obj,
		"",
	)

	assert.Contains(t, q, "VALUES ?s { <http://example.org/anchor-subj> }")
	assert.NotContains(t, q, "?foo")
}
