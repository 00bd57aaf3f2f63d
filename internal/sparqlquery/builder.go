// Package sparqlquery builds the SPARQL query strings the Document
// Builder and Delta Router need, in the fmt.Sprintf/backtick-template
// style db/rdf4j.go uses for its repository-config Turtle bodies in the
// teacher codebase.
package sparqlquery

import (
	"fmt"
	"strings"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
)

// iri wraps a value in angle brackets for inline use in a query body.
func iri(v string) string { return "<" + v + ">" }

// pathString renders a flattened property path as a SPARQL property path
// expression: forward steps as "<p>", inverse steps as "^<p>", joined by
// "/".
func pathString(path config.PropertyPath) string {
	steps := make([]string, len(path))
	for i, s := range path {
		if s.Inverse {
			steps[i] = "^" + iri(s.Predicate)
		} else {
			steps[i] = iri(s.Predicate)
		}
	}
	return strings.Join(steps, "/")
}

// SelectDistinctAlongPath builds the "simple" property query of spec
// §4.3: SELECT DISTINCT ?v along path from uri.
func SelectDistinctAlongPath(uri string, path config.PropertyPath) string {
	return fmt.Sprintf(
		"SELECT DISTINCT ?v WHERE { %s %s ?v . }",
		iri(uri), pathString(path),
	)
}

// SelectLanguageBucketed builds the "language-string" property query of
// spec §4.3: values paired with their language tag.
func SelectLanguageBucketed(uri string, path config.PropertyPath) string {
	return fmt.Sprintf(
		"SELECT DISTINCT ?v ?lang WHERE { %s %s ?v . BIND(LANG(?v) AS ?lang) }",
		iri(uri), pathString(path),
	)
}

// SelectRelatedIRIs builds the "nested"/"attachment" property query: the
// related resource IRIs reachable via path from uri.
func SelectRelatedIRIs(uri string, path config.PropertyPath) string {
	return SelectDistinctAlongPath(uri, path)
}

// AskType builds the Update Handler's existence check (spec §4.6):
// ASK { <subject> a <rdf_type> }.
func AskType(subject, rdfType string) string {
	return fmt.Sprintf("ASK { %s a %s }", iri(subject), iri(rdfType))
}

// AskAnyType builds the existence check for a type definition carrying
// more than one rdf_type (composite indexes, or a type configured with
// several related_rdf_types): ASK { <subject> a ?type . FILTER(?type IN
// (...)) }.
func AskAnyType(subject string, rdfTypes []string) string {
	typeList := make([]string, len(rdfTypes))
	for i, t := range rdfTypes {
		typeList[i] = iri(t)
	}
	return fmt.Sprintf(
		"ASK { %s a ?type . FILTER(?type IN (%s)) }",
		iri(subject), strings.Join(typeList, ", "),
	)
}

// SelectResourceTypes builds the composite-index rdf:type lookup of spec
// §4.3 step 1: the rdf:types asserted of uri.
func SelectResourceTypes(uri string) string {
	return fmt.Sprintf("SELECT DISTINCT ?type WHERE { %s a ?type . }", iri(uri))
}

// RootSubjectQuery builds one root-subject-resolution query of spec §4.5
// for a single (prefix, suffix) split of a matching property path.
//
// anchorSubject/anchorObject are the triple's subject/object swapped
// according to the step's direction (forward: subject=triple.subject,
// object=triple.object; inverse: swapped) — the caller computes this
// swap and passes the already-resolved anchors in.
func RootSubjectQuery(
	rdfTypes []string,
	prefix, suffix config.PropertyPath,
	anchorSubjectIRI string,
	includeTripleAnchor bool,
	tripleSubject, triplePredicate string,
	tripleObject rdfmodel.Term,
	anchorObjectIRI string,
) string {
	typeList := make([]string, len(rdfTypes))
	for i, t := range rdfTypes {
		typeList[i] = iri(t)
	}

	var b strings.Builder
	b.WriteString("SELECT DISTINCT ?s WHERE {\n")
	fmt.Fprintf(&b, "  ?s a ?type . FILTER(?type IN (%s)) .\n", strings.Join(typeList, ", "))

	if len(prefix) > 0 {
		fmt.Fprintf(&b, "  ?s %s %s .\n", pathString(prefix), iri(anchorSubjectIRI))
	} else {
		fmt.Fprintf(&b, "  VALUES ?s { %s }\n", iri(anchorSubjectIRI))
	}

	if includeTripleAnchor {
		fmt.Fprintf(&b, "  %s %s %s .\n", iri(tripleSubject), iri(triplePredicate), tripleObject.LexicalForm())
		if len(suffix) > 0 {
			fmt.Fprintf(&b, "  %s %s ?foo .\n", iri(anchorObjectIRI), pathString(suffix))
		}
	}

	b.WriteString("}")
	return b.String()
}
