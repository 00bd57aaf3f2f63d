// Package deltarouter implements the Delta Router (spec §4.5): turns a
// parsed delta message into zero or more Update Jobs, resolving which
// root resources need reindexing via the root-subject-resolution SPARQL
// queries of internal/sparqlquery.
//
// Root-subject resolution always runs over the sudo channel — it answers
// a structural "which resources are affected" question, not a
// per-authorization-group document query; the Update Handler applies
// group scoping later when it builds documents.
package deltarouter

import (
	"context"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
	"github.com/mu-semtech/delta-indexer/internal/sparqlquery"
	"github.com/mu-semtech/delta-indexer/internal/triplestore"
)

// Router is the Delta Router component.
type Router struct {
	Model   *config.Model
	Gateway triplestore.Gateway
}

// New builds a Router.
func New(model *config.Model, gateway triplestore.Gateway) *Router {
	return &Router{Model: model, Gateway: gateway}
}

// Route processes every changeset of msg into the Update Jobs it implies
// (spec §4.5).
func (r *Router) Route(ctx context.Context, msg rdfmodel.DeltaMessage) ([]rdfmodel.UpdateJob, error) {
	var jobs []rdfmodel.UpdateJob
	for _, cs := range msg {
		inserts := rdfmodel.DedupTriples(cs.Inserts)
		deletes := rdfmodel.DedupTriples(cs.Deletes)

		for _, t := range inserts {
			js, err := r.routeTriple(ctx, t, true)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, js...)
		}
		for _, t := range deletes {
			js, err := r.routeTriple(ctx, t, false)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, js...)
		}
	}
	return jobs, nil
}

func (r *Router) routeTriple(ctx context.Context, t rdfmodel.Triple, isInsert bool) ([]rdfmodel.UpdateJob, error) {
	var configs []string
	if t.Predicate.Value == rdfmodel.RDFTypeIRI {
		configs = r.Model.TypeNamesForRDFType(t.Object.Value)
	} else {
		configs = r.Model.TypeNamesForPredicate(t.Predicate.Value)
	}

	var jobs []rdfmodel.UpdateJob
	for _, typeName := range configs {
		if t.Predicate.Value == rdfmodel.RDFTypeIRI {
			if isInsert {
				jobs = append(jobs, rdfmodel.UpdateJob{Subject: t.Subject.Value, TypeName: typeName, Op: rdfmodel.OpUpdate})
			} else {
				jobs = append(jobs, rdfmodel.UpdateJob{Subject: t.Subject.Value, TypeName: typeName, Op: rdfmodel.OpDelete})
			}
			continue
		}

		subjects, err := r.resolveRootSubjects(ctx, typeName, t, isInsert)
		if err != nil {
			return nil, err
		}
		for _, s := range subjects {
			jobs = append(jobs, rdfmodel.UpdateJob{Subject: s, TypeName: typeName, Op: rdfmodel.OpUpdate})
		}
	}
	return jobs, nil
}

// resolveRootSubjects implements spec §4.5's root-subject resolution: for
// every position the triple's predicate occupies in every flattened
// property path of typeName, build and run the corresponding SPARQL
// query, collecting the ?s results across all positions and paths.
func (r *Router) resolveRootSubjects(ctx context.Context, typeName string, t rdfmodel.Triple, isInsert bool) ([]string, error) {
	rdfTypes := r.Model.RelatedRDFTypes(typeName)

	var subjects []string
	for _, path := range r.Model.FullPropertyPathsContaining(typeName, t.Predicate.Value) {
		for i, step := range path {
			if step.Predicate != t.Predicate.Value {
				continue
			}

			isTail := i == len(path)-1
			if !isTail && !step.Inverse && !t.Object.IsIRI() {
				continue
			}

			prefix := path[:i]
			suffix := path[i+1:]

			anchorSubjectIRI, anchorObjectIRI := anchors(step, t)

			query := sparqlquery.RootSubjectQuery(
				rdfTypes, prefix, suffix,
				anchorSubjectIRI,
				isInsert,
				t.Subject.Value, t.Predicate.Value,
				t.Object,
				anchorObjectIRI,
			)

			bindings, err := r.Gateway.SudoSelect(ctx, query)
			if err != nil {
				return nil, err
			}
			for _, b := range bindings {
				subjects = append(subjects, b["s"].Value)
			}
		}
	}
	return subjects, nil
}

// anchors computes (anchor_subject, anchor_object) per spec §4.5: the
// triple's (subject, object) when the step is forward, swapped when the
// step is inverse.
func anchors(step config.PathStep, t rdfmodel.Triple) (subjectIRI, objectIRI string) {
	if step.Inverse {
		return t.Object.Value, t.Subject.Value
	}
	return t.Subject.Value, t.Object.Value
}
