package updatehandler

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/docbuilder"
	"github.com/mu-semtech/delta-indexer/internal/errs"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
	"github.com/mu-semtech/delta-indexer/internal/registry"
	"github.com/mu-semtech/delta-indexer/internal/searchengine"
	"github.com/mu-semtech/delta-indexer/internal/sparqlquery"
	"github.com/mu-semtech/delta-indexer/internal/triplestore"
)

// Handler applies one UpdateJob to every catalog entry configured for its
// type_name (spec §4.6 "process_job"). It never consults a caller-supplied
// authorization context: each registry entry's own allowed_groups is the
// scope the job is re-checked and rebuilt under, since the job itself
// carries no requester identity.
type Handler struct {
	Registry *registry.Registry
	Model    *config.Model
	Gateway  triplestore.Gateway
	Search   searchengine.Client
	Builder  *docbuilder.Builder
	Logger   *logrus.Entry
}

// NewHandler builds a Handler.
func NewHandler(reg *registry.Registry, model *config.Model, gw triplestore.Gateway, search searchengine.Client, builder *docbuilder.Builder, logger *logrus.Entry) *Handler {
	return &Handler{Registry: reg, Model: model, Gateway: gw, Search: search, Builder: builder, Logger: logger}
}

// Handle re-checks job.Subject's current existence as job.TypeName against
// every catalog entry for that type, then updates or deletes the document
// in each entry's Search-Engine index accordingly (spec §4.6):
//
//   - op=update, exists: build and upsert.
//   - op=update, !exists: the insert this job reacted to has already been
//     superseded by a later delete; skip.
//   - op=delete, !exists: delete the document (idempotent: NotFound is not
//     an error here).
//   - op=delete, exists: the delete has already been superseded by a later
//     insert; skip.
func (h *Handler) Handle(ctx context.Context, job rdfmodel.UpdateJob) error {
	rdfTypes := h.Model.RelatedRDFTypes(job.TypeName)

	for _, idx := range h.Registry.AllForType(job.TypeName) {
		exists, err := h.Gateway.Ask(ctx, sparqlquery.AskAnyType(job.Subject, rdfTypes), idx.AllowedGroups)
		if err != nil {
			h.logf("existence check for %s in %s: %v", job.Subject, idx.Name, err)
			continue
		}

		switch job.Op {
		case rdfmodel.OpUpdate:
			if !exists {
				continue
			}
			doc, err := h.Builder.Build(ctx, job.Subject, job.TypeName, idx.AllowedGroups)
			if err != nil {
				h.logf("build document %s for %s: %v", job.Subject, idx.Name, err)
				continue
			}
			if err := h.Search.UpsertDocument(ctx, idx.Name, job.Subject, doc); err != nil {
				h.logf("upsert document %s into %s: %v", job.Subject, idx.Name, err)
			}

		case rdfmodel.OpDelete:
			if exists {
				continue
			}
			if err := h.Search.DeleteDocument(ctx, idx.Name, job.Subject); err != nil && !errs.IsNotFound(err) {
				h.logf("delete document %s from %s: %v", job.Subject, idx.Name, err)
			}
		}
	}
	return nil
}

func (h *Handler) logf(format string, args ...interface{}) {
	if h.Logger != nil {
		h.Logger.Warnf(format, args...)
	}
}
