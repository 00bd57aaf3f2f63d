// Package docbuilder implements the Document Builder (spec §4.3): it
// turns a resource IRI plus an index's type definition into the JSON
// document the Search Engine indexes, dispatching per property kind and
// fusing composite-index sub-documents via smart-merge.
//
// Grounded on db/repository/composite.go's multi-source merge pattern in
// the teacher codebase, generalized from "merge records from several
// repositories" to "merge per-sub-type documents of the same resource".
package docbuilder

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
	"github.com/mu-semtech/delta-indexer/internal/sparqlquery"
	"github.com/mu-semtech/delta-indexer/internal/textextract"
	"github.com/mu-semtech/delta-indexer/internal/triplestore"
)

// AttachmentShareScheme is the IRI scheme attachment file references use
// on the wire, stripped before joining to the filesystem attachment base
// (mu-semtech's file-service convention).
const AttachmentShareScheme = "share://"

// Builder is the Document Builder component.
type Builder struct {
	Gateway        triplestore.Gateway
	Model          *config.Model
	Cache          *textextract.Cache
	AttachmentBase string
}

// New builds a Builder.
func New(gateway triplestore.Gateway, model *config.Model, cache *textextract.Cache, attachmentBase string) *Builder {
	return &Builder{Gateway: gateway, Model: model, Cache: cache, AttachmentBase: attachmentBase}
}

// Build produces the document for uri under typeName, scoped to groups
// (spec §4.3 "build(uri, index_definition, auth) -> Document").
func (b *Builder) Build(ctx context.Context, uri, typeName string, groups config.AllowedGroups) (map[string]interface{}, error) {
	typeDef, ok := b.Model.Lookup(typeName)
	if !ok {
		return nil, nil
	}

	if typeDef.IsComposite() {
		return b.buildComposite(ctx, uri, typeDef, groups)
	}
	return b.buildFields(ctx, uri, config.WithUUIDDefault(typeDef.Properties), groups)
}

// buildComposite builds one document per sub-definition whose rdf_types
// intersect uri's asserted rdf:types, and smart-merges them (spec §4.3
// step 1).
func (b *Builder) buildComposite(ctx context.Context, uri string, typeDef config.TypeDefinition, groups config.AllowedGroups) (map[string]interface{}, error) {
	bindings, err := b.Gateway.Select(ctx, sparqlquery.SelectResourceTypes(uri), groups)
	if err != nil {
		return nil, err
	}
	resourceTypes := make(map[string]struct{}, len(bindings))
	for _, row := range bindings {
		resourceTypes[row["type"].Value] = struct{}{}
	}

	var merged map[string]interface{}
	for _, sub := range b.Model.CompositeSubDefinitions(typeDef.Name) {
		if !intersects(sub.RDFTypes, resourceTypes) {
			continue
		}
		doc, err := b.buildFields(ctx, uri, config.WithUUIDDefault(sub.Properties), groups)
		if err != nil {
			return nil, err
		}
		merged, err = SmartMerge(merged, doc)
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}

func intersects(types []string, have map[string]struct{}) bool {
	for _, t := range types {
		if _, ok := have[t]; ok {
			return true
		}
	}
	return false
}

// buildFields dispatches every (field, property) pair of props against
// uri, producing the field's JSON value (spec §4.3 step 2).
func (b *Builder) buildFields(ctx context.Context, uri string, props map[string]config.PropertyDefinition, groups config.AllowedGroups) (map[string]interface{}, error) {
	doc := make(map[string]interface{}, len(props))
	for field, prop := range props {
		value, err := b.buildField(ctx, uri, prop, groups)
		if err != nil {
			return nil, err
		}
		doc[field] = value
	}
	return doc, nil
}

func (b *Builder) buildField(ctx context.Context, uri string, prop config.PropertyDefinition, groups config.AllowedGroups) (interface{}, error) {
	switch prop.Kind {
	case config.KindLangStr:
		return b.buildLanguageString(ctx, uri, prop, groups)
	case config.KindAttach:
		return b.buildAttachment(ctx, uri, prop, groups)
	case config.KindNested:
		return b.buildNested(ctx, uri, prop, groups)
	default:
		return b.buildSimple(ctx, uri, prop, groups)
	}
}

func (b *Builder) buildSimple(ctx context.Context, uri string, prop config.PropertyDefinition, groups config.AllowedGroups) (interface{}, error) {
	bindings, err := b.Gateway.Select(ctx, sparqlquery.SelectDistinctAlongPath(uri, prop.Path), groups)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, 0, len(bindings))
	for _, row := range bindings {
		values = append(values, rdfmodel.CoerceLiteral(row["v"]).Value())
	}
	return Denumerate(values), nil
}

func (b *Builder) buildLanguageString(ctx context.Context, uri string, prop config.PropertyDefinition, groups config.AllowedGroups) (interface{}, error) {
	bindings, err := b.Gateway.Select(ctx, sparqlquery.SelectLanguageBucketed(uri, prop.Path), groups)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]interface{})
	for _, row := range bindings {
		lang := row["lang"].Value
		if lang == "" {
			lang = "default"
		}
		existing, _ := buckets[lang].([]interface{})
		buckets[lang] = append(existing, row["v"].Value)
	}

	return Denumerate([]interface{}{buckets}), nil
}

func (b *Builder) buildAttachment(ctx context.Context, uri string, prop config.PropertyDefinition, groups config.AllowedGroups) (interface{}, error) {
	bindings, err := b.Gateway.Select(ctx, sparqlquery.SelectRelatedIRIs(uri, prop.Path), groups)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, 0, len(bindings))
	for _, row := range bindings {
		path := b.resolveAttachmentPath(row["v"].Value)
		var content interface{}
		if text := b.Cache.Get(ctx, path); text != nil {
			content = *text
		}
		values = append(values, map[string]interface{}{"content": content})
	}
	return Denumerate(values), nil
}

func (b *Builder) buildNested(ctx context.Context, uri string, prop config.PropertyDefinition, groups config.AllowedGroups) (interface{}, error) {
	bindings, err := b.Gateway.Select(ctx, sparqlquery.SelectRelatedIRIs(uri, prop.Path), groups)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, 0, len(bindings))
	for _, row := range bindings {
		relatedIRI := row["v"].Value
		nested, err := b.buildFields(ctx, relatedIRI, prop.Nested, groups)
		if err != nil {
			return nil, err
		}
		nested["uri"] = relatedIRI
		values = append(values, nested)
	}
	return Denumerate(values), nil
}

// resolveAttachmentPath strips the share:// scheme and joins the
// remainder to the configured attachment base (spec §6 "Filesystem
// layout").
func (b *Builder) resolveAttachmentPath(fileIRI string) string {
	stripped := strings.TrimPrefix(fileIRI, AttachmentShareScheme)
	return filepath.Join(b.AttachmentBase, stripped)
}
