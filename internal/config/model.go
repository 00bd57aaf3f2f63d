package config

// Model is the queryable view over all configured type definitions (spec
// §4.1). It is the Config Model component.
type Model struct {
	types map[string]TypeDefinition
}

// NewModel builds a Model from the type_definitions configuration map.
func NewModel(defs map[string]TypeDefinition) *Model {
	m := &Model{types: make(map[string]TypeDefinition, len(defs))}
	for name, def := range defs {
		def.Name = name
		m.types[name] = def
	}
	return m
}

// Lookup returns the named type definition.
func (m *Model) Lookup(typeName string) (TypeDefinition, bool) {
	d, ok := m.types[typeName]
	return d, ok
}

// All returns every configured type definition.
func (m *Model) All() map[string]TypeDefinition {
	return m.types
}

// flattenedPaths walks a property map and yields every property path
// reachable from the root, composing nested paths as it goes — this is the
// "paths are flattened so that a predicate appearing inside a nested
// property yields a single concatenated path from document root" rule of
// spec §4.1.
func flattenedPaths(props map[string]PropertyDefinition) []PropertyPath {
	var out []PropertyPath
	for _, def := range props {
		if def.Kind == KindNested {
			for _, sub := range flattenedPaths(def.Nested) {
				full := make(PropertyPath, 0, len(def.Path)+len(sub))
				full = append(full, def.Path...)
				full = append(full, sub...)
				out = append(out, full)
			}
			continue
		}
		out = append(out, def.Path)
	}
	return out
}

// subDefinitions returns the resolved TypeDefinitions for a composite
// type's sibling type_names.
func (m *Model) subDefinitions(t TypeDefinition) []TypeDefinition {
	subs := make([]TypeDefinition, 0, len(t.CompositeTypes))
	for _, name := range t.CompositeTypes {
		if d, ok := m.types[name]; ok {
			subs = append(subs, d)
		}
	}
	return subs
}

// MatchesType reports whether iri is one of typeName's rdf_types (or, for
// a composite index, one of any constituent sub-definition's rdf_types).
func (m *Model) MatchesType(typeName, iri string) bool {
	for _, rt := range m.RelatedRDFTypes(typeName) {
		if rt == iri {
			return true
		}
	}
	return false
}

// MatchesProperty reports whether iri (forward) or ^iri (inverse) appears
// at any position of any flattened property path of typeName.
func (m *Model) MatchesProperty(typeName, iri string) bool {
	for _, path := range m.FullPropertyPaths(typeName) {
		for _, step := range path {
			if step.Predicate == iri {
				return true
			}
		}
	}
	return false
}

// FullPropertyPaths returns every flattened property path configured for
// typeName, including those of a composite index's sub-definitions.
func (m *Model) FullPropertyPaths(typeName string) []PropertyPath {
	t, ok := m.types[typeName]
	if !ok {
		return nil
	}
	if t.IsComposite() {
		var all []PropertyPath
		for _, sub := range m.subDefinitions(t) {
			all = append(all, flattenedPaths(sub.Properties)...)
		}
		return all
	}
	return flattenedPaths(t.Properties)
}

// FullPropertyPathsContaining returns every flattened path of typeName that
// contains predicate, at any position, forward or inverse.
func (m *Model) FullPropertyPathsContaining(typeName, predicate string) []PropertyPath {
	var matches []PropertyPath
	for _, path := range m.FullPropertyPaths(typeName) {
		for _, step := range path {
			if step.Predicate == predicate {
				matches = append(matches, path)
				break
			}
		}
	}
	return matches
}

// RelatedRDFTypes returns every rdf_type considered authoritative for
// typeName's membership: its own rdf_types, plus (for a composite index)
// every sub-definition's rdf_types.
func (m *Model) RelatedRDFTypes(typeName string) []string {
	t, ok := m.types[typeName]
	if !ok {
		return nil
	}
	if !t.IsComposite() {
		return t.RDFTypes
	}
	all := append([]string(nil), t.RDFTypes...)
	for _, sub := range m.subDefinitions(t) {
		all = append(all, sub.RDFTypes...)
	}
	return all
}

// IsCompositeIndex reports whether typeName fuses multiple RDF types.
func (m *Model) IsCompositeIndex(typeName string) bool {
	t, ok := m.types[typeName]
	return ok && t.IsComposite()
}

// CompositeSubDefinitions returns the resolved sibling TypeDefinitions for
// a composite index.
func (m *Model) CompositeSubDefinitions(typeName string) []TypeDefinition {
	t, ok := m.types[typeName]
	if !ok {
		return nil
	}
	return m.subDefinitions(t)
}

// TypeNamesForRDFType returns every configured type_name whose rdf_types
// (directly, or via composite sub-definitions) include iri. Used by the
// Delta Router to resolve rdf:type triples to applicable configs.
func (m *Model) TypeNamesForRDFType(iri string) []string {
	var names []string
	for name := range m.types {
		for _, rt := range m.RelatedRDFTypes(name) {
			if rt == iri {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

// TypeNamesForPredicate returns every configured type_name whose flattened
// property paths mention predicate (forward or inverse).
func (m *Model) TypeNamesForPredicate(predicate string) []string {
	var names []string
	for name := range m.types {
		if m.MatchesProperty(name, predicate) {
			names = append(names, name)
		}
	}
	return names
}

// WithUUIDDefault augments a property map with a default uuid ->
// <core/uuid> property if the caller hasn't configured one explicitly,
// matching spec §4.3's "(augmented with uuid → <core/uuid> if absent)".
func WithUUIDDefault(props map[string]PropertyDefinition) map[string]PropertyDefinition {
	const corePredicate = "http://mu.semte.ch/vocabularies/core/uuid"
	if _, ok := props["uuid"]; ok {
		return props
	}
	out := make(map[string]PropertyDefinition, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	out["uuid"] = PropertyDefinition{
		Kind: KindSimple,
		Path: PropertyPath{{Predicate: corePredicate}},
	}
	return out
}
