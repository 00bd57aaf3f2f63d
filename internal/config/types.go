// Package config defines the typed Config Model (spec §4.1) and the
// loader that reads it from a YAML file overlaid with environment
// variables, in the style of config/config.go (EnvConfig) and cli/root.go's
// viper setup in the teacher codebase. CLI flags do not override
// configuration keys.
package config

// PropertyKind tags the variant a PropertyDefinition carries.
type PropertyKind string

const (
	KindSimple    PropertyKind = "simple"
	KindLangStr   PropertyKind = "language-string"
	KindAttach    PropertyKind = "attachment"
	KindNested    PropertyKind = "nested"
)

// PathStep is one predicate hop of a property path: a forward IRI, or an
// inverse-marked IRI (spec §3: "each either a forward IRI or an
// inverse-marked IRI").
type PathStep struct {
	Predicate string
	Inverse   bool
}

// String renders the step the way property paths are usually written:
// "^iri" for inverse, "iri" for forward.
func (s PathStep) String() string {
	if s.Inverse {
		return "^" + s.Predicate
	}
	return s.Predicate
}

// PropertyPath is an ordered sequence of predicate steps from a document
// root to a value.
type PropertyPath []PathStep

// PropertyDefinition is the tagged variant over simple / language-string /
// attachment / nested property kinds (spec §3/§9 "Config polymorphism").
type PropertyDefinition struct {
	Kind PropertyKind
	Path PropertyPath

	// Nested carries the inner property map; only meaningful when
	// Kind == KindNested.
	Nested map[string]PropertyDefinition
}

// TypeDefinition is one configured index type (spec §3).
type TypeDefinition struct {
	Name       string
	RDFTypes   []string
	Properties map[string]PropertyDefinition

	// CompositeTypes, when non-empty, names sibling type_names whose
	// documents are smart-merged to form this index's documents.
	CompositeTypes []string

	Mappings map[string]interface{}
	Settings map[string]interface{}
}

// IsComposite reports whether this type fuses multiple RDF types.
func (t TypeDefinition) IsComposite() bool { return len(t.CompositeTypes) > 0 }

// AllowedGroup is one authorization-group descriptor: a group name plus the
// variable bindings that parameterize it (spec §3 glossary).
type AllowedGroup struct {
	Name      string            `json:"name"`
	Variables map[string]string `json:"variables,omitempty"`
}

// AllowedGroups is an order-independent authorization-group set. Use
// CanonicalKey for identity/name-generation purposes.
type AllowedGroups []AllowedGroup

// Settings holds the process-wide recognized configuration keys (spec §6).
type Settings struct {
	TypeDefinitions      map[string]TypeDefinition
	PersistIndexes       bool
	AdditiveIndexes      bool
	EagerIndexingGroups  []AllowedGroups
	NumberOfThreads      int
	BatchSize            int
	MaxBatches           int
	AttachmentPathBase   string
	DefaultIndexSettings map[string]interface{}
	MaximumFileSize      int64

	// Ambient/domain keys (SPEC_FULL §4.8), not in the original spec's
	// recognized-key table but required to run the service.
	LogLevel         string
	LogFormat        string
	TriplestoreURL   string
	SearchEngineURL  string
	TextExtractorURL string
	HTTPListenAddr   string
	AMQPURL          string
	RedisURL         string
	CacheBase        string
}
