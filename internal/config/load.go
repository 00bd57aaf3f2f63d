package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mu-semtech/delta-indexer/internal/errs"
)

// Loader reads Settings from a YAML file overlaid with environment
// variables, with env > file > default precedence, in the prefixed-env-var
// lookup style of config/config.go's EnvConfig in the teacher codebase. No
// CLI flag is bound to a configuration key; the only flag, --config, names
// the file.
type Loader struct {
	v      *viper.Viper
	prefix string
}

// NewLoader creates a Loader with the given environment variable prefix
// (e.g. "DELTAINDEXER" yields DELTAINDEXER_REDIS_URL).
func NewLoader(prefix string) *Loader {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return &Loader{v: v, prefix: prefix}
}

// BindFile registers a config file path to read (YAML, JSON, TOML or
// properties, by extension — matching the formats cli/root.go documents).
func (l *Loader) BindFile(path string) {
	l.v.SetConfigFile(path)
}

// Load reads the bound config file (if any), applies defaults, and
// decodes it into a Settings value. A missing or malformed config file is
// a fatal ConfigError (spec §7: startup aborts on ConfigError).
func (l *Loader) Load() (*Settings, error) {
	l.applyDefaults()

	if l.v.ConfigFileUsed() != "" || fileBound(l.v) {
		if err := l.v.ReadInConfig(); err != nil {
			return nil, errs.NewConfigError("reading config file", err)
		}
	}

	settings := &Settings{
		PersistIndexes:       l.v.GetBool("persist_indexes"),
		AdditiveIndexes:      l.v.GetBool("additive_indexes"),
		NumberOfThreads:      l.v.GetInt("number_of_threads"),
		BatchSize:            l.v.GetInt("batch_size"),
		MaxBatches:           l.v.GetInt("max_batches"),
		AttachmentPathBase:   l.v.GetString("attachment_path_base"),
		MaximumFileSize:      l.v.GetInt64("maximum_file_size"),
		DefaultIndexSettings: l.v.GetStringMap("default_index_settings"),
		LogLevel:             l.v.GetString("log_level"),
		LogFormat:            l.v.GetString("log_format"),
		TriplestoreURL:       l.v.GetString("triplestore_url"),
		SearchEngineURL:      l.v.GetString("search_engine_url"),
		TextExtractorURL:     l.v.GetString("text_extractor_url"),
		HTTPListenAddr:       l.v.GetString("http_listen_addr"),
		AMQPURL:              l.v.GetString("amqp_url"),
		RedisURL:             l.v.GetString("redis_url"),
		CacheBase:            l.v.GetString("cache_base"),
	}

	defsRaw, ok := l.v.Get("type_definitions").(map[string]interface{})
	if !ok && l.v.Get("type_definitions") != nil {
		return nil, errs.NewConfigError("type_definitions must be a map", nil)
	}
	defs, err := decodeTypeDefinitions(defsRaw)
	if err != nil {
		return nil, errs.NewConfigError("decoding type_definitions", err)
	}
	settings.TypeDefinitions = defs

	groups, err := decodeGroupSets(l.v.Get("eager_indexing_groups"))
	if err != nil {
		return nil, errs.NewConfigError("decoding eager_indexing_groups", err)
	}
	settings.EagerIndexingGroups = groups

	if err := validate(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

func fileBound(v *viper.Viper) bool {
	return v.ConfigFileUsed() != ""
}

func (l *Loader) applyDefaults() {
	l.v.SetDefault("persist_indexes", true)
	l.v.SetDefault("additive_indexes", false)
	l.v.SetDefault("number_of_threads", 4)
	l.v.SetDefault("batch_size", 100)
	l.v.SetDefault("max_batches", 8)
	l.v.SetDefault("maximum_file_size", 20*1024*1024)
	l.v.SetDefault("log_level", "info")
	l.v.SetDefault("log_format", "text")
	l.v.SetDefault("http_listen_addr", ":8888")
	l.v.SetDefault("cache_base", "/data/extracted-text-cache")
}

// validate checks the structural invariants a malformed config could
// violate (spec §7: ConfigError is fatal).
func validate(s *Settings) error {
	for name, def := range s.TypeDefinitions {
		if len(def.RDFTypes) == 0 && !def.IsComposite() {
			return errs.NewConfigError(fmt.Sprintf("type %q has no rdf_types and is not composite", name), nil)
		}
		for _, sibling := range def.CompositeTypes {
			if _, ok := s.TypeDefinitions[sibling]; !ok {
				return errs.NewConfigError(fmt.Sprintf("type %q references undefined composite sibling %q", name, sibling), nil)
			}
		}
	}
	return nil
}

// decodeTypeDefinitions converts the generic YAML-decoded map into typed
// TypeDefinitions, walking PropertyDefinition's recursive shape by hand
// (viper/mapstructure cannot express the simple/language-string/
// attachment/nested tagged union directly).
func decodeTypeDefinitions(raw map[string]interface{}) (map[string]TypeDefinition, error) {
	out := make(map[string]TypeDefinition, len(raw))
	for name, v := range raw {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("type %q: expected a map", name)
		}
		def := TypeDefinition{Name: name}

		def.RDFTypes = toStringSlice(m["rdf_types"])
		def.CompositeTypes = toStringSlice(m["composite_types"])

		if mp, ok := m["mappings"].(map[string]interface{}); ok {
			def.Mappings = mp
		}
		if st, ok := m["settings"].(map[string]interface{}); ok {
			def.Settings = st
		}

		propsRaw, _ := m["properties"].(map[string]interface{})
		props, err := decodeProperties(propsRaw)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", name, err)
		}
		def.Properties = props

		out[name] = def
	}
	return out, nil
}

func decodeProperties(raw map[string]interface{}) (map[string]PropertyDefinition, error) {
	out := make(map[string]PropertyDefinition, len(raw))
	for field, v := range raw {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("property %q: expected a map", field)
		}
		def, err := decodeProperty(m)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", field, err)
		}
		out[field] = def
	}
	return out, nil
}

func decodeProperty(m map[string]interface{}) (PropertyDefinition, error) {
	kind := KindSimple
	if raw, ok := m["kind"]; ok && raw != nil {
		kind = PropertyKind(fmt.Sprint(raw))
	}
	switch kind {
	case KindSimple, KindLangStr, KindAttach, KindNested:
	default:
		return PropertyDefinition{}, fmt.Errorf("unknown property kind %q", kind)
	}

	path, err := decodePath(m["path"])
	if err != nil {
		return PropertyDefinition{}, err
	}

	def := PropertyDefinition{Kind: kind, Path: path}

	if kind == KindNested {
		nestedRaw, _ := m["properties"].(map[string]interface{})
		nested, err := decodeProperties(nestedRaw)
		if err != nil {
			return PropertyDefinition{}, err
		}
		def.Nested = nested
	}

	return def, nil
}

// decodePath accepts either a single predicate string or a list of steps,
// each either "iri" (forward) or "^iri" (inverse).
func decodePath(raw interface{}) (PropertyPath, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return PropertyPath{parseStep(v)}, nil
	case []interface{}:
		path := make(PropertyPath, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("path step must be a string, got %T", item)
			}
			path = append(path, parseStep(s))
		}
		return path, nil
	default:
		return nil, fmt.Errorf("path must be a string or list of strings, got %T", raw)
	}
}

func parseStep(s string) PathStep {
	if strings.HasPrefix(s, "^") {
		return PathStep{Predicate: strings.TrimPrefix(s, "^"), Inverse: true}
	}
	return PathStep{Predicate: s}
}

func toStringSlice(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}

// decodeGroupSets decodes eager_indexing_groups: a list of allowed-group
// sets, each a list of {name, variables} objects.
func decodeGroupSets(raw interface{}) ([]AllowedGroups, error) {
	list, ok := raw.([]interface{})
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("eager_indexing_groups must be a list")
	}

	out := make([]AllowedGroups, 0, len(list))
	for _, setRaw := range list {
		setList, ok := setRaw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("each eager_indexing_groups entry must be a list of groups")
		}
		groups := make(AllowedGroups, 0, len(setList))
		for _, gRaw := range setList {
			gm, ok := gRaw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("each group must be a map")
			}
			g := AllowedGroup{Name: fmt.Sprint(gm["name"])}
			if vars, ok := gm["variables"].(map[string]interface{}); ok {
				g.Variables = make(map[string]string, len(vars))
				for k, v := range vars {
					g.Variables[k] = fmt.Sprint(v)
				}
			}
			groups = append(groups, g)
		}
		out = append(out, groups)
	}
	return out, nil
}

// EnvDuration reads a duration-valued environment variable, matching
// config/config.go's EnvConfig.GetDuration helper in the teacher codebase;
// used for the shutdown grace period (SPEC_FULL §4.12).
func EnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// EnvInt reads an int-valued environment variable.
func EnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
