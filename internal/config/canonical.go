package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// CanonicalKey returns the canonical, order-independent stringification of
// an allowed-groups set (spec §3 "Authorization Group Key"): groups sorted
// by name (groups sharing a name by their serialized variables), variables
// sorted by key, joined deterministically.
func (g AllowedGroups) CanonicalKey() string {
	type entry struct{ name, vars string }
	entries := make([]entry, 0, len(g))
	for _, grp := range g {
		varKeys := make([]string, 0, len(grp.Variables))
		for k := range grp.Variables {
			varKeys = append(varKeys, k)
		}
		sort.Strings(varKeys)

		var vb strings.Builder
		for _, k := range varKeys {
			vb.WriteByte('|')
			vb.WriteString(k)
			vb.WriteByte('=')
			vb.WriteString(grp.Variables[k])
		}
		entries = append(entries, entry{name: grp.Name, vars: vb.String()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].name != entries[j].name {
			return entries[i].name < entries[j].name
		}
		return entries[i].vars < entries[j].vars
	})

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(e.name)
		b.WriteString(e.vars)
	}
	return b.String()
}

// IndexName computes the deterministic Search-Engine index name for a
// (type_name, allowed_groups) pair: a hash over the type name and the
// canonical allowed-groups serialization (spec §3 "Index.name").
//
// used_groups is intentionally not part of this computation — spec §9
// records this as an observed (possibly unintentional) property of the
// source's generate_index_name and asks us to mirror it rather than guess,
// see DESIGN.md.
func IndexName(typeName string, groups AllowedGroups) string {
	sum := sha256.Sum256([]byte(typeName + "\x00" + groups.CanonicalKey()))
	return typeName + "-" + hex.EncodeToString(sum[:])[:16]
}

// Subsets returns one singleton AllowedGroups per element of g, used by
// the Index Registry's additive_indexes fan-out (spec §4.4
// fetch_indexes_for).
func (g AllowedGroups) Subsets() []AllowedGroups {
	out := make([]AllowedGroups, 0, len(g))
	for _, grp := range g {
		out = append(out, AllowedGroups{grp})
	}
	return out
}
