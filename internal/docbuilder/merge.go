package docbuilder

import (
	"errors"

	"github.com/mu-semtech/delta-indexer/internal/errs"
)

// SmartMerge recursively combines two document maps per spec §4.3.1. nil
// on either side yields the other; list+list concatenates and
// deduplicates; list+scalar appends and deduplicates; map+map recurses;
// scalar+scalar becomes a two-element deduplicated list. Any other
// combination is an irreconcilable MergeConflict — this also covers the
// unreachable branch spec §9 notes in the source's smart_merge (a guard
// that can never be true there is simply absorbed into this fallthrough).
func SmartMerge(a, b map[string]interface{}) (map[string]interface{}, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}

	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, bv := range b {
		av, ok := out[k]
		if !ok {
			out[k] = bv
			continue
		}
		merged, err := mergeValue(av, bv)
		if err != nil {
			return nil, errs.NewMergeConflict(k)
		}
		out[k] = merged
	}
	return out, nil
}

func mergeValue(a, b interface{}) (interface{}, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}

	aList, aIsList := a.([]interface{})
	bList, bIsList := b.([]interface{})
	aMap, aIsMap := a.(map[string]interface{})
	bMap, bIsMap := b.(map[string]interface{})

	switch {
	case aIsList && bIsList:
		return dedup(append(append([]interface{}{}, aList...), bList...)), nil
	case aIsList && !bIsMap:
		return dedup(append(append([]interface{}{}, aList...), b)), nil
	case bIsList && !aIsMap:
		return dedup(append([]interface{}{a}, bList...)), nil
	case aIsMap && bIsMap:
		merged, err := SmartMerge(aMap, bMap)
		if err != nil {
			return nil, err
		}
		return merged, nil
	case !aIsList && !bIsList && !aIsMap && !bIsMap:
		return dedup([]interface{}{a, b}), nil
	default:
		return nil, errMergeConflict
	}
}

var errMergeConflict = errors.New("merge conflict")

func dedup(values []interface{}) []interface{} {
	seen := make(map[interface{}]struct{}, len(values))
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		if !isComparable(v) {
			out = append(out, v)
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func isComparable(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return false
	default:
		return true
	}
}

// Denumerate collapses a value list per spec §4.3.2: empty -> nil,
// singleton -> the element, otherwise the list unchanged.
func Denumerate(values []interface{}) interface{} {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		return values
	}
}
