package docbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmartMergeNilSide(t *testing.T) {
	b := map[string]interface{}{"x": 1}
	merged, err := SmartMerge(nil, b)
	require.NoError(t, err)
	assert.Equal(t, b, merged)

	merged, err = SmartMerge(b, nil)
	require.NoError(t, err)
	assert.Equal(t, b, merged)
}

func TestSmartMergeListPlusList(t *testing.T) {
	a := map[string]interface{}{"tags": []interface{}{"x", "y"}}
	b := map[string]interface{}{"tags": []interface{}{"y", "z"}}
	merged, err := SmartMerge(a, b)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"x", "y", "z"}, merged["tags"])
}

func TestSmartMergeListPlusScalar(t *testing.T) {
	a := map[string]interface{}{"tags": []interface{}{"x"}}
	b := map[string]interface{}{"tags": "x"}
	merged, err := SmartMerge(a, b)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"x"}, merged["tags"])
}

func TestSmartMergeMapPlusMap(t *testing.T) {
	a := map[string]interface{}{"nested": map[string]interface{}{"a": 1}}
	b := map[string]interface{}{"nested": map[string]interface{}{"b": 2}}
	merged, err := SmartMerge(a, b)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, merged["nested"])
}

func TestSmartMergeScalarPlusScalar(t *testing.T) {
	a := map[string]interface{}{"title": "en"}
	b := map[string]interface{}{"title": "fr"}
	merged, err := SmartMerge(a, b)
	require.NoError(t, err)
	assert.ElementsMatch(t, []interface{}{"en", "fr"}, merged["title"])
}

func TestSmartMergeScalarPlusScalarDedups(t *testing.T) {
	a := map[string]interface{}{"title": "en"}
	b := map[string]interface{}{"title": "en"}
	merged, err := SmartMerge(a, b)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"en"}, merged["title"])
}

func TestSmartMergeMapPlusScalarConflicts(t *testing.T) {
	a := map[string]interface{}{"x": map[string]interface{}{"a": 1}}
	b := map[string]interface{}{"x": "scalar"}
	_, err := SmartMerge(a, b)
	assert.Error(t, err)
}

func TestDenumerate(t *testing.T) {
	assert.Nil(t, Denumerate(nil))
	assert.Nil(t, Denumerate([]interface{}{}))
	assert.Equal(t, "only", Denumerate([]interface{}{"only"}))
	assert.Equal(t, []interface{}{"a", "b"}, Denumerate([]interface{}{"a", "b"}))
}
