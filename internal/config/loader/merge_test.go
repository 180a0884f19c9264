package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"display": map[string]any{"verbose": false, "output": "stdout"},
		"trace":   map[string]any{"max_depth": int64(8)},
	}
	src := map[string]any{
		"display":  map[string]any{"verbose": true},
		"handlers": []any{"x"},
		"trace":    "flat",
	}

	got := DeepMerge(dst, src)
	assert.Equal(t, map[string]any{
		"display":  map[string]any{"verbose": true, "output": "stdout"},
		"handlers": []any{"x"},
		"trace":    "flat",
	}, got)

	assert.Equal(t, map[string]any{"a": 1}, DeepMerge(nil, map[string]any{"a": 1}))
	assert.Equal(t, map[string]any{"a": 1}, DeepMerge(map[string]any{"a": 1}, nil))
}

func TestClone(t *testing.T) {
	src := map[string]any{
		"handlers": []any{map[string]any{"id": "a"}},
		"display":  map[string]any{"verbose": true},
	}
	dst := Clone(src)
	dst["display"].(map[string]any)["verbose"] = false
	dst["handlers"].([]any)[0].(map[string]any)["id"] = "b"

	assert.Equal(t, true, src["display"].(map[string]any)["verbose"])
	assert.Equal(t, "a", src["handlers"].([]any)[0].(map[string]any)["id"])
	assert.Nil(t, Clone(nil))
}

func TestGetByPath(t *testing.T) {
	data := map[string]any{"a": map[string]any{"b": 2}}

	v, ok := GetByPath(data, "a.b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = GetByPath(data, "a.c")
	assert.False(t, ok)
	_, ok = GetByPath(data, "a.b.c")
	assert.False(t, ok)
}
