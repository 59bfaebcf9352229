package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Accessors(t *testing.T) {
	s, ok := String("hello").AsString()
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	i, ok := Int(42).AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)

	f, ok := Float(3.5).AsFloat()
	assert.True(t, ok)
	assert.InDelta(t, 3.5, f, 1e-9)

	m, ok := Map(Metadata{"k": String("v")}).AsMap()
	assert.True(t, ok)
	assert.Len(t, m, 1)

	// Kind mismatches report false.
	_, ok = Int(42).AsString()
	assert.False(t, ok)
	_, ok = String("x").AsInt()
	assert.False(t, ok)
}

func TestValue_ZeroValueIsEmptyString(t *testing.T) {
	// The zero Value reads as an empty string; absent map keys therefore
	// need the empty-string check, not just the ok flag.
	var v Value
	assert.Equal(t, KindString, v.Kind())

	s, ok := v.AsString()
	assert.True(t, ok)
	assert.Empty(t, s)
}

func TestFromMap_TypeMapping(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind Kind
	}{
		{"string", "text", KindString},
		{"bool", true, KindBool},
		{"int", 7, KindInt},
		{"int64", int64(7), KindInt},
		{"whole float collapses to int", float64(3), KindInt},
		{"fractional float", 3.25, KindFloat},
		{"nested map", map[string]any{"a": "b"}, KindMap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := FromMap(map[string]any{"k": tt.in})
			assert.Equal(t, tt.kind, md["k"].Kind())
		})
	}
}

func TestFromMap_Nil(t *testing.T) {
	assert.Nil(t, FromMap(nil))
	assert.Nil(t, Metadata(nil).ToMap())
}

func TestMetadata_JSONRoundTrip(t *testing.T) {
	md := Metadata{
		"title": String("Notes"),
		"pages": Int(12),
		"draft": Bool(false),
		"score": Float(0.25),
		"nested": Map(Metadata{
			"path": String("/tmp/notes.txt"),
		}),
	}

	data, err := json.Marshal(md)
	require.NoError(t, err)

	var back Metadata
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, md["title"], back["title"])
	assert.Equal(t, md["pages"], back["pages"])
	assert.Equal(t, md["draft"], back["draft"])
	assert.Equal(t, md["score"], back["score"])

	nested, ok := back["nested"].AsMap()
	require.True(t, ok)
	assert.Equal(t, String("/tmp/notes.txt"), nested["path"])
}

func TestMetadata_Clone(t *testing.T) {
	original := Metadata{
		"title":  String("doc"),
		"nested": Map(Metadata{"k": String("v")}),
	}

	clone := original.Clone()
	nested, ok := clone["nested"].AsMap()
	require.True(t, ok)
	nested["k"] = String("changed")

	// Mutating the clone's nested map leaves the original intact.
	originalNested, _ := original["nested"].AsMap()
	assert.Equal(t, String("v"), originalNested["k"])
}
