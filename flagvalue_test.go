package rollgate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFlagDescriptorMap_MixedTypes(t *testing.T) {
	body := []byte(`{
		"bool-flag": {"value": true},
		"num-flag": {"value": 3.5},
		"str-flag": {"value": "on"},
		"map-flag": {"value": {"nested": 1}}
	}`)

	flags, err := decodeFlagDescriptorMap(body)
	require.NoError(t, err)
	require.Len(t, flags, 4)

	b, ok := flags["bool-flag"].AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	n, ok := flags["num-flag"].AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 3.5, n)

	s, ok := flags["str-flag"].AsString()
	assert.True(t, ok)
	assert.Equal(t, "on", s)

	assert.Equal(t, FlagValueMap, flags["map-flag"].Kind)
}

func TestDecodeFlagDescriptorMap_MalformedBodyErrors(t *testing.T) {
	_, err := decodeFlagDescriptorMap([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodePatchDescriptor_SingleEntry(t *testing.T) {
	key, value, err := decodePatchDescriptor([]byte(`{"my-flag": {"value": "patched"}}`))
	require.NoError(t, err)
	assert.Equal(t, "my-flag", key)
	s, ok := value.AsString()
	assert.True(t, ok)
	assert.Equal(t, "patched", s)
}

func TestDecodePatchDescriptor_EmptyObjectReturnsErrEmptyPatch(t *testing.T) {
	_, _, err := decodePatchDescriptor([]byte(`{}`))
	assert.ErrorIs(t, err, errEmptyPatch)
}

func TestFlagValue_AsXMismatchReturnsFalse(t *testing.T) {
	v := StringValue("hello")

	_, ok := v.AsBool()
	assert.False(t, ok)

	_, ok = v.AsNumber()
	assert.False(t, ok)

	s, ok := v.AsString()
	assert.True(t, ok)
	assert.Equal(t, "hello", s)
}

func TestToFlagValue_UnrecognizedTypeIsAbsent(t *testing.T) {
	v := toFlagValue(nil)
	assert.Equal(t, FlagValueAbsent, v.Kind)
}
