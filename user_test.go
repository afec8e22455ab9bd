package rollgate

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeForURL_RoundTripsBase64(t *testing.T) {
	u := NewUser("user-1")
	u.Email = "a@example.com"

	encoded, err := EncodeForURL(u, DefaultConfig("k"))
	require.NoError(t, err)

	decoded, err := base64.URLEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(decoded, &doc))
	assert.Equal(t, "user-1", doc["key"])
	assert.Equal(t, "a@example.com", doc["email"])
}

func TestEncodeCanonicalJSON_AllAttributesPrivate(t *testing.T) {
	u := NewUser("user-1")
	u.Email = "a@example.com"
	u.Name = "Ada"

	cfg := DefaultConfig("k")
	cfg.AllAttributesPrivate = true

	body, err := EncodeForBody(u, cfg)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.NotContains(t, doc, "email")
	assert.NotContains(t, doc, "name")
	assert.ElementsMatch(t, []any{"email", "name"}, doc["privateAttrs"])
}

func TestEncodeCanonicalJSON_PrivateAttributeIntersection(t *testing.T) {
	u := NewUser("user-1")
	u.Email = "a@example.com"
	u.Name = "Ada"
	u.PrivateAttributeNames = []string{"email"}

	cfg := DefaultConfig("k")
	cfg.PrivateAttributeNames = []string{"email", "avatar"}

	body, err := EncodeForBody(u, cfg)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.NotContains(t, doc, "email")
	assert.Equal(t, "Ada", doc["name"])
	assert.Equal(t, []any{"email"}, doc["privateAttrs"])
}

func TestEncodeCanonicalJSON_CustomAttributesRoundTrip(t *testing.T) {
	u := NewUser("user-1")
	u.Custom = map[string]FlagValue{"plan": StringValue("pro"), "seats": NumberValue(5)}

	body, err := EncodeForBody(u, DefaultConfig("k"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	custom := doc["custom"].(map[string]any)
	assert.Equal(t, "pro", custom["plan"])
	assert.Equal(t, float64(5), custom["seats"])
}
