package rollgate

import (
	"encoding/base64"
	"encoding/json"
	"sort"
)

// User identifies the evaluation context sent to the server. Key is
// required; everything else is optional. Custom holds arbitrary
// per-application attributes as typed flag values so they round-trip
// through the same JSON encoding the server expects.
type User struct {
	Key                   string
	Anonymous             bool
	Secondary             string
	IP                    string
	FirstName             string
	LastName              string
	Email                 string
	Name                  string
	Avatar                string
	Custom                map[string]FlagValue
	PrivateAttributeNames []string
}

// NewUser creates a User with only Key set.
func NewUser(key string) *User {
	return &User{Key: key}
}

// userJSON is the canonical wire representation of a User. Fields are
// omitted when unset so the encoded payload only ever contains
// attributes the caller actually supplied.
type userJSON struct {
	Key          string         `json:"key"`
	Anonymous    bool           `json:"anonymous,omitempty"`
	Secondary    string         `json:"secondary,omitempty"`
	IP           string         `json:"ip,omitempty"`
	FirstName    string         `json:"firstName,omitempty"`
	LastName     string         `json:"lastName,omitempty"`
	Email        string         `json:"email,omitempty"`
	Name         string         `json:"name,omitempty"`
	Avatar       string         `json:"avatar,omitempty"`
	Custom       map[string]any `json:"custom,omitempty"`
	PrivateAttrs []string       `json:"privateAttrs,omitempty"`
}

// flagValueToAny converts a FlagValue back to a plain JSON-marshalable
// value for embedding in the canonical user document.
func flagValueToAny(v FlagValue) any {
	switch v.Kind {
	case FlagValueBool:
		return v.Bool
	case FlagValueNumber:
		return v.Num
	case FlagValueString:
		return v.Str
	case FlagValueMap:
		m := make(map[string]any, len(v.Map))
		for k, val := range v.Map {
			m[k] = flagValueToAny(val)
		}
		return m
	default:
		return nil
	}
}

// encodeCanonicalJSON builds the canonical JSON document for user: key
// plus every set attribute, with private attributes redacted according
// to config. When AllAttributesPrivate is set every built-in string
// attribute the user supplied is stripped (key, anonymous and custom
// are kept); otherwise the
// stripped set is the intersection of the user's own
// PrivateAttributeNames and the config's PrivateAttributeNames. Stripped
// attribute names are recorded under "privateAttrs" so the server can
// tell a redaction occurred.
func encodeCanonicalJSON(u *User, cfg Config) ([]byte, error) {
	if u == nil {
		u = NewUser("")
	}

	private := map[string]bool{}
	if cfg.AllAttributesPrivate {
		private["secondary"] = true
		private["ip"] = true
		private["firstName"] = true
		private["lastName"] = true
		private["email"] = true
		private["name"] = true
		private["avatar"] = true
	} else {
		userPrivate := map[string]bool{}
		for _, n := range u.PrivateAttributeNames {
			userPrivate[n] = true
		}
		for _, n := range cfg.PrivateAttributeNames {
			if userPrivate[n] {
				private[n] = true
			}
		}
	}

	doc := userJSON{Key: u.Key, Anonymous: u.Anonymous}
	var stripped []string

	setOrStrip := func(name string, value string, assign func()) {
		if value == "" {
			return
		}
		if private[name] {
			stripped = append(stripped, name)
			return
		}
		assign()
	}

	setOrStrip("secondary", u.Secondary, func() { doc.Secondary = u.Secondary })
	setOrStrip("ip", u.IP, func() { doc.IP = u.IP })
	setOrStrip("firstName", u.FirstName, func() { doc.FirstName = u.FirstName })
	setOrStrip("lastName", u.LastName, func() { doc.LastName = u.LastName })
	setOrStrip("email", u.Email, func() { doc.Email = u.Email })
	setOrStrip("name", u.Name, func() { doc.Name = u.Name })
	setOrStrip("avatar", u.Avatar, func() { doc.Avatar = u.Avatar })

	if len(u.Custom) > 0 {
		doc.Custom = make(map[string]any, len(u.Custom))
		for k, v := range u.Custom {
			doc.Custom[k] = flagValueToAny(v)
		}
	}

	if len(stripped) > 0 {
		sort.Strings(stripped)
		doc.PrivateAttrs = stripped
	}

	return json.Marshal(doc)
}

// EncodeForURL serializes user to canonical JSON, then URL-safe
// base64-encodes the UTF-8 bytes for embedding in a request path.
func EncodeForURL(u *User, cfg Config) (string, error) {
	body, err := encodeCanonicalJSON(u, cfg)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(body), nil
}

// EncodeForBody returns the canonical JSON bytes without base64
// encoding, for REPORT requests that carry the user in the body.
func EncodeForBody(u *User, cfg Config) ([]byte, error) {
	return encodeCanonicalJSON(u, cfg)
}
