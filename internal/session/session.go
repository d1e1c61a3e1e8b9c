package session

// Session is the application state carried in the signed cookie. The codec
// enforces no schema, but only these value shapes decode back to the same Go
// types: string, bool, int64, float64, []byte, nil, []any and map[string]any,
// nested freely. Other integer kinds come back as int64, other slices as []any
// and other string-keyed maps (including Session) as map[string]any.
type Session map[string]any

// Well-known keys written by the connect handlers.
const (
	KeyCurrentUser = "current_user"
	KeyCredentials = "credentials"
)

// New returns an empty session.
func New() Session {
	return Session{}
}

// String returns the string stored under key, or "" when absent or not a string.
func (s Session) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Map returns the nested map stored under key.
func (s Session) Map(key string) (map[string]any, bool) {
	switch v := s[key].(type) {
	case map[string]any:
		return v, true
	case Session:
		return v, true
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// Clear sets every key to nil, keeping the keys themselves.
func (s Session) Clear(keys ...string) {
	for _, k := range keys {
		s[k] = nil
	}
}
