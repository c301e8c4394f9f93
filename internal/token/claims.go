package token

import "time"

// Claims is a parsed claim set from an ID token or userinfo response.
// Immutable once constructed; scoped to one authentication attempt.
type Claims map[string]any

// String returns the named claim as a string, or "" when absent or not a string.
func (c Claims) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// StringList returns the named claim as a list of strings. A bare string
// claim is returned as a one-element list, matching how the OIDC spec allows
// `aud` (and some providers deliver `groups`) as either shape.
func (c Claims) StringList(name string) []string {
	switch v := c[name].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// Time returns the named claim interpreted as a NumericDate (seconds since
// the epoch). ok is false when the claim is absent or not numeric.
func (c Claims) Time(name string) (t time.Time, ok bool) {
	switch v := c[name].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	default:
		return time.Time{}, false
	}
}

// Subject returns the sub claim.
func (c Claims) Subject() string {
	return c.String("sub")
}

// Email returns the email claim.
func (c Claims) Email() string {
	return c.String("email")
}
