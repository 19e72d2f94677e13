package domain

// Bundle keys the store interprets. Everything else is opaque payload.
const (
	BundleKeyUser    = "user"
	BundleKeyAvatars = "avatars"
)

// Bundle is one role's portal document: a JSON tree of maps, slices and
// scalars as produced by encoding/json.
type Bundle map[string]any

// Clone returns a deep copy so callers never share nested maps or slices
// with the store's cache.
func (b Bundle) Clone() Bundle {
	if b == nil {
		return nil
	}
	out := make(Bundle, len(b))
	for k, v := range b {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Bundle:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	case map[string]string:
		m := make(map[string]string, len(t))
		for k, inner := range t {
			m[k] = inner
		}
		return m
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// User decodes the embedded "user" object. ok is false when the field is
// missing or not an object.
func (b Bundle) User() (u User, ok bool) {
	m := b.userMap()
	if m == nil {
		return User{}, false
	}
	return User{
		Identifier: stringField(m, "identifier"),
		Name:       stringField(m, "name"),
		Email:      stringField(m, "email"),
		Title:      stringField(m, "title"),
		Avatar:     stringField(m, "avatar"),
		Role:       Role(stringField(m, "role")),
	}, true
}

// Avatars returns a copy of the email → avatar side-table.
func (b Bundle) Avatars() map[string]string {
	out := map[string]string{}
	switch t := b[BundleKeyAvatars].(type) {
	case map[string]any:
		for email, v := range t {
			if s, ok := v.(string); ok {
				out[email] = s
			}
		}
	case map[string]string:
		for email, s := range t {
			out[email] = s
		}
	}
	return out
}

// ApplyAvatarOverride replaces user.avatar with the side-table entry for
// user.email. Reports whether the document changed.
func (b Bundle) ApplyAvatarOverride() bool {
	m := b.userMap()
	if m == nil {
		return false
	}
	email := stringField(m, "email")
	if email == "" {
		return false
	}
	avatar, ok := b.Avatars()[email]
	if !ok || avatar == "" || avatar == stringField(m, "avatar") {
		return false
	}
	m["avatar"] = avatar
	return true
}

// RecordAvatar writes user.avatar into avatars[user.email], creating the
// side-table when needed. An empty avatar removes the entry so a later load
// cannot bring the old one back. Users without an email are ignored.
func (b Bundle) RecordAvatar() {
	m := b.userMap()
	if m == nil {
		return
	}
	email, avatar := stringField(m, "email"), stringField(m, "avatar")
	if email == "" {
		return
	}
	if avatar == "" {
		switch t := b[BundleKeyAvatars].(type) {
		case map[string]any:
			delete(t, email)
		case map[string]string:
			delete(t, email)
		}
		return
	}
	switch t := b[BundleKeyAvatars].(type) {
	case map[string]any:
		t[email] = avatar
	case map[string]string:
		t[email] = avatar
	default:
		b[BundleKeyAvatars] = map[string]any{email: avatar}
	}
}

func (b Bundle) userMap() map[string]any {
	switch t := b[BundleKeyUser].(type) {
	case map[string]any:
		return t
	case Bundle:
		return t
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
