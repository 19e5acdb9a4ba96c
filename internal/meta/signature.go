package meta

import "strings"

// Signature renders a member's identity within its unit: "name(T1, T2)" for
// methods and constructors, the bare name for fields.
func (m Member) Signature() string {
	if m.Kind == KindField {
		return m.Name
	}
	return m.Name + "(" + strings.Join(m.ParamTypes(), ", ") + ")"
}

// MemberKey returns the qualified identity of m declared by unit.
func MemberKey(unit string, m Member) string {
	return unit + "." + m.Signature()
}

// ParamsKey renders an ordered parameter type list as "[A, B]". The empty
// list renders as "[]". Scan-time and query-time keys both go through here.
func ParamsKey(types []string) string {
	return "[" + strings.Join(types, ", ") + "]"
}

// SplitMemberKey splits a member key into its declaring unit and signature.
// ok is false when key does not look like a member key.
func SplitMemberKey(key string) (unit, signature string, ok bool) {
	end := len(key)
	if i := strings.IndexByte(key, '('); i >= 0 {
		end = i
	}
	dot := strings.LastIndexByte(key[:end], '.')
	if dot <= 0 || dot == len(key)-1 {
		return "", "", false
	}
	return key[:dot], key[dot+1:], true
}

// IsConstructorKey reports whether a member key names a constructor.
func IsConstructorKey(key string) bool {
	_, sig, ok := SplitMemberKey(key)
	return ok && strings.HasPrefix(sig, ConstructorName+"(")
}
