package auth

import (
	"sort"
	"strings"
)

// RolePrefix is the canonical prefix carried by every stored role name.
const RolePrefix = "ROLE_"

// Canonical role names known to the system.
const (
	RoleUser       = "ROLE_USER"
	RoleAdmin      = "ROLE_ADMIN"
	RoleSuperAdmin = "ROLE_SUPERADMIN"
)

// CanonicalRole normalizes a raw role string to its canonical form:
// uppercase and ROLE_-prefixed. It is total and idempotent; callers may
// pass either bare ("admin") or prefixed ("ROLE_ADMIN") input.
func CanonicalRole(raw string) string {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if !strings.HasPrefix(name, RolePrefix) {
		name = RolePrefix + name
	}
	return name
}

// DisplayRole strips the canonical prefix for user-facing responses.
func DisplayRole(name string) string {
	return strings.TrimPrefix(name, RolePrefix)
}

// RoleSet is a deduplicated set of canonical role names.
type RoleSet map[string]struct{}

// NewRoleSet builds a RoleSet from raw role strings, canonicalizing each.
func NewRoleSet(names ...string) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add canonicalizes and inserts a role name.
func (s RoleSet) Add(name string) {
	s[CanonicalRole(name)] = struct{}{}
}

// Contains reports whether the set holds the given role (canonicalized first).
func (s RoleSet) Contains(name string) bool {
	_, ok := s[CanonicalRole(name)]
	return ok
}

// Intersects reports whether the two sets share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	small, large := s, other
	if len(other) < len(s) {
		small, large = other, s
	}
	for name := range small {
		if _, ok := large[name]; ok {
			return true
		}
	}
	return false
}

// Slice returns the canonical role names in sorted order.
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Display returns the role names in sorted order with the prefix stripped.
func (s RoleSet) Display() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, DisplayRole(name))
	}
	sort.Strings(out)
	return out
}

// ResolveRegistrationRoles maps the role identifiers accepted at registration
// to canonical roles. The mapping is closed: SUPERADMIN and ADMIN (bare or
// prefixed, any case) resolve to their canonical roles, anything else falls
// back to ROLE_USER. An empty request yields the base role.
func ResolveRegistrationRoles(requested []string) RoleSet {
	if len(requested) == 0 {
		return NewRoleSet(RoleUser)
	}
	s := make(RoleSet, len(requested))
	for _, r := range requested {
		switch CanonicalRole(r) {
		case RoleSuperAdmin:
			s[RoleSuperAdmin] = struct{}{}
		case RoleAdmin:
			s[RoleAdmin] = struct{}{}
		default:
			s[RoleUser] = struct{}{}
		}
	}
	return s
}
