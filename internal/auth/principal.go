package auth

// Principal represents the authenticated identity attached to a request:
// the token subject plus its normalized authority set. Immutable once
// constructed; its lifetime is the request that decoded it.
type Principal struct {
	Subject     string
	Authorities RoleSet
}

// HasAuthority reports whether the principal holds the given role.
func (p *Principal) HasAuthority(role string) bool {
	return p.Authorities.Contains(role)
}

// NewPrincipal builds a principal from a subject and raw role strings,
// normalizing the roles into a canonical authority set.
func NewPrincipal(subject string, roles []string) *Principal {
	return &Principal{
		Subject:     subject,
		Authorities: NewRoleSet(roles...),
	}
}
