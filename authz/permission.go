package authz

import "strings"

type (
	role string

	// wildcardPermission is a descriptor of colon-delimited parts,
	// each a comma-delimited set of subparts, where "*" matches any
	// subpart and missing trailing parts on the holder side imply
	// everything beneath them
	wildcardPermission struct {
		desc  string
		parts []map[string]struct{}
	}
)

const (
	partDivider    = ":"
	subpartDivider = ","
	wildcard       = "*"
)

var _ Role = (*role)(nil)

func NewRole(name string) Role {
	return role(name)
}

func (r role) Desc() string {
	return string(r)
}

func (r role) Implies(other Role) bool {
	return r.Desc() == other.Desc()
}

var _ Permission = (*wildcardPermission)(nil)

func NewPermission(descriptor string) Permission {
	descriptor = strings.TrimSpace(descriptor)

	p := &wildcardPermission{desc: descriptor}
	if len(descriptor) == 0 {
		return p
	}

	for _, part := range strings.Split(strings.ToLower(descriptor), partDivider) {
		subparts := make(map[string]struct{})
		for _, subpart := range strings.Split(part, subpartDivider) {
			subpart = strings.TrimSpace(subpart)
			if len(subpart) != 0 {
				subparts[subpart] = struct{}{}
			}
		}
		p.parts = append(p.parts, subparts)
	}

	return p
}

func (p *wildcardPermission) Desc() string {
	return p.desc
}

func (p *wildcardPermission) Implies(other Permission) bool {
	wp, ok := other.(*wildcardPermission)
	if !ok {
		return p.Desc() == other.Desc()
	}

	if len(p.parts) == 0 || len(wp.parts) == 0 {
		return false
	}

	for i, requested := range wp.parts {
		// the holder ran out of parts: everything beneath the
		// matched prefix is implied
		if i >= len(p.parts) {
			return true
		}

		if !impliesPart(p.parts[i], requested) {
			return false
		}
	}

	// extra holder parts must all be wildcards
	for i := len(wp.parts); i < len(p.parts); i++ {
		if _, ok := p.parts[i][wildcard]; !ok || len(p.parts[i]) != 1 {
			return false
		}
	}

	return true
}

func impliesPart(held, requested map[string]struct{}) bool {
	if _, ok := held[wildcard]; ok {
		return true
	}

	for subpart := range requested {
		if subpart == wildcard {
			return false
		}
		if _, ok := held[subpart]; !ok {
			return false
		}
	}

	return true
}
