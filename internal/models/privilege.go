package models

import "sort"

// Privilege is one role in a user's privilege set.
type Privilege string

const (
	PrivilegeNormal      Privilege = "normal"
	PrivilegeAdmin       Privilege = "admin"
	PrivilegeSuper       Privilege = "super"
	PrivilegeRoot        Privilege = "root"
	PrivilegeDev         Privilege = "dev"
	PrivilegeFreezed     Privilege = "freezed"
	PrivilegeBlacklisted Privilege = "blacklisted"
)

var knownPrivileges = map[Privilege]bool{
	PrivilegeNormal: true, PrivilegeAdmin: true, PrivilegeSuper: true, PrivilegeRoot: true,
	PrivilegeDev: true, PrivilegeFreezed: true, PrivilegeBlacklisted: true,
}

// Staff can issue judgements. Elevated can additionally kill.
var (
	StaffPrivileges    = []Privilege{PrivilegeAdmin, PrivilegeSuper, PrivilegeRoot, PrivilegeDev}
	ElevatedPrivileges = []Privilege{PrivilegeSuper, PrivilegeRoot}
	// RestrictedPrivileges may not report, reply or appeal.
	RestrictedPrivileges = []Privilege{PrivilegeFreezed, PrivilegeBlacklisted}
)

// IsKnown reports whether p belongs to the role vocabulary.
func (p Privilege) IsKnown() bool {
	return knownPrivileges[p]
}

// PrivilegeSet is a finite set of privileges.
type PrivilegeSet map[Privilege]struct{}

// NewPrivilegeSet builds a set from ps. An empty input yields {normal}.
func NewPrivilegeSet(ps ...Privilege) PrivilegeSet {
	s := make(PrivilegeSet, len(ps))
	for _, p := range ps {
		s[p] = struct{}{}
	}
	if len(s) == 0 {
		s[PrivilegeNormal] = struct{}{}
	}
	return s
}

// ParsePrivileges converts stored strings into a set.
func ParsePrivileges(values []string) PrivilegeSet {
	ps := make([]Privilege, 0, len(values))
	for _, v := range values {
		ps = append(ps, Privilege(v))
	}
	return NewPrivilegeSet(ps...)
}

func (s PrivilegeSet) Has(p Privilege) bool {
	_, ok := s[p]
	return ok
}

// HasAny reports whether s holds at least one of ps.
func (s PrivilegeSet) HasAny(ps ...Privilege) bool {
	for _, p := range ps {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// Grant returns the set after adding p:
//   - granting blacklisted replaces everything with {blacklisted};
//   - granting anything but freezed to a freezed or blacklisted user lifts both;
//   - granting a staff role drops normal.
func (s PrivilegeSet) Grant(p Privilege) PrivilegeSet {
	if p == PrivilegeBlacklisted {
		return NewPrivilegeSet(PrivilegeBlacklisted)
	}
	out := s.clone()
	if out.HasAny(RestrictedPrivileges...) && p != PrivilegeFreezed {
		delete(out, PrivilegeBlacklisted)
		delete(out, PrivilegeFreezed)
	}
	out[p] = struct{}{}
	for _, staff := range StaffPrivileges {
		if p == staff {
			delete(out, PrivilegeNormal)
			break
		}
	}
	return out
}

// Revoke returns the set without p. Revoking the last privilege leaves {normal}.
func (s PrivilegeSet) Revoke(p Privilege) PrivilegeSet {
	out := s.clone()
	delete(out, p)
	if len(out) == 0 {
		out[PrivilegeNormal] = struct{}{}
	}
	return out
}

// Strings returns the sorted privilege names, suitable for a text[] column.
func (s PrivilegeSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

func (s PrivilegeSet) clone() PrivilegeSet {
	out := make(PrivilegeSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}
