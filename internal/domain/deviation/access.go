package deviation

import "strings"

// Role is a session user's permission level.
type Role string

const (
	RoleOrdinary         Role = "ordinary"
	RoleApprover         Role = "approver"
	RoleCentralOversight Role = "central-oversight"
)

// ParseRole maps a raw profile string from the users list onto a Role.
// The store carries the legacy Portuguese labels.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "aprovador", "approver":
		return RoleApprover
	case "torre", "central-oversight":
		return RoleCentralOversight
	default:
		return RoleOrdinary
	}
}

// BypassesAreaFilter reports whether the role sees every event regardless of
// assigned areas.
func (r Role) BypassesAreaFilter() bool {
	return r == RoleApprover || r == RoleCentralOversight
}

// CanApprove reports whether the role may approve or reject events.
func (r Role) CanApprove() bool {
	return r.BypassesAreaFilter()
}

// User is a logged-in session identity. Role and areas are immutable for the
// session once loaded; areas come pre-lowercased and trimmed.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
	Areas []string
}

// NormalizeAreas splits a raw assigned-areas value on ";" and newlines,
// lowercasing and trimming each entry.
func NormalizeAreas(raw string) []string {
	var areas []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == '\n'
	}) {
		area := strings.ToLower(strings.TrimSpace(part))
		if area != "" {
			areas = append(areas, area)
		}
	}
	return areas
}

// AreaGrantsAccess implements the deliberately permissive bidirectional
// substring match between an assigned area and an event's POI: either side
// containing the other (case-insensitively) grants access. No assigned areas
// means no access.
func AreaGrantsAccess(poi string, areas []string) bool {
	target := strings.ToLower(strings.TrimSpace(poi))
	for _, area := range areas {
		if area == "" {
			continue
		}
		if strings.Contains(target, area) || strings.Contains(area, target) {
			return true
		}
	}
	return false
}

// CanView combines role bypass with the area filter.
func CanView(user User, poi string) bool {
	if user.Role.BypassesAreaFilter() {
		return true
	}
	return AreaGrantsAccess(poi, user.Areas)
}

// CanEdit reports whether the user may edit an event in the given stored
// state. Approvers and oversight act on events but never edit row fields;
// approved events are frozen for everyone.
func CanEdit(user User, status Status) bool {
	if user.Role.BypassesAreaFilter() {
		return false
	}
	return status != StatusApproved
}
