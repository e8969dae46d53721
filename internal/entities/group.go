// Package entities contains core business entities.
package entities

import "time"

// MemberRole enumerates roles inside a group.
type MemberRole string

const (
	// RoleAdmin may manage members, approve tasks and distribute work.
	RoleAdmin MemberRole = "Admin"
	// RoleMember may create and complete tasks.
	RoleMember MemberRole = "Member"
)

// Valid reports whether the role is known.
func (r MemberRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Group aggregates members and tasks under one household or team.
type Group struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

// Member is a user's membership in a group.
type Member struct {
	GroupID     string
	UserID      string
	DisplayName string
	Role        MemberRole
	JoinedAt    time.Time
}

// IsAdmin reports whether the member holds the admin role.
func (m Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// Caller identifies the authenticated user issuing a request.
type Caller struct {
	UserID string
	Name   string
}
