package user

import "time"

// Roles the platform understands. "player" requests bookings; "owner" lists
// turfs and rules on requests; "admin" moderates the platform.
const (
	RolePlayer = "player"
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
)

type Profile struct {
	UID         string `firestore:"uid" json:"uid"`
	Email       string `firestore:"email,omitempty" json:"email,omitempty"`
	DisplayName string `firestore:"displayName,omitempty" json:"displayName,omitempty"`
	Phone       string `firestore:"phone,omitempty" json:"phone,omitempty"`

	Role  string   `firestore:"role,omitempty" json:"role,omitempty"`
	Roles []string `firestore:"roles,omitempty" json:"roles,omitempty"`

	CreatedAt time.Time `firestore:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `firestore:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

func (p Profile) HasRole(r string) bool {
	if p.Role == r {
		return true
	}
	for _, x := range p.Roles {
		if x == r {
			return true
		}
	}
	return false
}

// CanListTurfs reports whether the profile may create and manage listings.
func (p Profile) CanListTurfs() bool {
	return p.HasRole(RoleOwner) || p.HasRole(RoleAdmin)
}
