/*
Package user contains core data structures related to user identity.

It defines the representation of an authenticated RoleReady account as seen by
the API server, derived from verified bearer-token claims.
*/
package user

import "roleready/internal/pkg/auth/jwt"

// User represents the identity of an authenticated account.
// Fields use JSON tags for serialization in profile responses.
type User struct {
	// ID is the unique identifier for the account, issued by the auth service.
	ID string `json:"id"`

	// Email is the account e-mail address, when the token carries one.
	Email string `json:"email,omitempty"`

	// Name is the display name chosen by the user.
	Name string `json:"name,omitempty"`
}

// FromPayload builds a User from verified token claims. It returns nil for a nil payload.
func FromPayload(p *jwt.Payload) *User {
	if p == nil {
		return nil
	}
	return &User{ID: p.ID, Email: p.Email, Name: p.Name}
}

// DisplayName returns the name to show to collaborators, falling back to the ID.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}
