package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the claims carried by RoleReady bearer tokens.
type Payload struct {
	// StandardClaims embeds Exp, Iat and Iss, which are checked on every parse.
	jwt.StandardClaims

	// ID is the account identifier; it becomes the userId of collaboration sessions.
	ID string `json:"id"`

	// Email is the account e-mail address, if the issuer included it.
	Email string `json:"email,omitempty"`

	// Name is the display name shown to other collaborators.
	Name string `json:"name,omitempty"`
}
