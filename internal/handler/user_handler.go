/*
Package handler provides HTTP handler functions for the authenticated user's profile.
*/
package handler

import (
	"net/http"

	"roleready/internal/app/user"
	"roleready/internal/pkg/auth/jwt"
	"roleready/internal/pkg/errs"
	"roleready/internal/pkg/resp"
)

// HandleGetUserProfile returns the identity carried by the caller's bearer token.
func HandleGetUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := user.FromPayload(jwt.GetPayloadFromContext(r))
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, identity)
	}
}
