package handler

import (
	"encoding/json"
	"net/http"

	"roleready/internal/pkg/auth/jwt"
	"roleready/internal/pkg/errs"
	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/req"
	"roleready/internal/pkg/resp"
)

// HandleNotify pushes a notification to every connection of body.userId.
// The remaining body fields become the notification payload.
func HandleNotify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var body map[string]json.RawMessage
		if customErr := req.BindJSON(w, r, &body); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var userID string
		if raw, ok := body["userId"]; !ok || json.Unmarshal(raw, &userID) != nil || userID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		delete(body, "userId")

		if _, ok := body["from"]; !ok {
			from, _ := json.Marshal(identity.ID)
			body["from"] = from
		}

		payload, err := json.Marshal(body)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		if err := deps.Hub.Notify(r.Context(), userID, payload); err != nil {
			logx.Error(err, "Notification relay failed", "target_user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrNotifyFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]bool{"delivered": true})
	}
}
