/*
Package handler provides HTTP handler functions for the resume and job collections.
*/
package handler

import (
	"encoding/json"
	"net/http"

	"roleready/internal/app/records"
	"roleready/internal/pkg/auth/jwt"
	"roleready/internal/pkg/errs"
	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/req"
	"roleready/internal/pkg/resp"
)

// HandleListRecords returns the caller's records of the given kind, oldest first.
func HandleListRecords(deps *AppDeps, kind records.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		list, err := deps.Records.List(r.Context(), identity.ID, kind)
		if err != nil {
			logx.Error(err, "Failed to list records", "kind", kind, "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		data := make([]map[string]json.RawMessage, 0, len(list))
		for _, rec := range list {
			echo, err := rec.Echo()
			if err != nil {
				logx.Warn("Skipping unreadable record", "record_id", rec.ID, "error", err.Error())
				continue
			}
			data = append(data, echo)
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleCreateRecord stores the posted JSON object and echoes it back with id and createdAt.
func HandleCreateRecord(deps *AppDeps, kind records.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var body json.RawMessage
		if customErr := req.BindJSON(w, r, &body); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := records.ValidateBody(body); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		rec, err := deps.Records.Create(r.Context(), identity.ID, kind, body)
		if err != nil {
			logx.Error(err, "Failed to create record", "kind", kind, "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		echo, err := rec.Echo()
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		logx.Info("Record created", "kind", kind, "record_id", rec.ID, "user_id", identity.ID)
		resp.RespondCreated(w, r, echo)
	}
}
