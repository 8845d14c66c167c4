/*
Package resp provides helper functions for constructing and sending standardized HTTP JSON responses.

Successful responses carry the payload as-is; error responses use a flat
{"error": "..."} body whose message and status come from the errs table.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"roleready/internal/pkg/errs"
	"roleready/internal/pkg/logx"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	// Error is the client-friendly error message.
	Error string `json:"error"`

	// Code is the application error code (see errs package).
	Code int `json:"code,omitempty"`
}

// RespondJSON is a generic response function used to set the Content-Type and send the JSON payload.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess sends a successful HTTP response (HTTP 200 OK).
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, data)
}

// RespondCreated sends an HTTP 201 response for a newly created resource.
func RespondCreated(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusCreated, data)
}

// RespondError sends an HTTP response containing custom error information.
// Authentication and internal failures only expose the generic message.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	res := ErrorResponse{Error: customErr.Message}
	if customErr.Code != errs.ErrUnauthorized && customErr.Code != errs.ErrUnknown {
		res.Code = customErr.Code
	}
	RespondJSON(w, r, customErr.Status, res)
}
