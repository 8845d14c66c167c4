/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Collaboration and Content Errors
	ErrUnknownEvent:     {Code: ErrUnknownEvent, Message: "Unsupported event: %s."},
	ErrMissingField:     {Code: ErrMissingField, Message: "Missing required field: %s."},
	ErrNotInRoom:        {Code: ErrNotInRoom, Message: "Not in resume room: %s. Join it again."},
	ErrFileTypeInvalid:  {Code: ErrFileTypeInvalid, Message: "File type is not allowed."},
	ErrFileSizeTooLarge: {Code: ErrFileSizeTooLarge, Message: "File is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrObjectNotFound:   {Code: ErrObjectNotFound, Message: "File not found.", Status: http.StatusNotFound},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Unauthorized", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:        {Code: ErrUnknown, Message: "Internal server error", Status: http.StatusInternalServerError},
	ErrStorageFailed:  {Code: ErrStorageFailed, Message: "Storage is unavailable. Please try again.", Status: http.StatusBadGateway},
	ErrAIStreamFailed: {Code: ErrAIStreamFailed, Message: "AI response failed. Please try again."},
	ErrNotifyFailed:   {Code: ErrNotifyFailed, Message: "Notification could not be delivered.", Status: http.StatusBadGateway},
}
