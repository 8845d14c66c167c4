/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Collaboration and Content Errors
const (
	// ErrUnknownEvent indicates that a collaboration frame named an event the server does not handle.
	ErrUnknownEvent = 2101

	// ErrMissingField indicates that a collaboration payload lacked a required field.
	ErrMissingField = 2102

	// ErrNotInRoom indicates that a room update came from a connection that is not a member of that room.
	ErrNotInRoom = 2103

	// ErrFileTypeInvalid indicates that a cloud save used a file name / MIME type pair that is not allowed.
	ErrFileTypeInvalid = 2201

	// ErrFileSizeTooLarge indicates that a cloud save exceeded the maximum object size.
	ErrFileSizeTooLarge = 2202

	// ErrObjectNotFound indicates that a cloud save key does not exist.
	ErrObjectNotFound = 2203
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing, malformed or expired bearer token.
	ErrUnauthorized = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStorageFailed indicates that the record or cloud store rejected an operation.
	ErrStorageFailed = 5001

	// ErrAIStreamFailed indicates that the assistant stream aborted.
	ErrAIStreamFailed = 5002

	// ErrNotifyFailed indicates that a notification could not be handed to the relay.
	ErrNotifyFailed = 5003
)
