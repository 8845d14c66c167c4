/*
Package records persists the resume and job documents behind the CRUD routes.

A record is an opaque JSON object owned by one user. The server does not
interpret the body; it stamps an id and a creation time and echoes the result.
*/
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"roleready/internal/pkg/errs"
)

// Kind separates the record collections.
type Kind string

const (
	KindResume Kind = "resume"
	KindJob    Kind = "job"
)

// ErrInvalidKind is returned by stores for a kind other than KindResume or KindJob.
var ErrInvalidKind = errors.New("records: invalid kind")

// Valid reports whether k names a known collection.
func (k Kind) Valid() bool {
	return k == KindResume || k == KindJob
}

// Record is one stored document.
type Record struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"ownerId"`
	Kind      Kind            `json:"kind"`
	Body      json.RawMessage `json:"body"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Echo returns the posted body with id and createdAt added on top.
// Body values are kept as raw JSON so numbers survive untouched.
func (r Record) Echo() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	if len(r.Body) > 0 {
		if err := json.Unmarshal(r.Body, &out); err != nil {
			return nil, err
		}
	}

	id, err := json.Marshal(r.ID)
	if err != nil {
		return nil, err
	}
	createdAt, err := json.Marshal(r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}

	out["id"] = id
	out["createdAt"] = createdAt
	return out, nil
}

// Store is the persistence seam behind the resume and job routes.
type Store interface {
	// Create stores body for ownerID under a freshly generated id.
	Create(ctx context.Context, ownerID string, kind Kind, body json.RawMessage) (Record, error)

	// List returns the owner's records of the given kind, oldest first. It never returns nil.
	List(ctx context.Context, ownerID string, kind Kind) ([]Record, error)
}

// ValidateBody checks that a posted record body is a JSON object.
func ValidateBody(body json.RawMessage) *errs.CustomError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if !json.Valid(trimmed) {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}
	return nil
}
