/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates JSON decoding with size limits and maps decoding failures onto
application error codes so handlers can respond uniformly.
*/
package req

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"roleready/internal/pkg/errs"
)

// MaxJSONBodySize caps the size of JSON request bodies (1 MB).
const MaxJSONBodySize int64 = 1 << 20

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination dst.
// Unknown fields are rejected when dst is a struct; maps accept any object.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	return BindJSONLimit(w, r, dst, MaxJSONBodySize)
}

// BindJSONLimit is BindJSON with a caller-chosen body size cap in bytes.
func BindJSONLimit(w http.ResponseWriter, r *http.Request, dst any, limit int64) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
