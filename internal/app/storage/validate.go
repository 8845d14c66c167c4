package storage

import (
	"path/filepath"
	"strings"
	"time"

	"roleready/internal/pkg/errs"
)

const (
	// MaxObjectSizeMB is the maximum allowed cloud save size in megabytes.
	MaxObjectSizeMB = 5

	// MaxObjectSize is the maximum allowed cloud save size in bytes.
	MaxObjectSize = MaxObjectSizeMB * 1024 * 1024

	// MaxSaveBodySize caps a cloud save request body. It leaves room for base64
	// or JSON-escaped content of a maximum size object.
	MaxSaveBodySize = MaxObjectSize*2 + 64*1024

	// PresignedURLDuration is how long a download URL stays valid.
	PresignedURLDuration = 15 * time.Minute
)

// AllowedMIMETypes defines the set of permitted MIME types for cloud saves.
var AllowedMIMETypes = map[string]struct{}{
	"application/json": {},
	"application/pdf":  {},
	"text/plain":       {},
	"text/markdown":    {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".json": "application/json",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
}

// MIMEForFileName returns the MIME type implied by the file extension, or
// application/octet-stream when it is not one of ExtToMIME.
func MIMEForFileName(fileName string) string {
	if mime, ok := ExtToMIME[strings.ToLower(filepath.Ext(fileName))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxObjectSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// ValidateFileType checks if the provided file name and MIME type are allowed.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) < 2 {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok || expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	return nil
}
