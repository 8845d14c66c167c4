/*
Package storage implements the cloud save store: user documents kept as
objects under a per-user key prefix, in memory or in an S3-compatible bucket.
*/
package storage

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Object describes one saved document.
type Object struct {
	Key      string    `json:"key"`
	FileName string    `json:"fileName"`
	MimeType string    `json:"mimeType"`
	Size     int64     `json:"size"`
	SavedAt  time.Time `json:"savedAt"`
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// Put writes body under key, replacing any previous object.
	Put(ctx context.Context, key string, mimeType string, body []byte) (Object, error)

	// List returns every object whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Object, error)

	// PresignDownload generates a time-limited URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)
}

// NewStorageService is the factory function for StorageService. An empty
// bucket name selects the in-memory implementation.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	if cfg.S3BucketName == "" {
		return NewMemoryStore(), nil
	}
	return newS3Client(ctx, cfg)
}

// UserPrefix returns the key prefix owning all objects of userID. The id is
// path-escaped so it never contains the separator and no prefix nests in another.
func UserPrefix(userID string) string {
	return url.PathEscape(userID) + "/"
}

// ObjectKey builds "<userId>/<id>-<fileName>". Directory parts of fileName are dropped.
func ObjectKey(userID, id, fileName string) string {
	return UserPrefix(userID) + id + "-" + path.Base(strings.ReplaceAll(fileName, "\\", "/"))
}

// ParseKey splits a key built by ObjectKey into its id and file name.
func ParseKey(key string) (id, fileName string, ok bool) {
	slash := strings.LastIndex(key, "/")
	if slash < 0 {
		return "", "", false
	}

	id, fileName, ok = strings.Cut(key[slash+1:], "-")
	if !ok || id == "" || fileName == "" {
		return "", "", false
	}
	return id, fileName, true
}

// objectFromKey fills the fields derivable from the key alone.
func objectFromKey(key string, size int64, savedAt time.Time) Object {
	obj := Object{Key: key, Size: size, SavedAt: savedAt}
	if _, name, ok := ParseKey(key); ok {
		obj.FileName = name
		obj.MimeType = MIMEForFileName(name)
	}
	return obj
}
