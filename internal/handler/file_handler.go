/*
Package handler provides HTTP handler functions for cloud saves: storing exported
documents under the caller's key prefix, listing them and redirecting downloads.
*/
package handler

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"roleready/internal/app/storage"
	"roleready/internal/pkg/auth/jwt"
	"roleready/internal/pkg/errs"
	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/randx"
	"roleready/internal/pkg/req"
	"roleready/internal/pkg/resp"
)

// CloudSaveInput defines the JSON input structure for a cloud save.
type CloudSaveInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content"`
	// Encoding is empty for text content or "base64" for binary documents.
	Encoding string `json:"encoding,omitempty"`
}

// CloudEntry is one listed cloud save.
type CloudEntry struct {
	ID string `json:"id"`
	storage.Object
}

func (in CloudSaveInput) decode() ([]byte, *errs.CustomError) {
	switch strings.ToLower(in.Encoding) {
	case "":
		return []byte(in.Content), nil
	case "base64":
		data, err := base64.StdEncoding.DecodeString(in.Content)
		if err != nil {
			return nil, errs.NewError(errs.ErrInvalidParams)
		}
		return data, nil
	default:
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
}

// HandleCloudSave stores a document and returns its metadata with id, key, createdAt and savedAt.
func HandleCloudSave(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input CloudSaveInput
		if customErr := req.BindJSONLimit(w, r, &input, storage.MaxSaveBodySize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := storage.ValidateFileType(input.FileName, input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		content, customErr := input.decode()
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := storage.ValidateFileSize(int64(len(content))); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		id := randx.TimestampID()
		key := storage.ObjectKey(identity.ID, id, input.FileName)
		mimeType := strings.ToLower(input.MimeType)

		obj, err := deps.StorageService.Put(r.Context(), key, mimeType, content)
		if err != nil {
			logx.Error(err, "Cloud save failed", "key", key, "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		data := map[string]any{
			"id":        id,
			"key":       obj.Key,
			"fileName":  input.FileName,
			"mimeType":  mimeType,
			"size":      obj.Size,
			"createdAt": obj.SavedAt.Format(time.RFC3339Nano),
			"savedAt":   obj.SavedAt.Format(time.RFC3339Nano),
		}
		if input.Encoding != "" {
			data["encoding"] = input.Encoding
		}
		resp.RespondCreated(w, r, data)
	}
}

// HandleCloudList returns every cloud save of the caller, ordered by key.
func HandleCloudList(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		objects, err := deps.StorageService.List(r.Context(), storage.UserPrefix(identity.ID))
		if err != nil {
			logx.Error(err, "Cloud list failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		data := make([]CloudEntry, 0, len(objects))
		for _, obj := range objects {
			id, _, ok := storage.ParseKey(obj.Key)
			if !ok {
				continue
			}
			data = append(data, CloudEntry{ID: id, Object: obj})
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleCloudDownload redirects to a time-limited download URL for one of the caller's saves.
func HandleCloudDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		fileKey := r.URL.Query().Get("key")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !strings.HasPrefix(fileKey, storage.UserPrefix(identity.ID)) {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		url, err := deps.StorageService.PresignDownload(r.Context(), fileKey, storage.PresignedURLDuration)
		if errors.Is(err, storage.ErrNotFound) {
			resp.RespondError(w, r, errs.NewError(errs.ErrObjectNotFound))
			return
		}
		if err != nil {
			logx.Error(err, "Cloud download presign failed", "key", fileKey)
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
