package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roleready/internal/pkg/errs"
)

func TestObjectKeyRoundTrip(t *testing.T) {
	key := ObjectKey("u1", "1700000000000", "resume-v2.json")
	assert.Equal(t, "u1/1700000000000-resume-v2.json", key)

	id, name, ok := ParseKey(key)
	require.True(t, ok)
	assert.Equal(t, "1700000000000", id)
	assert.Equal(t, "resume-v2.json", name)
}

func TestObjectKeyDropsDirectories(t *testing.T) {
	assert.Equal(t, "u1/1-cv.pdf", ObjectKey("u1", "1", "../../other/cv.pdf"))
	assert.Equal(t, "u1/1-cv.pdf", ObjectKey("u1", "1", `C:\docs\cv.pdf`))
}

func TestParseKeyRejectsForeignKeys(t *testing.T) {
	for _, key := range []string{"no-slash", "u1/", "u1/noid", "u1/-name.txt", "u1/1-"} {
		_, _, ok := ParseKey(key)
		assert.False(t, ok, key)
	}
}

func TestUserPrefixDoesNotNest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.Equal(t, "a%2Fb/", UserPrefix("a/b"))
	assert.Equal(t, "a%2Fb/1-secret.txt", ObjectKey("a/b", "1", "secret.txt"))

	_, err := store.Put(ctx, ObjectKey("a/b", "1", "secret.txt"), "text/plain", []byte("s"))
	require.NoError(t, err)

	listed, err := store.List(ctx, UserPrefix("a"))
	require.NoError(t, err)
	assert.Empty(t, listed)

	listed, err = store.List(ctx, UserPrefix("a/b"))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "secret.txt", listed[0].FileName)
}

func TestMemoryStorePutListPresign(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Put(ctx, ObjectKey("u1", "2", "b.md"), "text/markdown", []byte("# B"))
	require.NoError(t, err)
	obj, err := store.Put(ctx, ObjectKey("u1", "1", "a.json"), "application/json", []byte(`{"a":1}`))
	require.NoError(t, err)
	_, err = store.Put(ctx, ObjectKey("u2", "3", "c.txt"), "text/plain", []byte("c"))
	require.NoError(t, err)

	assert.Equal(t, "a.json", obj.FileName)
	assert.Equal(t, int64(7), obj.Size)
	assert.False(t, obj.SavedAt.IsZero())

	listed, err := store.List(ctx, UserPrefix("u1"))
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "u1/1-a.json", listed[0].Key)
	assert.Equal(t, "u1/2-b.md", listed[1].Key)

	body, ok := store.Body("u1/1-a.json")
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(body))

	url, err := store.PresignDownload(ctx, "u1/1-a.json", PresignedURLDuration)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "memory://"))

	_, err = store.PresignDownload(ctx, "u1/9-missing.txt", PresignedURLDuration)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreEmptyList(t *testing.T) {
	listed, err := NewMemoryStore().List(context.Background(), UserPrefix("nobody"))
	require.NoError(t, err)
	assert.NotNil(t, listed)
	assert.Empty(t, listed)
}

func TestNewStorageServiceDefaultsToMemory(t *testing.T) {
	svc, err := NewStorageService(context.Background(), ServiceConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, svc)
}

func TestValidateFileType(t *testing.T) {
	assert.Nil(t, ValidateFileType("resume.json", "application/json"))
	assert.Nil(t, ValidateFileType("CV.PDF", "Application/PDF"))
	assert.Nil(t, ValidateFileType("notes.md", "text/markdown"))

	cases := []struct{ name, mime string }{
		{"resume.json", "application/pdf"},
		{"resume", "application/json"},
		{"resume.exe", "application/octet-stream"},
		{"photo.png", "image/png"},
	}
	for _, tc := range cases {
		customErr := ValidateFileType(tc.name, tc.mime)
		require.NotNil(t, customErr, tc.name)
		assert.Equal(t, errs.ErrFileTypeInvalid, customErr.Code, tc.name)
	}
}

func TestValidateFileSize(t *testing.T) {
	assert.Nil(t, ValidateFileSize(1))
	assert.Nil(t, ValidateFileSize(MaxObjectSize))

	customErr := ValidateFileSize(0)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrInvalidParams, customErr.Code)

	customErr = ValidateFileSize(MaxObjectSize + 1)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrFileSizeTooLarge, customErr.Code)
}

func TestMIMEForFileName(t *testing.T) {
	assert.Equal(t, "application/json", MIMEForFileName("a.JSON"))
	assert.Equal(t, "application/octet-stream", MIMEForFileName("a.bin"))
}
