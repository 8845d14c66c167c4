package storage

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	meta Object
	body []byte
}

// MemoryStore implements StorageService in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// Put implements StorageService.
func (m *MemoryStore) Put(_ context.Context, key string, mimeType string, body []byte) (Object, error) {
	obj := objectFromKey(key, int64(len(body)), m.now().UTC())
	obj.MimeType = mimeType

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = memoryObject{meta: obj, body: append([]byte(nil), body...)}
	return obj, nil
}

// List implements StorageService.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Object, 0)
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, obj.meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PresignDownload implements StorageService. The returned memory:// URL only
// identifies the object; it is not fetchable.
func (m *MemoryStore) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.objects[key]; !ok {
		return "", ErrNotFound
	}
	return (&url.URL{Scheme: "memory", Path: "/" + key}).String(), nil
}

// Body returns a copy of the stored bytes for key.
func (m *MemoryStore) Body(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.body...), true
}
