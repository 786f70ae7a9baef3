package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	appErrors "github.com/law4percent/checkme-api/pkg/errors"
)

// MemoryStore is a mutex-guarded in-process Store used by tests and local
// runs. Documents are held as encoded JSON so reads decode through the same
// path as the Redis backend.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, path string, dest interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.docs[path]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("decode document at %s", path))
	}
	return true, nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, value interface{}) error {
	payload, err := marshal(value)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("encode document for %s", path))
	}
	s.mu.Lock()
	s.docs[path] = payload
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Patch(ctx context.Context, path string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, err := mergeFields(s.docs[path], fields)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("merge document at %s", path))
	}
	s.docs[path] = merged
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.docs, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context, prefix string) error {
	s.mu.Lock()
	for key := range s.docs {
		if strings.HasPrefix(key, prefix+"/") {
			delete(s.docs, key)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]json.RawMessage)
	for key, raw := range s.docs {
		if !strings.HasPrefix(key, prefix+"/") {
			continue
		}
		cp := make(json.RawMessage, len(raw))
		copy(cp, raw)
		result[strings.TrimPrefix(key, prefix+"/")] = cp
	}
	return result, nil
}
