// Package store adapts the external hierarchical keyed store. Paths are
// slash-separated strings; no operation spans more than one path, so every
// multi-path procedure above this layer documents its partial-failure
// outcome instead of assuming atomicity.
package store

import (
	"context"
	"encoding/json"
	"strings"
)

// Store is the consistency contract of the keyed store. Get reports absence
// as (false, nil); errors are reserved for transport failures.
type Store interface {
	Get(ctx context.Context, path string, dest interface{}) (bool, error)
	// Set replaces the document at path.
	Set(ctx context.Context, path string, value interface{}) error
	// Patch merges fields into the document at path, creating it if absent.
	// The read-merge-write is not atomic; concurrent patches are
	// last-writer-wins per field set.
	Patch(ctx context.Context, path string, fields map[string]interface{}) error
	// Delete removes the document at path. Deleting an absent path is not
	// an error.
	Delete(ctx context.Context, path string) error
	// DeleteAll removes every document under prefix.
	DeleteAll(ctx context.Context, prefix string) error
	// List enumerates the documents under prefix, keyed by the remainder of
	// each path after the prefix. Collections in this codebase are flat, so
	// the remainder is a single segment.
	List(ctx context.Context, prefix string) (map[string]json.RawMessage, error)
}

// Join builds a store path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func marshal(value interface{}) ([]byte, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(value)
}

func mergeFields(existing []byte, fields map[string]interface{}) ([]byte, error) {
	doc := make(map[string]interface{})
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, err
		}
	}
	for k, v := range fields {
		doc[k] = v
	}
	return json.Marshal(doc)
}
