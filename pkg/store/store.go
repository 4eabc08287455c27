// Package store persists settled variant documents.
//
// A variant is keyed by its preset and normalization mode (see
// plane.Document.VariantID). The in-memory backend serves tests and
// single-process CLI runs; the MongoDB backend serves deployments where
// variants are published for other services to read.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/plane"
)

// Store is the persistence interface for variant documents.
type Store interface {
	// Put inserts or replaces the document under its variant id.
	Put(ctx context.Context, doc *plane.Document) error

	// Get returns the document for a variant id, or a NOT_FOUND error.
	Get(ctx context.Context, variantID string) (*plane.Document, error)

	// List returns all stored variant ids, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes a variant. Deleting a missing variant is not an error.
	Delete(ctx context.Context, variantID string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// MemoryStore keeps documents in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*plane.Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*plane.Document)}
}

func (s *MemoryStore) Put(ctx context.Context, doc *plane.Document) error {
	if doc == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil document")
	}
	cp := *doc
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.VariantID()] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, variantID string) (*plane.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[variantID]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "variant %q not found", variantID)
	}
	cp := *doc
	return &cp, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Delete(ctx context.Context, variantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, variantID)
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
