package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"labbudget/internal/core"
)

// DocumentStore reads and writes the budget document over a BlobStore.
// A corrupted stored payload is self-healed: the blob is reset to a fresh
// empty document instead of surfacing a parse error to the reader.
type DocumentStore struct {
	blobs BlobStore
}

func NewDocumentStore(blobs BlobStore) *DocumentStore {
	return &DocumentStore{blobs: blobs}
}

// Load returns the normalized stored document, or the empty default when
// nothing is stored yet.
func (s *DocumentStore) Load(ctx context.Context) (core.Document, error) {
	raw, err := s.blobs.Get(ctx, DocumentKey)
	if err == ErrNotFound {
		return core.EmptyDocument(), nil
	}
	if err != nil {
		return core.Document{}, err
	}

	doc, err := core.DecodeDocument(raw)
	if err != nil {
		slog.WarnContext(ctx, "Stored document corrupted, resetting to empty",
			"key", DocumentKey, "error", err)
		empty := core.EmptyDocument()
		if healErr := s.Save(ctx, empty); healErr != nil {
			return core.Document{}, fmt.Errorf("reset corrupted document: %w", healErr)
		}
		return empty, nil
	}
	return doc, nil
}

// SaveRaw persists an already validated payload verbatim.
func (s *DocumentStore) SaveRaw(ctx context.Context, body []byte) error {
	return s.blobs.Put(ctx, DocumentKey, body)
}

// Save marshals and persists doc wholesale.
func (s *DocumentStore) Save(ctx context.Context, doc core.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return s.SaveRaw(ctx, raw)
}
