package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/hafloat/internal/platform/s3"
)

// ObjectStore is the object storage the document is kept in.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, body []byte) error
	DeleteObject(ctx context.Context, bucket, key string) error
}

var _ ObjectStore = (*s3.Client)(nil)

// Store reads and writes one state document.
type Store struct {
	objects ObjectStore
	bucket  string
	key     string
	now     func() time.Time
}

// NewStore creates a Store for bucket/key.
func NewStore(objects ObjectStore, bucket, key string) *Store {
	return &Store{objects: objects, bucket: bucket, key: key, now: time.Now}
}

// Location returns the bucket/key the document is stored at.
func (s *Store) Location() string {
	return s.bucket + "/" + s.key
}

// Load returns the stored document. A missing object yields an empty one.
func (s *Store) Load(ctx context.Context) (*Document, error) {
	data, err := s.objects.GetObject(ctx, s.bucket, s.key)
	if errors.Is(err, s3.ErrObjectNotFound) || (err == nil && len(data) == 0) {
		return &Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state %s: %w", s.Location(), err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode state %s: %w", s.Location(), err)
	}
	return &doc, nil
}

// Save stamps doc with the current time and writes it.
func (s *Store) Save(ctx context.Context, doc *Document) error {
	doc.LastUpdated = s.now().UTC()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.objects.PutObject(ctx, s.bucket, s.key, data); err != nil {
		return fmt.Errorf("failed to save state %s: %w", s.Location(), err)
	}
	return nil
}

// Clear removes the stored document.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.objects.DeleteObject(ctx, s.bucket, s.key); err != nil {
		return fmt.Errorf("failed to clear state %s: %w", s.Location(), err)
	}
	return nil
}
