package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gig_chat_service/pkg/database"
)

// BlobStore holds audio and file bodies, messages only keep the returned url
type BlobStore interface {
	// Put store data as objectName and return the url clients download it from
	Put(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, objectName string) error
}

type minioBlobStore struct {
	client        *database.MinIOClient
	publicURL     string
	presignExpiry time.Duration
}

// NewMinIOBlobStore BlobStore on a MinIO bucket; with publicURL set urls point at the public bucket, otherwise they are presigned
func NewMinIOBlobStore(client *database.MinIOClient, publicURL string, presignExpiry time.Duration) BlobStore {
	return &minioBlobStore{
		client:        client,
		publicURL:     publicURL,
		presignExpiry: presignExpiry,
	}
}

func (s *minioBlobStore) Put(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if err := s.client.PutBytes(ctx, objectName, contentType, data); err != nil {
		return "", fmt.Errorf("put object %s: %w", objectName, err)
	}

	if s.publicURL != "" {
		return s.client.PublicURL(s.publicURL, objectName), nil
	}
	return s.client.PresignGetURL(ctx, objectName, s.presignExpiry)
}

func (s *minioBlobStore) Remove(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, objectName); err != nil {
		return fmt.Errorf("remove object %s: %w", objectName, err)
	}
	return nil
}

// MemoryBlob one object of a MemoryBlobStore
type MemoryBlob struct {
	ContentType string
	Data        []byte
}

// MemoryBlobStore process local BlobStore for tests and local runs
type MemoryBlobStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]MemoryBlob
}

// NewMemoryBlobStore urls are baseURL/objectName
func NewMemoryBlobStore(baseURL string) *MemoryBlobStore {
	return &MemoryBlobStore{
		baseURL: baseURL,
		objects: make(map[string]MemoryBlob),
	}
}

// Put store a copy of data
func (s *MemoryBlobStore) Put(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = MemoryBlob{ContentType: contentType, Data: append([]byte(nil), data...)}
	return s.baseURL + "/" + objectName, nil
}

// Remove delete objectName, missing objects are fine
func (s *MemoryBlobStore) Remove(_ context.Context, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectName)
	return nil
}

// Get stored object
func (s *MemoryBlobStore) Get(objectName string) (MemoryBlob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[objectName]
	return b, ok
}

// Len number of stored objects
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
