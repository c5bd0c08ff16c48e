package modelstore

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/andresuchdata/stockcast/internal/storage"
)

// ObjectStore keeps artifacts in an S3-compatible bucket under an optional prefix.
type ObjectStore struct {
	objects storage.ObjectStorage
	prefix  string
}

func NewObjectStore(objects storage.ObjectStorage, prefix string) *ObjectStore {
	return &ObjectStore{objects: objects, prefix: prefix}
}

func (s *ObjectStore) objectKey(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	return path.Join(s.prefix, key+".json"), nil
}

func (s *ObjectStore) Put(ctx context.Context, key string, data []byte) error {
	k, err := s.objectKey(key)
	if err != nil {
		return err
	}
	return s.objects.PutObject(ctx, k, data)
}

func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	data, err := s.objects.GetObject(ctx, k)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	k, err := s.objectKey(key)
	if err != nil {
		return err
	}
	return s.objects.DeleteObject(ctx, k)
}
