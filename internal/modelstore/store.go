// Package modelstore persists trained demand models in a swappable key-value
// artifact store.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned by BlobStore.Get for missing keys.
var ErrNotFound = errors.New("artifact not found")

// BlobStore saves, loads and deletes opaque artifacts by key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

const keyPrefix = "demand_model/"

// ModelKey is the artifact key of a product's model.
func ModelKey(productID int64) string {
	return keyPrefix + strconv.FormatInt(productID, 10)
}

func validKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid artifact key %q", key)
	}
	return nil
}
