package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/andresuchdata/stockcast/internal/demand"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/rs/zerolog/log"
)

const codecVersion = 1

type envelope struct {
	Version int           `json:"version"`
	Model   *demand.Model `json:"model"`
}

// Encode serializes a model. Floats round-trip exactly.
func Encode(m *demand.Model) ([]byte, error) {
	return json.Marshal(envelope{Version: codecVersion, Model: m})
}

func Decode(data []byte) (*demand.Model, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if env.Version != codecVersion {
		return nil, fmt.Errorf("decode model: unsupported version %d", env.Version)
	}
	if env.Model == nil {
		return nil, errors.New("decode model: empty payload")
	}
	return env.Model, nil
}

// Registry implements demand.ModelStore over any BlobStore. Writes and reads
// of the same product are serialized by a per-product RWMutex, and decoded
// models are kept in memory. Returned models must not be mutated.
type Registry struct {
	blobs BlobStore

	locksMu sync.Mutex
	locks   map[int64]*sync.RWMutex

	cacheMu sync.RWMutex
	cache   map[int64]*demand.Model
}

func NewRegistry(blobs BlobStore) *Registry {
	return &Registry{
		blobs: blobs,
		locks: make(map[int64]*sync.RWMutex),
		cache: make(map[int64]*demand.Model),
	}
}

func (r *Registry) lock(productID int64) *sync.RWMutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	l, ok := r.locks[productID]
	if !ok {
		l = &sync.RWMutex{}
		r.locks[productID] = l
	}
	return l
}

func (r *Registry) Save(ctx context.Context, m *demand.Model) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	l := r.lock(m.ProductID)
	l.Lock()
	defer l.Unlock()

	if err := r.blobs.Put(ctx, ModelKey(m.ProductID), data); err != nil {
		return err
	}

	// cache a decoded copy so later mutation of m cannot leak in
	stored, err := Decode(data)
	if err != nil {
		return err
	}
	r.cacheMu.Lock()
	r.cache[m.ProductID] = stored
	r.cacheMu.Unlock()
	return nil
}

func (r *Registry) Load(ctx context.Context, productID int64) (*demand.Model, error) {
	l := r.lock(productID)
	l.RLock()
	defer l.RUnlock()

	r.cacheMu.RLock()
	m, ok := r.cache[productID]
	r.cacheMu.RUnlock()
	if ok {
		return m, nil
	}

	data, err := r.blobs.Get(ctx, ModelKey(productID))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: product %d", domain.ErrModelNotFound, productID)
	}
	if err != nil {
		return nil, err
	}

	m, err = Decode(data)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", productID, err)
	}

	r.cacheMu.Lock()
	r.cache[productID] = m
	r.cacheMu.Unlock()
	return m, nil
}

func (r *Registry) Delete(ctx context.Context, productID int64) error {
	l := r.lock(productID)
	l.Lock()
	defer l.Unlock()

	r.cacheMu.Lock()
	delete(r.cache, productID)
	r.cacheMu.Unlock()

	if err := r.blobs.Delete(ctx, ModelKey(productID)); err != nil {
		return err
	}
	log.Debug().Int64("product_id", productID).Msg("demand model deleted")
	return nil
}

var _ demand.ModelStore = (*Registry)(nil)
