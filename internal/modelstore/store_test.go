package modelstore

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/repository/postgres"
	"github.com/andresuchdata/stockcast/internal/storage"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}}
}

func (m *memObjects) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memObjects) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memObjects) PutObject(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memObjects) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memObjects) DownloadObject(context.Context, string, string) error {
	return nil
}

// exerciseBlobStore checks the contract every backend shares.
func exerciseBlobStore(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()
	key := ModelKey(42)

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, key, []byte(`{"a":1}`)))
	require.NoError(t, s.Put(ctx, key, []byte(`{"a":2}`)))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, key), "deleting a missing key is not an error")
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseBlobStore(t, s)

	assert.Error(t, s.Put(context.Background(), "../escape", []byte("x")))
}

func TestObjectStore(t *testing.T) {
	objects := newMemObjects()
	s := NewObjectStore(objects, "models")
	exerciseBlobStore(t, s)

	require.NoError(t, s.Put(context.Background(), ModelKey(3), []byte("{}")))
	infos, _ := objects.ListObjects(context.Background(), "models/")
	require.Len(t, infos, 1)
	assert.Equal(t, "models/demand_model/3.json", infos[0].Key)
}

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	exerciseBlobStore(t, NewRedisStore(client, ""))
}

func TestPostgresStore(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	s := NewPostgresStore(postgres.Wrap(sqlx.NewDb(raw, "postgres"), 1))
	ctx := context.Background()
	key := ModelKey(5)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO demand_models`).WithArgs(key, []byte("{}")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT payload FROM demand_models`).WithArgs(key).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte("{}")))
	mock.ExpectQuery(`SELECT payload FROM demand_models`).WithArgs(ModelKey(6)).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	mock.ExpectExec(`DELETE FROM demand_models`).WithArgs(key).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Put(ctx, key, []byte("{}")))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))
	_, err = s.Get(ctx, ModelKey(6))
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete(ctx, key))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewBlobStore(t *testing.T) {
	s, err := NewBlobStore(config.ModelStoreConfig{Backend: "filesystem", Dir: t.TempDir()}, Deps{})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = NewBlobStore(config.ModelStoreConfig{Backend: "s3"}, Deps{Objects: newMemObjects()})
	require.NoError(t, err)
	assert.IsType(t, &ObjectStore{}, s)

	_, err = NewBlobStore(config.ModelStoreConfig{Backend: "redis"}, Deps{})
	assert.Error(t, err)
	_, err = NewBlobStore(config.ModelStoreConfig{Backend: "postgres"}, Deps{})
	assert.Error(t, err)
	_, err = NewBlobStore(config.ModelStoreConfig{Backend: "floppy"}, Deps{})
	assert.Error(t, err)
}
