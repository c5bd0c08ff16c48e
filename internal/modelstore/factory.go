package modelstore

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/repository/postgres"
	"github.com/andresuchdata/stockcast/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Deps carries already opened connections a backend may reuse.
type Deps struct {
	DB      *postgres.DB
	Redis   *redis.Client
	Objects storage.ObjectStorage
}

// NewBlobStore builds the backend named by cfg.Backend.
func NewBlobStore(cfg config.ModelStoreConfig, deps Deps) (BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "filesystem", "fs":
		return NewFileStore(cfg.Dir)
	case "s3":
		objects := deps.Objects
		if objects == nil {
			client, err := storage.NewS3Client(storage.S3Config{
				Endpoint:  cfg.S3Endpoint,
				AccessKey: cfg.S3AccessKey,
				SecretKey: cfg.S3SecretKey,
				Bucket:    cfg.S3Bucket,
				Region:    cfg.S3Region,
				UseSSL:    cfg.S3UseSSL,
			})
			if err != nil {
				return nil, err
			}
			objects = client
		}
		return NewObjectStore(objects, cfg.S3Prefix), nil
	case "redis":
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis model store requires a redis connection")
		}
		return NewRedisStore(deps.Redis, ""), nil
	case "postgres":
		if deps.DB == nil {
			return nil, fmt.Errorf("postgres model store requires a database connection")
		}
		return NewPostgresStore(deps.DB), nil
	default:
		return nil, fmt.Errorf("unknown model store backend %q", cfg.Backend)
	}
}
