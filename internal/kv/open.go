package kv

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and parameterizes a backend.
type Config struct {
	Backend string
	DataDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	MongoURI      string
	MongoDatabase string
}

// Open builds the Store named by cfg.Backend. An empty backend means sqlite.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		return NewSQLite(cfg.DataDir)
	case BackendFile:
		return NewFileStore(cfg.DataDir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	case BackendMongo:
		return NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("kv: unknown backend %q (want sqlite, file, memory, redis or mongo)", cfg.Backend)
	}
}
