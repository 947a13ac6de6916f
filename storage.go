package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/afero"
	"github.com/vcscsvcscs/runcoach/internal/audit"
	"github.com/vcscsvcscs/runcoach/internal/azure"
	"github.com/vcscsvcscs/runcoach/internal/config"
	"github.com/vcscsvcscs/runcoach/internal/handler"
	"github.com/vcscsvcscs/runcoach/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// dependencies holds the storage backends selected by configuration
type dependencies struct {
	store        repository.StateStore
	blobs        *azure.BlobStorageClient // nil unless blob storage is configured
	auditSink    audit.Sink
	healthChecks map[string]handler.HealthCheck
	closers      []func()
}

// Close releases every opened connection in reverse order
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func openDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	deps := &dependencies{healthChecks: map[string]handler.HealthCheck{}}
	pools := map[string]*pgxpool.Pool{}

	openPool := func(url string) (*pgxpool.Pool, error) {
		if pool, ok := pools[url]; ok {
			return pool, nil
		}
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		pools[url] = pool
		deps.closers = append(deps.closers, pool.Close)
		return pool, nil
	}

	blob := cfg.Storage.Blob
	if cfg.Storage.Driver == config.DriverBlob || blob.ArchiveReports {
		client, err := newBlobClient(blob, logger)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureContainer(ctx); err != nil {
			return nil, err
		}
		deps.blobs = client
	}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory state store, state is lost on restart")
		deps.store = repository.NewMemoryStateStore()

	case config.DriverFile:
		store, err := repository.NewFileStateStore(afero.NewOsFs(), cfg.Storage.File.Dir, logger)
		if err != nil {
			return nil, err
		}
		deps.store = store

	case config.DriverPostgres:
		pool, err := openPool(cfg.Storage.Postgres.URL)
		if err != nil {
			deps.Close()
			return nil, err
		}
		store := repository.NewPostgresStateStore(pool, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			deps.Close()
			return nil, err
		}
		deps.store = store
		deps.healthChecks["database"] = func(ctx context.Context) error { return pool.Ping(ctx) }

	case config.DriverBlob:
		deps.store = repository.NewBlobStateStore(deps.blobs)

	case config.DriverS3:
		s3cfg := repository.S3Config{
			Endpoint:        cfg.Storage.S3.Endpoint,
			Region:          cfg.Storage.S3.Region,
			Bucket:          cfg.Storage.S3.Bucket,
			Prefix:          cfg.Storage.S3.Prefix,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
		}
		client, err := repository.NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewS3StateStore(client, s3cfg.Bucket, s3cfg.Prefix, logger)
		if err != nil {
			return nil, err
		}
		deps.store = store

	case config.DriverMongo:
		client, err := repository.ConnectMongo(ctx, cfg.Storage.Mongo.URI)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("Failed to disconnect from mongo", zap.Error(err))
			}
		})
		deps.store = repository.NewMongoStateStore(client, cfg.Storage.Mongo.Database, cfg.Storage.Mongo.Collection, logger)
		deps.healthChecks["database"] = mongoPing(client)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Audit.DatabaseURL != "" {
		pool, err := openPool(cfg.Audit.DatabaseURL)
		if err != nil {
			deps.Close()
			return nil, err
		}
		sink := audit.NewPostgresSink(pool)
		if err := sink.EnsureSchema(ctx); err != nil {
			deps.Close()
			return nil, err
		}
		deps.auditSink = sink
		deps.healthChecks["audit"] = func(ctx context.Context) error { return pool.Ping(ctx) }
		logger.Info("Audit trail persisted to postgres")
	}

	logger.Info("State store initialized", zap.String("driver", cfg.Storage.Driver))
	return deps, nil
}

func newBlobClient(cfg config.BlobStorageConfig, logger *zap.Logger) (*azure.BlobStorageClient, error) {
	if cfg.ConnectionString != "" {
		return azure.NewBlobStorageClientFromConnectionString(cfg.ConnectionString, cfg.Container, logger)
	}
	return azure.NewBlobStorageClient(cfg.AccountName, cfg.AccountKey, cfg.Container, logger)
}

func mongoPing(client *mongo.Client) handler.HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}
