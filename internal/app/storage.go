package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/product-catalog/internal/config"
	"github.com/abgdnv/product-catalog/internal/product/store"
	"github.com/abgdnv/product-catalog/pkg/bootstrap"
)

// OpenStore connects the backend named by cfg.Driver. The returned close
// function releases its connections and is never nil.
func OpenStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.ProductStore, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Info("Using in-memory product store")
		return store.NewInMemoryStore(), noop, nil

	case config.DriverCSV:
		s, err := store.NewCSVStore(cfg.CSV.Path, logger)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using CSV product store", "path", cfg.CSV.Path)
		return s, noop, nil

	case config.DriverMongo:
		client, err := bootstrap.NewMongoClient(ctx, cfg.Mongo.URL, cfg.Mongo.Timeout)
		if err != nil {
			return nil, noop, err
		}
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		logger.Info("Successfully connected to MongoDB", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		return store.NewMongoStore(coll), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("Failed to disconnect from MongoDB", "error", err)
			}
		}, nil

	case config.DriverPostgres:
		if cfg.Postgres.Migrate {
			if err := store.MigratePostgres(cfg.Postgres.URL); err != nil {
				return nil, noop, err
			}
			logger.Info("Database migrations applied")
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Postgres.URL, cfg.Postgres.Timeout)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Successfully connected to the database!")
		return store.NewPgStore(dbPool), dbPool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
