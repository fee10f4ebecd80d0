package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/product-catalog/internal/app"
	"github.com/abgdnv/product-catalog/internal/config"
	"github.com/abgdnv/product-catalog/internal/product/store"
	pkgconfig "github.com/abgdnv/product-catalog/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func skipIfIntegrationDisabled(t *testing.T) {
	t.Helper()
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
}

// resetStore empties a store shared by the whole suite.
func resetStore(t *testing.T, ctx context.Context, productStore store.ProductStore) {
	t.Helper()
	all, err := productStore.FindAll(ctx)
	require.NoError(t, err, "Failed to list products")
	for _, p := range all {
		require.NoError(t, productStore.DeleteByID(ctx, p.ID), "Failed to delete product %d", p.ID)
	}
}

// --------------------------------------------------------------------------
// -------------------------------- MongoDB ---------------------------------
// --------------------------------------------------------------------------

type MongoProductsFlowSuite struct {
	ProductsFlowSuite
	container *mongodb.MongoDBContainer
	closers   []func()
}

func (s *MongoProductsFlowSuite) SetupSuite() {
	s.setupCommon()

	var err error
	s.container, err = mongodb.Run(s.ctx, "mongo:7.0")
	require.NoError(s.T(), err, "Failed to run MongoDB container")
	uri, err := s.container.ConnectionString(s.ctx)
	require.NoError(s.T(), err, "Failed to get connection string from container")

	cfg := config.StorageConfig{
		Driver: config.DriverMongo,
		Mongo: pkgconfig.MongoConfig{
			URL:        uri,
			Database:   "catalog_e2e",
			Collection: "products",
			Timeout:    30 * time.Second,
		},
	}
	productStore, closeStore, err := app.OpenStore(s.ctx, cfg, s.logger)
	require.NoError(s.T(), err, "Failed to open MongoDB store")
	s.closers = append(s.closers, closeStore)

	s.newStore = func(t *testing.T) store.ProductStore {
		resetStore(t, s.ctx, productStore)
		return productStore
	}
}

func (s *MongoProductsFlowSuite) TearDownSuite() {
	for _, c := range s.closers {
		c()
	}
	if s.container != nil {
		if err := s.container.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate MongoDB container", "error", err)
		}
	}
	s.tearDownCommon()
}

func TestProductsFlowMongo(t *testing.T) {
	skipIfIntegrationDisabled(t)
	suite.Run(t, new(MongoProductsFlowSuite))
}

// --------------------------------------------------------------------------
// ------------------------------- PostgreSQL -------------------------------
// --------------------------------------------------------------------------

type PgProductsFlowSuite struct {
	ProductsFlowSuite
	container *postgres.PostgresContainer
	closers   []func()
}

func (s *PgProductsFlowSuite) SetupSuite() {
	s.setupCommon()

	var err error
	s.container, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("products"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")
	connStr, err := s.container.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	cfg := config.StorageConfig{
		Driver: config.DriverPostgres,
		Postgres: pkgconfig.DatabaseConfig{
			URL:     connStr,
			Timeout: 30 * time.Second,
			Migrate: true,
		},
	}
	productStore, closeStore, err := app.OpenStore(s.ctx, cfg, s.logger)
	require.NoError(s.T(), err, "Failed to open PostgreSQL store")
	s.closers = append(s.closers, closeStore)

	s.newStore = func(t *testing.T) store.ProductStore {
		resetStore(t, s.ctx, productStore)
		return productStore
	}
}

func (s *PgProductsFlowSuite) TearDownSuite() {
	for _, c := range s.closers {
		c()
	}
	if s.container != nil {
		if err := s.container.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
	s.tearDownCommon()
}

func TestProductsFlowPostgres(t *testing.T) {
	skipIfIntegrationDisabled(t)
	suite.Run(t, new(PgProductsFlowSuite))
}
