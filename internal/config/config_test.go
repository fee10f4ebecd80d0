package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/abgdnv/product-catalog/pkg/config"
	"github.com/abgdnv/product-catalog/pkg/config/configloader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_RepositoryDefaults(t *testing.T) {
	// given
	configFile := filepath.Join("..", "..", "config.yaml")
	t.Setenv("PRODUCT_STORAGE_DRIVER", "mongo")

	// when
	cfg, err := configloader.Load[*Config]("product",
		configloader.WithConfigFile(configFile),
		configloader.WithEnvFile(filepath.Join(t.TempDir(), ".env")))

	// then
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPServer.Port)
	assert.Equal(t, DriverMongo, cfg.Storage.Driver)
	assert.Equal(t, "products", cfg.Storage.Mongo.Collection)
	assert.Equal(t, "https://jsonplaceholder.typicode.com", cfg.ThirdParty.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.ThirdParty.Timeout)
	assert.Equal(t, uint(3), cfg.Resilience.Retry.MaxAttempts)
	assert.False(t, cfg.NATS.Enabled)
	assert.Contains(t, cfg.String(), "driver: mongo")
}

func Test_StorageConfig_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		storage   StorageConfig
		expectErr bool
	}{
		{
			name:    "memory needs nothing",
			storage: StorageConfig{Driver: DriverMemory},
		},
		{
			name:    "csv with path",
			storage: StorageConfig{Driver: DriverCSV, CSV: config.CSVConfig{Path: "data/products.csv"}},
		},
		{
			name:      "csv without path",
			storage:   StorageConfig{Driver: DriverCSV},
			expectErr: true,
		},
		{
			name: "mongo ignores an invalid postgres section",
			storage: StorageConfig{
				Driver:   DriverMongo,
				Mongo:    config.MongoConfig{URL: "mongodb://localhost:27017", Database: "catalog", Collection: "products", Timeout: time.Second},
				Postgres: config.DatabaseConfig{URL: "not a url"},
			},
		},
		{
			name:      "postgres without url",
			storage:   StorageConfig{Driver: DriverPostgres, Postgres: config.DatabaseConfig{Timeout: time.Second}},
			expectErr: true,
		},
		{
			name:      "unknown driver",
			storage:   StorageConfig{Driver: "redis"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.storage.Validate()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
