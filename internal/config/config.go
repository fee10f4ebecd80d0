package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/product-catalog/pkg/config"
	"github.com/abgdnv/product-catalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Storage drivers understood by StorageConfig.Driver.
const (
	DriverMongo    = "mongo"
	DriverCSV      = "csv"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StorageConfig struct {
	Driver   string                `koanf:"driver"`
	Mongo    config.MongoConfig    `koanf:"mongo"`
	Postgres config.DatabaseConfig `koanf:"postgres"`
	CSV      config.CSVConfig      `koanf:"csv"`
}

// Validate checks the selected driver and only the section it uses.
func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case DriverMongo:
		return c.Mongo.Validate()
	case DriverPostgres:
		return c.Postgres.Validate()
	case DriverCSV:
		return c.CSV.Validate()
	case DriverMemory:
		return nil
	default:
		return fmt.Errorf("unknown storage driver %q, expected one of mongo, csv, postgres, memory", c.Driver)
	}
}

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Storage    StorageConfig           `koanf:"storage"`
	ThirdParty config.HTTPClientConfig `koanf:"thirdparty"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())

	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverMongo:
		b.WriteString(c.Storage.Mongo.String())
	case DriverPostgres:
		b.WriteString(c.Storage.Postgres.String())
	case DriverCSV:
		b.WriteString(c.Storage.CSV.String())
	}

	b.WriteString("\n--- Users API ---\n")
	b.WriteString(c.ThirdParty.String())
	b.WriteString(c.Resilience.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.Storage,
		&c.ThirdParty,
		&c.Resilience,
		&c.NATS,
		&c.Telemetry,
		&c.Log,
		&c.PProf,
		&c.Shutdown,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
