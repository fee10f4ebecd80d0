package configloader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server struct {
		Port    int           `koanf:"port"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"server"`
	Storage struct {
		Driver string `koanf:"driver"`
	} `koanf:"storage"`
}

func (c *testConfig) Validate() error {
	if c.Storage.Driver == "" {
		return errors.New("driver is required")
	}
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_Load_Priority(t *testing.T) {
	// given
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "config.yaml", "server:\n  port: 8080\n  timeout: 5s\nstorage:\n  driver: csv\n")
	envPath := writeFile(t, dir, ".env", "TESTSVC_SERVER_PORT=9090\nOTHER_VALUE=ignored\n")
	t.Setenv("TESTSVC_STORAGE_DRIVER", "mongo")

	// when
	cfg, err := Load[*testConfig]("testsvc", WithConfigFile(yamlPath), WithEnvFile(envPath))

	// then
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port, ".env overrides yaml")
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "mongo", cfg.Storage.Driver, "environment overrides everything")
}

func Test_Load_MissingFiles(t *testing.T) {
	// given
	dir := t.TempDir()
	t.Setenv("TESTSVC_STORAGE_DRIVER", "memory")

	// when
	cfg, err := Load[*testConfig]("testsvc",
		WithConfigFile(filepath.Join(dir, "absent.yaml")),
		WithEnvFile(filepath.Join(dir, "absent.env")))

	// then
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Zero(t, cfg.Server.Port)
}

func Test_Load_ValidationError(t *testing.T) {
	// given
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "config.yaml", "server:\n  port: 8080\n")

	// when
	_, err := Load[*testConfig]("testsvc", WithConfigFile(yamlPath), WithEnvFile(filepath.Join(dir, ".env")))

	// then
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}
