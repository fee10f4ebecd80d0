package config

import (
	"fmt"
	"strings"
)

// CSVConfig configures the flat file backend.
type CSVConfig struct {
	Path string `koanf:"path"`
}

// String returns a string representation of the CSV configuration.
func (c *CSVConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- CSV ---\n")
	b.WriteString(fmt.Sprintf("  path: %s\n", c.Path))
	return b.String()
}

func (c *CSVConfig) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("csv file path is not configured")
	}
	return nil
}
