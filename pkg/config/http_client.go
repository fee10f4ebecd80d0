package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// HTTPClientConfig configures an outbound HTTP dependency.
type HTTPClientConfig struct {
	BaseURL string        `koanf:"baseurl"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the HTTP client configuration.
func (c *HTTPClientConfig) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *HTTPClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("HTTP client base URL is not configured")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid HTTP client base URL: %s", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("HTTP client timeout must be greater than 0")
	}
	return nil
}
