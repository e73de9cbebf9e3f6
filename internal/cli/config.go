package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Output formats accepted by --output
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds CLI settings, seeded from LADDER_* environment variables and
// overridden by flags
type Config struct {
	ServerURL string
	Token     string
	TokenFile string
	AdminKey  string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config seeded from the environment
func DefaultConfig() *Config {
	return &Config{
		ServerURL: envOr("LADDER_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("LADDER_TOKEN"),
		TokenFile: envOr("LADDER_TOKEN_FILE", defaultTokenFile()),
		AdminKey:  os.Getenv("LADDER_ADMIN_KEY"),
		Output:    envOr("LADDER_OUTPUT", OutputText),
	}
}

// Validate checks settings that flags cannot constrain themselves
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", c.Output, OutputText, OutputJSON)
	}
	if c.ServerURL == "" {
		return fmt.Errorf("server URL must not be empty")
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	return nil
}

// LoadToken reads the token file when no token was given directly. A
// missing file leaves the CLI unauthenticated.
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading token file: %w", err)
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken stores token in the token file, readable only by the owner
func (c *Config) SaveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(c.TokenFile, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	c.Token = token
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ladder", "token")
	}
	return filepath.Join(home, ".ladder", "token")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
