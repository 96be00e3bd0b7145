package config

import (
	"fmt"
	"os"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/suit-tools/manifest-generator/suit-golang/pkg/suit"
)

// Config represents generator defaults loaded from a suitgen.yaml
// file. Command-line flags override environment variables, which
// override these values.
type Config struct {
	// Fill is the value an unwritten byte has in memory.
	Fill uint8 `yaml:"fill"`

	// Compress enables payload compression.
	Compress bool `yaml:"compress"`

	// DigestAlgorithm names the payload digest algorithm.
	DigestAlgorithm string `yaml:"digest_algorithm"`

	// Journal is the path of the generation journal database. Empty
	// disables the journal.
	Journal string `yaml:"journal"`
}

// DefaultConfig returns the built-in generator defaults.
func DefaultConfig() *Config {
	return &Config{
		Fill:            0xff,
		Compress:        true,
		DigestAlgorithm: "sha256",
	}
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := suit.ParseAlgorithm(c.DigestAlgorithm); err != nil {
		return err
	}
	return nil
}

// ApplyEnvironment overlays SUITGEN_* environment variables onto the
// configuration.
func (c *Config) ApplyEnvironment() {
	c.Fill = uint8(env.Int("SUITGEN_FILL", int(c.Fill)))
	if env.Has("SUITGEN_COMPRESS") {
		c.Compress = env.Bool("SUITGEN_COMPRESS")
	}
	c.DigestAlgorithm = env.Str("SUITGEN_DIGEST_ALGORITHM", c.DigestAlgorithm)
	c.Journal = env.Str("SUITGEN_JOURNAL", c.Journal)
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
