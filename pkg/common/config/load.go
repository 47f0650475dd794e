package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the YAML file.
const (
	EnvNetwork = "STUDIO_NETWORK"
	EnvRPCURL  = "STUDIO_RPC_URL"
	EnvNATSURL = "STUDIO_NATS_URL"
)

var validate = validator.New()

// Load reads the YAML config at path (defaults only when path is empty),
// applies .env / environment overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvNetwork); v != "" {
		c.Network.Name = strings.ToLower(v)
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		c.Network.URL = v
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.NATS.URL = v
	}
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}
	if c.Network.Name == "custom" && c.Network.URL == "" {
		return errors.New("network.url is required for a custom network")
	}
	return nil
}
