package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xraph/go-utils/log"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file configuration.
const (
	EnvManifest = "LOCATOR_MANIFEST"
	EnvStrict   = "LOCATOR_STRICT"
	EnvWarm     = "LOCATOR_WARM"
	EnvLogLevel = "LOCATOR_LOG_LEVEL"
)

// Config controls application startup.
type Config struct {
	// Manifest is an optional dependency manifest validated at startup.
	Manifest string `yaml:"manifest"`

	// Strict fails startup on manifest problems instead of logging them.
	Strict bool `yaml:"strict"`

	// Warm lists services resolved eagerly once startup checks pass.
	Warm []string `yaml:"warm"`

	Logging log.LoggingConfig `yaml:"logging"`
}

// LoadConfig reads an optional YAML file, then applies LOCATOR_* environment
// overrides. envFiles are loaded with godotenv first (".env" when none are
// given); missing env files are not an error.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvManifest); ok {
		cfg.Manifest = v
	}

	if v, ok := os.LookupEnv(EnvStrict); ok {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStrict, err)
		}

		cfg.Strict = strict
	}

	if v, ok := os.LookupEnv(EnvWarm); ok {
		cfg.Warm = nil

		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Warm = append(cfg.Warm, name)
			}
		}
	}

	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.Logging.Level = log.LogLevel(v)
	}

	return nil
}
