package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// #region load

// Load reads path (YAML or TOML by extension) over Default(), applies
// environment overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse toml %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, filepath.Ext(path))
	}
	return nil
}

// #endregion load

// #region env

// applyEnv overlays REASONER_* variables. Feature switches follow the
// kill-switch convention: only the literal "false" disables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("REASONER_MAX_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REASONER_MAX_STEPS: %w", err)
		}
		cfg.MaxSteps = n
	}
	if v := os.Getenv("REASONER_TIMEOUT_MS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("REASONER_TIMEOUT_MS: %w", err)
		}
		cfg.TimeoutMs = n
	}
	if os.Getenv("REASONER_REFLECTION_ENABLED") == "false" {
		cfg.EnableSelfReflection = false
	}
	if os.Getenv("REASONER_BRANCHING_ENABLED") == "false" {
		cfg.EnableConditionalBranching = false
	}
	if os.Getenv("REASONER_COMPLEXITY_ENABLED") == "false" {
		cfg.EnableDynamicComplexity = false
	}

	cfg.Generator.Provider = envOr("REASONER_GENERATOR", cfg.Generator.Provider)
	cfg.Generator.Model = envOr("REASONER_MODEL", cfg.Generator.Model)
	cfg.Generator.Addr = envOr("REASONER_CODEC_ADDR", cfg.Generator.Addr)
	cfg.Store.Path = envOr("REASONER_DB", cfg.Store.Path)

	if cfg.Generator.APIKey == "" {
		switch cfg.Generator.Provider {
		case "anthropic":
			cfg.Generator.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			cfg.Generator.APIKey = os.Getenv("OPENAI_API_KEY")
		case "google":
			cfg.Generator.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion env

// #region marshal

// YAML renders the effective configuration for display, with secrets blanked.
func (c Config) YAML() ([]byte, error) {
	if c.Generator.APIKey != "" {
		c.Generator.APIKey = "********"
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

// #endregion marshal
