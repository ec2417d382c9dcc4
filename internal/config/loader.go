package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the engine's environment variables.
const EnvPrefix = "MOCAPQA_"

// Load builds a Config by layering sources, lowest precedence first:
//  1. defaults (Default())
//  2. YAML file at path, or $MOCAPQA_CONFIG when path is empty
//  3. environment variables (MOCAPQA_WORKERS, MOCAPQA_PIPELINE__...)
//
// Nested keys use a double underscore in the environment, e.g.
// MOCAPQA_PIPELINE__CLASSIFIER__TRIGGER_DEG_PER_SEC.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		// Double underscore separates nesting levels; single underscores
		// stay inside a key to match the koanf tags.
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
