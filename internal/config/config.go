// Package config resolves the factory's runtime options from the environment
// and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

const (
	// EnvContextSwitch toggles the resolution context switch.
	EnvContextSwitch = "XMLFACTORY_CONTEXT_SWITCH"
	// EnvConfigFile names a YAML file to load before environment overrides.
	EnvConfigFile = "XMLFACTORY_CONFIG"
)

// Config holds the options read at factory construction.
type Config struct {
	Limits        LimitsConfig `yaml:"limits"`
	ContextSwitch bool         `yaml:"context-switch"`
}

// LimitsConfig mirrors xmlparse.Limits for YAML input.
type LimitsConfig struct {
	MaxDepth           int `yaml:"max-depth"`
	MaxAttrs           int `yaml:"max-attrs"`
	MaxTokenSize       int `yaml:"max-token-size"`
	MaxEntityExpansion int `yaml:"max-entity-expansion"`
}

// ParseLimits converts to the parser limits.
func (l LimitsConfig) ParseLimits() xmlparse.Limits {
	return xmlparse.Limits{
		MaxDepth:           l.MaxDepth,
		MaxAttrs:           l.MaxAttrs,
		MaxTokenSize:       l.MaxTokenSize,
		MaxEntityExpansion: l.MaxEntityExpansion,
	}
}

// Default returns the zero configuration: no context switch, default limits.
func Default() Config {
	return Config{}
}

// Validate rejects negative limits.
func (c Config) Validate() error {
	return c.Limits.ParseLimits().Validate()
}

// Source yields a configuration.
type Source interface {
	Load() (Config, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Config, error)

func (f SourceFunc) Load() (Config, error) { return f() }

// Static always returns cfg.
func Static(cfg Config) Source {
	return SourceFunc(func() (Config, error) { return cfg, nil })
}

// ParseBool reports whether s reads as true. Only "true", in any case, is
// true; everything else, including malformed input, is false.
func ParseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// File reads YAML configuration from path.
func File(path string) Source {
	return SourceFunc(func() (Config, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		return Decode(data)
	})
}

// Decode parses YAML configuration. Unknown keys are rejected.
func Decode(data []byte) (Config, error) {
	cfg := Default()
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Env layers the environment over the file named by XMLFACTORY_CONFIG.
// lookup defaults to os.LookupEnv.
func Env(lookup func(string) (string, bool)) Source {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return SourceFunc(func() (Config, error) {
		cfg := Default()
		if path, ok := lookup(EnvConfigFile); ok && path != "" {
			loaded, err := File(path).Load()
			if err != nil {
				return Config{}, err
			}
			cfg = loaded
		}
		if v, ok := lookup(EnvContextSwitch); ok {
			cfg.ContextSwitch = ParseBool(v)
		}
		return cfg, nil
	})
}
