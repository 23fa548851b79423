package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/compstore/pkg/compstore"
)

// FromFile loads configuration from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// StoreOptions converts the recognized configuration keys into store
// options. Recognized keys:
//
//	store_id: string  - overrides the generated store id
//	metrics:  bool    - enable OpenTelemetry metrics
//	tracing:  bool    - enable OpenTelemetry tracing
func (c Config) StoreOptions() []compstore.StoreOption {
	var opts []compstore.StoreOption
	if id := c.String("store_id", ""); id != "" {
		opts = append(opts, compstore.WithStoreID(id))
	}
	if c.Has("metrics") {
		opts = append(opts, compstore.WithMetrics(c.Bool("metrics", false)))
	}
	if c.Has("tracing") {
		opts = append(opts, compstore.WithTracing(c.Bool("tracing", false)))
	}
	return opts
}
