package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"
)

// rawFile is the on-disk schema for a YAML or TOML server configuration
// file: a flat map lets a single cast.ToXxxE call coerce whatever scalar
// type the format's decoder produced (YAML and TOML disagree on int vs
// int64 vs float64) into the Config field's real type.
type rawFile map[string]any

// LoadFile reads a YAML (.yml/.yaml) or TOML (.toml) configuration file and
// layers its values onto DefaultConfig(). Unknown keys are ignored so a
// file can carry deployment-specific comments/sections a given binary
// doesn't consume.
//
// Grounded on rivaas-dev-rivaas's config package, the pack's only
// dedicated config-loading library: this mirrors its BurntSushi/toml +
// goccy/go-yaml + spf13/cast combination rather than hand-rolling a parser.
func LoadFile(path string) (*Config, error) {
	raw, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if v, ok := raw["host"]; ok {
		cfg.Host = cast.ToString(v)
	}
	if v, ok := raw["port"]; ok {
		cfg.Port, err = cast.ToIntE(v)
		if err != nil {
			return nil, fmt.Errorf("config: port: %w", err)
		}
	}
	if v, ok := raw["http_buffer"]; ok {
		if cfg.HTTPBufferSize, err = cast.ToIntE(v); err != nil {
			return nil, fmt.Errorf("config: http_buffer: %w", err)
		}
	}
	if v, ok := raw["ws_buffer"]; ok {
		if cfg.WSBufferSize, err = cast.ToIntE(v); err != nil {
			return nil, fmt.Errorf("config: ws_buffer: %w", err)
		}
	}
	if v, ok := raw["nodelay"]; ok {
		if cfg.NoDelay, err = cast.ToBoolE(v); err != nil {
			return nil, fmt.Errorf("config: nodelay: %w", err)
		}
	}
	if v, ok := raw["http_read_timeout_ms"]; ok {
		ms, err := cast.ToInt64E(v)
		if err != nil {
			return nil, fmt.Errorf("config: http_read_timeout_ms: %w", err)
		}
		cfg.HTTPReadTimeout = time.Duration(ms) * time.Millisecond
	}
	if v, ok := raw["ws_read_timeout_ms"]; ok {
		ms, err := cast.ToInt64E(v)
		if err != nil {
			return nil, fmt.Errorf("config: ws_read_timeout_ms: %w", err)
		}
		cfg.WSReadTimeout = time.Duration(ms) * time.Millisecond
	}
	if v, ok := raw["max_header_count"]; ok {
		if cfg.MaxHeaderCount, err = cast.ToIntE(v); err != nil {
			return nil, fmt.Errorf("config: max_header_count: %w", err)
		}
	}
	if v, ok := raw["max_header_bytes"]; ok {
		if cfg.MaxHeaderBytes, err = cast.ToIntE(v); err != nil {
			return nil, fmt.Errorf("config: max_header_bytes: %w", err)
		}
	}
	return cfg, nil
}

func decodeFile(path string) (rawFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	raw := rawFile{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("config: parsing yaml %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("config: parsing toml %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported config extension %q", ext)
	}
	return raw, nil
}
