package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "EXPORTER"

var durationType = reflect.TypeOf(time.Duration(0))

// LoadConfig loads configuration from a YAML or TOML file. Files ending in
// .toml are decoded as TOML, everything else as YAML. The file is decoded
// over Default(), so fields it leaves out keep their defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration like LoadConfig and then
// applies EXPORTER_* environment variable overrides before validating.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if err := ApplyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnvOverrides sets every field that has a matching environment
// variable. The variable name is EnvPrefix followed by the field's yaml key
// path, joined with underscores and upper-cased. Empty values are ignored.
func ApplyEnvOverrides(cfg *Config, lookup LookupFunc) error {
	return overrideStruct(reflect.ValueOf(cfg).Elem(), EnvPrefix, lookup)
}

func overrideStruct(rv reflect.Value, prefix string, lookup LookupFunc) error {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		key, _, _ := strings.Cut(rt.Field(i).Tag.Get("yaml"), ",")
		if key == "" || key == "-" {
			continue
		}
		name := prefix + "_" + strings.ToUpper(key)

		// Lists are file-only.
		if field.Kind() == reflect.Slice {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := overrideStruct(field, name, lookup); err != nil {
				return err
			}
			continue
		}

		val, ok := lookup(name)
		if !ok || val == "" {
			continue
		}
		if err := setField(field, val); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, val string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	converted, err := cast.FromType(val, field.Type())
	if err != nil {
		return fmt.Errorf("cannot convert %q to %v: %w", val, field.Type(), err)
	}
	field.Set(reflect.ValueOf(converted).Convert(field.Type()))
	return nil
}
