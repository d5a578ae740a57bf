// Package config provides configuration management for the exporter.
//
// Configuration is read from a YAML or TOML file (chosen by extension),
// layered over defaults and environment variable overrides, then
// validated.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("exporter.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("exporter.toml")
//
// An empty path skips the file and yields defaults plus overrides.
//
// # Environment Variable Overrides
//
// Every leaf field can be overridden with EXPORTER_<PATH>, where PATH is the
// field's yaml key path joined with underscores and upper-cased:
//
//   - EXPORTER_EXPORT_OUTPUT_DIR overrides export.output_dir
//   - EXPORTER_HISTORY_SQLITE_DRIVER overrides history.sqlite.driver
//   - EXPORTER_SERVER_RATE_LIMIT_REQUESTS_PER_SECOND overrides
//     server.rate_limit.requests_per_second
//
// Values are converted to the field type with github.com/golobby/cast;
// durations use time.ParseDuration syntax ("30s", "720h"). Lists such as
// server.auth.keys can only be set in the file.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the file
//  3. Environment variable overrides
//  4. Validation (all field errors are collected)
//
// # Singleton Pattern
//
//	if err := config.Initialize("exporter.yaml"); err != nil {
//		log.Fatal(err)
//	}
//	cfg := config.GetConfig()
package config
