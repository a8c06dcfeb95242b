// Package config loads the configuration of a tmdb-insights run.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file
//	3. Default values (lowest priority)
//
// The file is either given explicitly or found at tmdb.yaml or
// configs/tmdb.yaml. Every key is optional:
//
//	pipeline:
//	  input_path: data/tmdb-movies.csv
//	  output_path: out/tmdb-movies-clean.csv
//	  report_path: out/insights.xlsx
//	  money_mode: magnitude
//	logging:
//	  level: debug
//
// # Environment Variables
//
// Environment variables follow the pattern TMDB_<SECTION>_<KEY>:
//
//	TMDB_PIPELINE_INPUT_PATH=data/tmdb-movies.csv
//	TMDB_PIPELINE_MONEY_MODE=signed
//	TMDB_LOGGING_LEVEL=debug
//	TMDB_TELEMETRY_ENABLED=true
//
// # Validation
//
// Load does not validate. Callers apply command line overrides first, then
// Validate checks the struct tags and reports every invalid key in a single
// CONFIG error.
package config
