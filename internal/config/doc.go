// Package config provides centralized configuration management for windorbit.
// It handles loading configuration from multiple sources, validation, and
// provides a type-safe API for accessing configuration values.
//
// # Configuration Sources
//
// Configuration is layered in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. YAML configuration file (windorbit.yaml or --config)
//	3. Environment variables (highest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern WINDORBIT_<SECTION>_<FIELD>:
//
//	WINDORBIT_LOGGING_LEVEL=debug
//	WINDORBIT_LOCATOR_HEADLESS=false
//	WINDORBIT_LOCATOR_QUERY_TIMEOUT=3m
//	WINDORBIT_FETCH_FAILURE_POLICY=skip
//	WINDORBIT_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/windorbit.prom
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
package config
