// Package config provides centralized configuration management for the
// media merge service and CLI.
//
// # Configuration Sources
//
// Configuration is built from the following sources in order of precedence:
//
//  1. Environment variables (highest priority), including any loaded from
//     a .env file in the working directory
//  2. A YAML file: config.yaml or configs/config.yaml
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables use the MEDIAMERGE_ prefix followed by the
// section and field:
//
//	MEDIAMERGE_SERVER_PORT=8080
//	MEDIAMERGE_LOGGING_LEVEL=debug
//	MEDIAMERGE_PIPELINE_DISTINGUISH_NO_CHANNEL=true
//	MEDIAMERGE_EXPORT_BOM=true
//	MEDIAMERGE_SESSION_TTL=30m
//
// # Path Management
//
// Paths resolves the configured data, export and log directories against
// the executable location:
//
//	paths, err := config.GetPaths(cfg.Paths)
//	err = paths.EnsureDirectories()
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests can start from config.Default(), which needs no environment.
package config
