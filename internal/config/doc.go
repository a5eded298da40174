// Package config handles configuration loading for latch-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from LATCH_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/latch/gateway.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${LATCH_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	upstream:
//	  connect_timeout: "10s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # MCP endpoint and health checks
//
// Database:
//
//	database:
//	  path: "/var/lib/latch/gateway.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${LATCH_JWT_SECRET}"   # Required
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/latch/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
