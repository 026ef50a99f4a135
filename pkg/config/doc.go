// Package config loads application configuration from CHASSIS_-prefixed
// environment variables, with sensible defaults for local development.
package config
