// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to the settings needed by the HTTP shells, the database pool and the
// reconnect loop while keeping configuration details separate from request
// handling.
package config
