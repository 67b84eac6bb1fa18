// Package config loads process configuration from the environment.
//
// Values come from environment variables, optionally seeded from a .env file
// in the working directory. Command-line flags in main override a few of them
// (host, port, backend, scenario directory) when explicitly set.
package config
