// Package config handles configuration loading, parsing, and validation
// from various sources (.env files, config files, environment variables).
// It provides type-safe access to application settings needed by different
// components while keeping configuration details separate from business logic.
//
// Components never read the environment themselves: the loaded Config is
// passed into constructors at composition time.
package config
