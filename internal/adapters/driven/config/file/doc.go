// Package file provides the file-based configuration adapter.
//
// ConfigStore reads and writes a TOML file (default ~/.onboard-rag/config.toml)
// and layers environment overrides on top: variables from .env files loaded with
// godotenv, then ONBOARD_RAG_* variables from the process environment.
// Overrides are never written back to the file.
package file
