// Package config handles configuration loading, parsing, and validation
// from environment variables (DUDOXX_ prefix) and an optional YAML file.
// Every component receives the section it needs from the Config built here;
// nothing reads the environment directly.
package config
