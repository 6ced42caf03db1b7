// Package config loads the settings shared by the invaders binaries.
package config

import "os"

// PathEnv names the variable holding the config file used when no
// --config flag is given.
const PathEnv = EnvPrefix + "_CONFIG"

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// DefaultPath returns the config file named by PathEnv, if any.
func DefaultPath() string {
	return GetEnv(PathEnv, "")
}
