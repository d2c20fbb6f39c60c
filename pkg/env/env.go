// Package env reads the few process knobs consulted before envconfig
// parsing succeeds, such as the logger's output format.
package env

import "os"

// Get returns the environment variable's value, or fallback when the
// variable is unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
