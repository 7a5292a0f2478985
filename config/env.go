package config

import (
	"os"
	"strings"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment reads ENV; CI=true always wins. Unknown values fall back
// to development.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch env := Environment(strings.ToLower(os.Getenv("ENV"))); env {
	case Production, Test, Development:
		return env
	default:
		return Development
	}
}

// GinMode maps the environment onto gin's debug, test and release modes.
func GinMode() string {
	switch GetEnvironment() {
	case Production:
		return "release"
	case Test, CI:
		return "test"
	}
	return "debug"
}
