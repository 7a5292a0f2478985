package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	RequiredFields []string
}

var (
	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {
			RequiredFields: []string{"SERVER_PORT", "DB_DRIVER", "JWT_SECRET"},
		},
		Test: {
			RequiredFields: []string{"SERVER_PORT", "DB_DRIVER", "JWT_SECRET"},
		},
		CI: {
			RequiredFields: []string{"SERVER_PORT", "DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "JWT_SECRET"},
		},
		Production: {
			RequiredFields: []string{"SERVER_PORT", "DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "JWT_SECRET"},
		},
	}
)

func fieldValue(cfg *Config, name string) string {
	switch name {
	case "SERVER_PORT":
		return cfg.ServerPort
	case "DB_DRIVER":
		return cfg.DBDriver
	case "DB_HOST":
		return cfg.DBHost
	case "DB_PORT":
		return cfg.DBPort
	case "DB_USER":
		return cfg.DBUser
	case "DB_PASSWORD":
		return cfg.DBPassword
	case "DB_NAME":
		return cfg.DBName
	case "JWT_SECRET":
		return cfg.JWTSecret
	}
	return ""
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	reqs := requirements[env]

	var errors []string

	for _, field := range reqs.RequiredFields {
		if fieldValue(cfg, field) == "" {
			errors = append(errors, ValidationError{Field: field, Message: "is required"}.Error())
		}
	}

	switch cfg.DBDriver {
	case "postgres":
	case "sqlite":
		if cfg.SQLitePath == "" {
			errors = append(errors, ValidationError{Field: "SQLITE_PATH", Message: "is required for the sqlite driver"}.Error())
		}
		if env == Production {
			errors = append(errors, ValidationError{Field: "DB_DRIVER", Message: "sqlite is not allowed in production"}.Error())
		}
	default:
		errors = append(errors, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)}.Error())
	}

	if _, err := strconv.Atoi(cfg.ServerPort); cfg.ServerPort != "" && err != nil {
		errors = append(errors, ValidationError{Field: "SERVER_PORT", Message: "must be numeric"}.Error())
	}

	if env == Production && cfg.JWTSecret == "dev-secret" {
		errors = append(errors, ValidationError{Field: "JWT_SECRET", Message: "must not use the development default"}.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
