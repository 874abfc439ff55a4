package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "shutdown.grace_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

const (
	maxGraceMs    = 60_000
	maxTail       = 100_000
	maxPathLength = 4096
)

// ValidShutdownPolicies returns the list of valid shutdown policies
func ValidShutdownPolicies() []string {
	return []string{"drop", "drain"}
}

// ValidColorModes returns the list of valid display color modes
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateDataDir()...)
	errors = append(errors, c.validateAppVersion()...)
	errors = append(errors, c.validateShutdown()...)
	errors = append(errors, c.validateDisplay()...)

	return errors
}

func (c *Config) validateDataDir() []ValidationError {
	var errors []ValidationError

	if c.DataDir == "" {
		return nil
	}

	if strings.ContainsRune(c.DataDir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "data_dir",
			Value:   c.DataDir,
			Message: "path contains invalid null character",
		})
	}
	if len(c.DataDir) > maxPathLength {
		errors = append(errors, ValidationError{
			Field:   "data_dir",
			Value:   c.DataDir,
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
		})
	}

	return errors
}

func (c *Config) validateAppVersion() []ValidationError {
	if strings.ContainsAny(c.AppVersion, "\r\n") {
		return []ValidationError{{
			Field:   "app_version",
			Value:   c.AppVersion,
			Message: "must be a single line",
		}}
	}
	return nil
}

// validateShutdown validates the ShutdownConfig
func (c *Config) validateShutdown() []ValidationError {
	var errors []ValidationError

	policy := strings.ToLower(c.Shutdown.Policy)
	if policy != "" && !slices.Contains(ValidShutdownPolicies(), policy) {
		errors = append(errors, ValidationError{
			Field:   "shutdown.policy",
			Value:   c.Shutdown.Policy,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidShutdownPolicies(), ", ")),
		})
	}

	if c.Shutdown.GraceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "shutdown.grace_ms",
			Value:   c.Shutdown.GraceMs,
			Message: "must be non-negative",
		})
	}
	if c.Shutdown.GraceMs > maxGraceMs {
		errors = append(errors, ValidationError{
			Field:   "shutdown.grace_ms",
			Value:   c.Shutdown.GraceMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxGraceMs),
		})
	}

	return errors
}

// validateDisplay validates the DisplayConfig
func (c *Config) validateDisplay() []ValidationError {
	var errors []ValidationError

	color := strings.ToLower(c.Display.Color)
	if color != "" && !slices.Contains(ValidColorModes(), color) {
		errors = append(errors, ValidationError{
			Field:   "display.color",
			Value:   c.Display.Color,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidColorModes(), ", ")),
		})
	}

	if c.Display.Tail < 0 || c.Display.Tail > maxTail {
		errors = append(errors, ValidationError{
			Field:   "display.tail",
			Value:   c.Display.Tail,
			Message: fmt.Sprintf("must be between 0 and %d", maxTail),
		})
	}

	return errors
}
