package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "executor.command")
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

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// maxUnitTimeoutMinutes caps executor.unit_timeout_minutes at one day.
const maxUnitTimeoutMinutes = 24 * 60

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validatePlanning()...)
	errors = append(errors, c.validateExecutor()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateUI()...)

	return errors
}

func (c *Config) validatePlanning() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Planning.Dir) == "" {
		errors = append(errors, ValidationError{
			Field:   "planning.dir",
			Value:   c.Planning.Dir,
			Message: "cannot be empty",
		})
	} else if strings.ContainsRune(c.Planning.Dir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "planning.dir",
			Value:   c.Planning.Dir,
			Message: "contains invalid null character",
		})
	}

	if c.Planning.PlanPattern == "" {
		errors = append(errors, ValidationError{
			Field:   "planning.plan_pattern",
			Value:   c.Planning.PlanPattern,
			Message: "cannot be empty",
		})
	} else if _, err := glob.Compile(c.Planning.PlanPattern); err != nil {
		errors = append(errors, ValidationError{
			Field:   "planning.plan_pattern",
			Value:   c.Planning.PlanPattern,
			Message: fmt.Sprintf("invalid glob: %v", err),
		})
	} else if !strings.HasSuffix(strings.TrimSuffix(c.Planning.PlanPattern, filepath.Ext(c.Planning.PlanPattern)), "-PLAN") {
		// Summary names are derived from the -PLAN segment.
		errors = append(errors, ValidationError{
			Field:   "planning.plan_pattern",
			Value:   c.Planning.PlanPattern,
			Message: "must match names ending in -PLAN (before the extension)",
		})
	}

	for i, f := range c.Planning.ContextFiles {
		if strings.TrimSpace(f) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("planning.context_files[%d]", i),
				Value:   f,
				Message: "cannot be empty",
			})
		}
	}

	return errors
}

func (c *Config) validateExecutor() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Executor.Command) == "" {
		errors = append(errors, ValidationError{
			Field:   "executor.command",
			Value:   c.Executor.Command,
			Message: "cannot be empty",
		})
	}

	if c.Executor.UnitTimeoutMinutes < 0 {
		errors = append(errors, ValidationError{
			Field:   "executor.unit_timeout_minutes",
			Value:   c.Executor.UnitTimeoutMinutes,
			Message: "must be non-negative (0 disables the timeout)",
		})
	}
	if c.Executor.UnitTimeoutMinutes > maxUnitTimeoutMinutes {
		errors = append(errors, ValidationError{
			Field:   "executor.unit_timeout_minutes",
			Value:   c.Executor.UnitTimeoutMinutes,
			Message: fmt.Sprintf("exceeds maximum of %d minutes", maxUnitTimeoutMinutes),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.Enabled && strings.TrimSpace(c.Logging.Dir) == "" {
		errors = append(errors, ValidationError{
			Field:   "logging.dir",
			Value:   c.Logging.Dir,
			Message: "cannot be empty when logging is enabled",
		})
	}

	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative (0 disables rotation)",
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateUI() []ValidationError {
	var errors []ValidationError

	if c.UI.Color != "" && !slices.Contains(ValidColorModes(), c.UI.Color) {
		errors = append(errors, ValidationError{
			Field:   "ui.color",
			Value:   c.UI.Color,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidColorModes(), ", ")),
		})
	}

	return errors
}
