package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single invalid configuration value.
type ValidationError struct {
	Field   string // config field path, e.g. "deploy.health_attempts"
	Value   any
	Message string
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks the Config for invalid values. It returns nil when the
// configuration is usable.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.App.Name == "" {
		errs = append(errs, ValidationError{"app.name", c.App.Name, "must not be empty"})
	}
	if c.App.JobName == "" {
		errs = append(errs, ValidationError{"app.job_name", c.App.JobName, "must not be empty"})
	}
	if c.Pipeline.RunTimeout <= 0 {
		errs = append(errs, ValidationError{"pipeline.run_timeout", c.Pipeline.RunTimeout, "must be positive"})
	}
	if c.Pipeline.StageTimeout <= 0 {
		errs = append(errs, ValidationError{"pipeline.stage_timeout", c.Pipeline.StageTimeout, "must be positive"})
	}
	if c.Pipeline.StageTimeout > c.Pipeline.RunTimeout {
		errs = append(errs, ValidationError{"pipeline.stage_timeout", c.Pipeline.StageTimeout, "must not exceed pipeline.run_timeout"})
	}
	if c.Deploy.HealthAttempts < 1 {
		errs = append(errs, ValidationError{"deploy.health_attempts", c.Deploy.HealthAttempts, "must be at least 1"})
	}
	if c.Deploy.HealthInterval < 0 {
		errs = append(errs, ValidationError{"deploy.health_interval", c.Deploy.HealthInterval, "must not be negative"})
	}
	if c.Artifacts.BaseDir == "" {
		errs = append(errs, ValidationError{"artifacts.base_dir", c.Artifacts.BaseDir, "must not be empty"})
	}
	switch strings.ToUpper(c.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level, "must be one of DEBUG, INFO, WARN, ERROR"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
