package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult holds the results of config validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// ValidateConfig validates an already-loaded config
func ValidateConfig(cfg *Config) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	if cfg == nil {
		return result, nil
	}

	validateAll(cfg, result)

	return result, nil
}

// ValidateConfigFile validates a TOML config file
func ValidateConfigFile(path string) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	// Try to parse as TOML first
	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Message: fmt.Sprintf("Invalid TOML syntax: %v", err),
		})
		return result, nil
	}

	// Check for unknown fields
	undecoded := metadata.Undecoded()
	if len(undecoded) > 0 {
		result.Valid = false
		for _, key := range undecoded {
			result.Errors = append(result.Errors, ValidationError{
				Field:   key.String(),
				Message: "Unknown configuration field",
			})
		}
	}

	if abs, err := filepath.Abs(path); err == nil {
		cfg.baseDir = filepath.Dir(abs)
	}

	validateAll(&cfg, result)

	// Alias files are only resolvable once the base directory is known
	if result.Valid {
		if _, err := cfg.Aliases(); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   "tasks.aliasFiles",
				Message: err.Error(),
			})
		}
	}

	return result, nil
}

func validateAll(cfg *Config, result *ValidationResult) {
	validateDefaults(&cfg.Defaults, result)
	validatePortal(&cfg.Portal, result)
	validateTasks(&cfg.Tasks, result)
	validateColors(&cfg.Colors, result)
}

// validateDefaults validates the defaults section
func validateDefaults(defaults *DefaultsConfig, result *ValidationResult) {
	// Validate UIMode
	if defaults.UIMode != "" {
		validModes := []string{"basic", "full"}
		if !contains(validModes, defaults.UIMode) {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   "defaults.uiMode",
				Message: fmt.Sprintf("Invalid UI mode '%s'. Valid options: %s", defaults.UIMode, strings.Join(validModes, ", ")),
			})
		}
	}

	if defaults.OnFetchError != "" {
		validPolicies := []string{"mark", "halt"}
		if !contains(validPolicies, defaults.OnFetchError) {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   "defaults.onFetchError",
				Message: fmt.Sprintf("Invalid fetch error policy '%s'. Valid options: %s", defaults.OnFetchError, strings.Join(validPolicies, ", ")),
			})
		}
	}

	if defaults.Threshold < 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "defaults.threshold",
			Message: "Threshold must be non-negative",
		})
	}
}

var offsetPattern = regexp.MustCompile(`^[+-]\d{4}$`)

// validatePortal validates the portal section
func validatePortal(portal *PortalConfig, result *ValidationResult) {
	if portal.BaseURL != "" {
		u, err := url.Parse(portal.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   "portal.baseURL",
				Message: fmt.Sprintf("Base URL '%s' must be an absolute http or https URL", portal.BaseURL),
			})
		} else if u.Scheme == "http" {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "portal.baseURL",
				Message: "Session cookie will be sent over plain http",
			})
		}
	}

	if portal.DetailPath != "" && !strings.HasPrefix(portal.DetailPath, "/") {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "portal.detailPath",
			Message: "Detail path must start with '/'",
		})
	}

	if portal.TimezoneOffset != "" && !offsetPattern.MatchString(portal.TimezoneOffset) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "portal.timezoneOffset",
			Message: fmt.Sprintf("Invalid timezone offset '%s'. Expected a form like +0200", portal.TimezoneOffset),
		})
	}

	if portal.TimeoutSeconds < 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "portal.timeoutSeconds",
			Message: "Timeout must be non-negative",
		})
	}

	if portal.SkipPreviousSegments != nil && *portal.SkipPreviousSegments < 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "portal.skipPreviousSegments",
			Message: "Skipped segment count must be non-negative",
		})
	}

	if portal.BreakerFailures < 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "portal.breakerFailures",
			Message: "Breaker failure count must be non-negative",
		})
	}
}

// validateTasks validates the tasks section
func validateTasks(t *TasksConfig, result *ValidationResult) {
	for _, name := range t.GreenOverride {
		if contains(t.ExcludedFromRed, name) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "tasks.excludedFromRed",
				Message: fmt.Sprintf("'%s' is also in greenOverride; the exclusion has no effect", name),
			})
		}
	}

	if t.NonProductive != "" && contains(t.GreenOverride, t.NonProductive) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "tasks.nonProductive",
			Message: fmt.Sprintf("'%s' is also in greenOverride and will never be shown cyan", t.NonProductive),
		})
	}

	// Aliases are resolved in a single step
	for raw, group := range t.Groups {
		if strings.TrimSpace(group) == "" {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fmt.Sprintf("tasks.groups.%s", raw),
				Message: "Alias target must not be empty",
			})
			continue
		}
		if next, ok := t.Groups[group]; ok && next != group {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   fmt.Sprintf("tasks.groups.%s", raw),
				Message: fmt.Sprintf("Alias target '%s' is itself aliased to '%s'; aliases are not chained", group, next),
			})
		}
	}

	for _, pattern := range t.AliasFiles {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   "tasks.aliasFiles",
				Message: fmt.Sprintf("Invalid glob pattern '%s'", pattern),
			})
		}
	}
}

var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// validateColors warns about values that are not CSS hex colors.
// Named CSS colors still render, so these are not errors.
func validateColors(c *ColorsConfig, result *ValidationResult) {
	colors := []struct {
		field string
		value string
	}{
		{"colors.green", c.Green},
		{"colors.cyan", c.Cyan},
		{"colors.red", c.Red},
		{"colors.yellow", c.Yellow},
		{"colors.error", c.Error},
	}

	for _, col := range colors {
		if col.value != "" && !hexColorPattern.MatchString(col.value) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   col.field,
				Message: fmt.Sprintf("'%s' is not a hex color", col.value),
			})
		}
	}
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// PrintValidationResult prints the validation result in a human-readable format
func PrintValidationResult(w io.Writer, path string, result *ValidationResult) {
	fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintf(w, "📋 Validating: %s\n", path)

	if result.Valid && len(result.Warnings) == 0 {
		fmt.Fprintln(w, "✅ Configuration is valid!")
		fmt.Fprintln(w)
		return
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "\n❌ Found %d error(s):\n", len(result.Errors))
		for _, err := range result.Errors {
			if err.Field != "" {
				fmt.Fprintf(w, "  • [%s] %s\n", err.Field, err.Message)
			} else {
				fmt.Fprintf(w, "  • %s\n", err.Message)
			}
		}
		fmt.Fprintln(w)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(w, "⚠️  Found %d warning(s):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			if warn.Field != "" {
				fmt.Fprintf(w, "  • [%s] %s\n", warn.Field, warn.Message)
			} else {
				fmt.Fprintf(w, "  • %s\n", warn.Message)
			}
		}
		fmt.Fprintln(w)
	}

	if !result.Valid {
		fmt.Fprintln(w, "❌ Configuration is INVALID")
	} else {
		fmt.Fprintln(w, "✅ Configuration is valid (with warnings)")
	}
	fmt.Fprintln(w)
}
