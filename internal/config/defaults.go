package config

import (
	"github.com/drew/rotacheck/internal/compliance"
	"github.com/drew/rotacheck/internal/tasks"
)

// GetDefaults returns the default configuration
func GetDefaults() Config {
	palette := compliance.DefaultPalette()
	return Config{
		Defaults: DefaultsConfig{
			OutputRoot:   ".rotacheck",
			Threshold:    compliance.DefaultThreshold,
			UIMode:       "basic",
			OnFetchError: "mark",
		},
		Portal: PortalConfig{
			BaseURL:              "https://fclm-portal.amazon.com",
			DetailPath:           "/employee/ppaTimeDetails",
			TimezoneOffset:       "+0200",
			CookieEnv:            "FCLM_COOKIE",
			TimeoutSeconds:       30,
			SkipPreviousSegments: intPtr(4),
			BreakerFailures:      5,
		},
		Tasks: TasksConfig{
			NonProductive:   string(compliance.DefaultPolicy().NonProductive),
			GreenOverride:   compliance.DefaultGreenOverride(),
			ExcludedFromRed: compliance.DefaultExcludedFromRed(),
			Groups:          tasks.DefaultAliases(),
		},
		Colors: ColorsConfig{
			Green:  palette.Green,
			Cyan:   palette.Cyan,
			Red:    palette.Red,
			Yellow: palette.Yellow,
			Error:  palette.Error,
		},
	}
}

// MergeWithDefaults merges loaded config with defaults
func MergeWithDefaults(cfg *Config) Config {
	defaults := GetDefaults()

	if cfg == nil {
		return defaults
	}

	if cfg.Defaults.OutputRoot == "" {
		cfg.Defaults.OutputRoot = defaults.Defaults.OutputRoot
	}
	if cfg.Defaults.Threshold == 0 {
		cfg.Defaults.Threshold = defaults.Defaults.Threshold
	}
	if cfg.Defaults.UIMode == "" {
		cfg.Defaults.UIMode = defaults.Defaults.UIMode
	}
	if cfg.Defaults.OnFetchError == "" {
		cfg.Defaults.OnFetchError = defaults.Defaults.OnFetchError
	}

	if cfg.Portal.BaseURL == "" {
		cfg.Portal.BaseURL = defaults.Portal.BaseURL
	}
	if cfg.Portal.DetailPath == "" {
		cfg.Portal.DetailPath = defaults.Portal.DetailPath
	}
	if cfg.Portal.TimezoneOffset == "" {
		cfg.Portal.TimezoneOffset = defaults.Portal.TimezoneOffset
	}
	if cfg.Portal.CookieEnv == "" {
		cfg.Portal.CookieEnv = defaults.Portal.CookieEnv
	}
	if cfg.Portal.TimeoutSeconds == 0 {
		cfg.Portal.TimeoutSeconds = defaults.Portal.TimeoutSeconds
	}
	if cfg.Portal.SkipPreviousSegments == nil {
		cfg.Portal.SkipPreviousSegments = defaults.Portal.SkipPreviousSegments
	}
	if cfg.Portal.BreakerFailures == 0 {
		cfg.Portal.BreakerFailures = defaults.Portal.BreakerFailures
	}

	if cfg.Tasks.NonProductive == "" {
		cfg.Tasks.NonProductive = defaults.Tasks.NonProductive
	}
	if cfg.Tasks.GreenOverride == nil {
		cfg.Tasks.GreenOverride = defaults.Tasks.GreenOverride
	}
	if cfg.Tasks.ExcludedFromRed == nil {
		cfg.Tasks.ExcludedFromRed = defaults.Tasks.ExcludedFromRed
	}
	if cfg.Tasks.Groups == nil {
		cfg.Tasks.Groups = defaults.Tasks.Groups
	}

	if cfg.Colors.Green == "" {
		cfg.Colors.Green = defaults.Colors.Green
	}
	if cfg.Colors.Cyan == "" {
		cfg.Colors.Cyan = defaults.Colors.Cyan
	}
	if cfg.Colors.Red == "" {
		cfg.Colors.Red = defaults.Colors.Red
	}
	if cfg.Colors.Yellow == "" {
		cfg.Colors.Yellow = defaults.Colors.Yellow
	}
	if cfg.Colors.Error == "" {
		cfg.Colors.Error = defaults.Colors.Error
	}

	return *cfg
}

func intPtr(i int) *int {
	return &i
}
