// Package config handles loading, validation, and merging of rotacheck configuration files.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/drew/rotacheck/internal/compliance"
	"github.com/drew/rotacheck/internal/model"
	"github.com/drew/rotacheck/internal/tasks"
)

// DefaultConfigFile is looked up in the working directory when no path is given
const DefaultConfigFile = "rotacheck.toml"

// Config represents the complete rotacheck configuration
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Portal   PortalConfig   `toml:"portal"`
	Tasks    TasksConfig    `toml:"tasks"`
	Colors   ColorsConfig   `toml:"colors"`

	// Directory the config was loaded from; alias files resolve against it
	baseDir string
}

// DefaultsConfig holds global defaults
type DefaultsConfig struct {
	// Directory for run outputs and logs
	OutputRoot string `toml:"outputRoot" doc:"Directory for run outputs and logs"`
	// Minute threshold used when no preference has been stored
	Threshold int `toml:"threshold" doc:"Minute threshold used when no preference has been stored"`
	// UI mode: basic or full
	UIMode string `toml:"uiMode" doc:"UI mode: basic or full" enum:"basic,full"`
	// What to do when a detail fetch fails
	OnFetchError string `toml:"onFetchError" doc:"What to do when a detail fetch fails: mark the row and continue, or halt the remaining rows" enum:"mark,halt"`
}

// PortalConfig describes how detail documents are fetched
type PortalConfig struct {
	// Portal base URL
	BaseURL string `toml:"baseURL" doc:"Portal base URL"`
	// Path of the per-employee detail report
	DetailPath string `toml:"detailPath" doc:"Path of the per-employee detail report"`
	// UTC offset appended to the report's start and end times
	TimezoneOffset string `toml:"timezoneOffset" doc:"UTC offset appended to the detail report's start and end times (e.g. +0200)"`
	// Environment variable holding the session cookie
	CookieEnv string `toml:"cookieEnv" doc:"Environment variable holding the portal session cookie"`
	// HTTP timeout per detail request
	TimeoutSeconds int `toml:"timeoutSeconds" doc:"HTTP timeout per detail request, in seconds"`
	// Leading segments dropped from previous-day documents
	SkipPreviousSegments *int `toml:"skipPreviousSegments" doc:"Leading segments dropped from previous-day documents (header and summary rows)"`
	// Consecutive failures before the circuit breaker opens
	BreakerFailures int `toml:"breakerFailures" doc:"Consecutive fetch failures before the portal circuit breaker opens"`
}

// TasksConfig holds the task grouping and exemption data
type TasksConfig struct {
	// Task that is always shown cyan
	NonProductive string `toml:"nonProductive" doc:"Task name that is always shown cyan"`
	// Tasks that are always green
	GreenOverride []string `toml:"greenOverride" doc:"Support and admin tasks that are always green"`
	// Tasks that may be yellow but never red
	ExcludedFromRed []string `toml:"excludedFromRed" doc:"Tasks that can be flagged yellow but never red"`
	// Extra alias tables (doublestar globs relative to the config file)
	AliasFiles []string `toml:"aliasFiles" doc:"Extra alias tables, as doublestar globs relative to the config file"`
	// Raw task label to canonical task
	Groups map[string]string `toml:"groups"`
}

// ColorsConfig holds the row background colors
type ColorsConfig struct {
	Green  string `toml:"green" doc:"Compliant rows"`
	Cyan   string `toml:"cyan" doc:"Non-productive rows"`
	Red    string `toml:"red" doc:"Same task over threshold on both days"`
	Yellow string `toml:"yellow" doc:"Same task over threshold on the previous day"`
	Error  string `toml:"error" doc:"Rows whose detail fetch failed"`
}

// aliasFile is the layout of a file matched by tasks.aliasFiles
type aliasFile struct {
	Groups map[string]string `toml:"groups"`
}

// LoadConfig loads configuration from a TOML file.
// A missing default file is not an error; nil is returned so defaults apply.
func LoadConfig(path string) (*Config, error) {
	explicitPath := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicitPath {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, nil
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	undecoded := metadata.Undecoded()
	if len(undecoded) > 0 {
		var unknownFields []string
		for _, key := range undecoded {
			unknownFields = append(unknownFields, key.String())
		}
		return nil, fmt.Errorf("unknown fields in config: %s", strings.Join(unknownFields, ", "))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.baseDir = filepath.Dir(abs)

	return &cfg, nil
}

// BaseDir returns the directory the config file was loaded from
func (c *Config) BaseDir() string {
	if c.baseDir == "" {
		return "."
	}
	return c.baseDir
}

// SkipPrevious returns the number of leading previous-day segments to drop
func (c *Config) SkipPrevious() int {
	if c.Portal.SkipPreviousSegments == nil {
		return 0
	}
	return *c.Portal.SkipPreviousSegments
}

// Policy builds the classifier policy from the task and color sections
func (c *Config) Policy() compliance.Policy {
	return compliance.Policy{
		GreenOverride:   compliance.NewTaskSet(c.Tasks.GreenOverride...),
		ExcludedFromRed: compliance.NewTaskSet(c.Tasks.ExcludedFromRed...),
		NonProductive:   model.CanonicalTask(c.Tasks.NonProductive),
		Palette: compliance.Palette{
			Green:  c.Colors.Green,
			Cyan:   c.Colors.Cyan,
			Red:    c.Colors.Red,
			Yellow: c.Colors.Yellow,
			Error:  c.Colors.Error,
		},
	}
}

// Aliases merges tasks.groups with every file matched by tasks.aliasFiles.
// Files are applied in sorted path order after the inline table, so a file
// entry overrides an inline one.
func (c *Config) Aliases() (map[string]string, error) {
	merged := make(map[string]string, len(c.Tasks.Groups))
	for raw, group := range c.Tasks.Groups {
		merged[raw] = group
	}

	files, err := c.aliasFilePaths()
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		var af aliasFile
		if _, err := toml.DecodeFile(path, &af); err != nil {
			return nil, fmt.Errorf("failed to parse alias file %s: %w", path, err)
		}
		for raw, group := range af.Groups {
			merged[raw] = group
		}
	}

	return merged, nil
}

// Normalizer builds the task normalizer from the merged alias tables
func (c *Config) Normalizer() (*tasks.Normalizer, error) {
	aliases, err := c.Aliases()
	if err != nil {
		return nil, err
	}
	return tasks.NewNormalizer(aliases), nil
}

func (c *Config) aliasFilePaths() ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, pattern := range c.Tasks.AliasFiles {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(c.BaseDir(), pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid alias file pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// GenerateDefaultConfig creates a minimal rotacheck.toml file
func GenerateDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	return writeConfig(f, defaultConfigContent)
}

// writeConfig writes content and closes w; a failed close is reported when the write succeeded
func writeConfig(w io.WriteCloser, content string) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", cerr)
		}
	}()

	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

const defaultConfigContent = `# rotacheck configuration file

[defaults]
threshold = 210
onFetchError = "mark"

[portal]
baseURL = "https://fclm-portal.amazon.com"
timezoneOffset = "+0200"
cookieEnv = "FCLM_COOKIE"

[tasks]
nonProductive = "5S / Non Productive"
excludedFromRed = ["Yard Marshal", "Sort Problem Solve"]

[tasks.groups]
"Induct Line Loader" = "Inbound"
"Pusher" = "Inbound"
"Inbound Dock W/S" = "Inbound"
"ADTA Container Building" = "Stow"
"Container Building" = "Stow"
`
