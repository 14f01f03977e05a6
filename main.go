// rotacheck
//
// Annotates a daily labor report with job-rotation compliance verdicts.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/drew/rotacheck/internal/config"
	"github.com/drew/rotacheck/internal/prefs"
)

var version = "dev"

// errViolations is returned by run --fail-on-red when any row is red
var errViolations = errors.New("rotation violations found")

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
	prefsPath  string
	verbose    bool
	color      string
}

func main() {
	// A missing .env is fine; the cookie may come from the real environment
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	ro := &runOptions{}

	root := &cobra.Command{
		Use:   "rotacheck",
		Short: "Flag employees who stayed on the same task too long",
		Long: `rotacheck reads a daily labor report, fetches each employee's time
details for the report date and the day before, and marks every row with
the previous day's long tasks, the current task and a compliance color.

With no subcommand, rotacheck behaves like 'rotacheck run'.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runE(cmd, g, ro)
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to config file (default: "+config.DefaultConfigFile+")")
	root.PersistentFlags().StringVar(&g.prefsPath, "prefs", "", "Path to the preferences database (default: "+prefs.DefaultPath()+")")
	root.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Verbose logging")
	root.PersistentFlags().StringVar(&g.color, "color", "auto", "Colored output: auto, always, never")
	addRunFlags(root, ro)

	root.AddCommand(
		newRunCmd(g),
		newServeCmd(g),
		newThresholdCmd(g),
		newThemeCmd(g),
		newValidateCmd(g),
		newInitCmd(g),
	)

	return root
}

// settings is the merged configuration of one invocation
type settings struct {
	cfg config.Config
	// File the config was read from; empty when running on defaults
	configPath string
}

func loadSettings(path string) (*settings, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	loaded := path
	if cfg != nil && loaded == "" {
		loaded = config.DefaultConfigFile
	}

	merged := config.MergeWithDefaults(cfg)
	result, err := config.ValidateConfig(&merged)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("invalid config: %w", result.Errors[0])
	}

	return &settings{cfg: merged, configPath: loaded}, nil
}

// openPrefs opens the preference store; the config threshold is the fallback
func openPrefs(g *globalOptions, s *settings) (*prefs.Preferences, func() error, error) {
	var (
		store *prefs.SQLiteStore
		err   error
	)
	if g.prefsPath != "" {
		store, err = prefs.Open(g.prefsPath)
	} else {
		store, err = prefs.OpenDefault()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	return prefs.New(store, s.cfg.Defaults.Threshold), store.Close, nil
}
