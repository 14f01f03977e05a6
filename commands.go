package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drew/rotacheck/internal/config"
)

func newThresholdCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threshold",
		Short: "Show or change the stored minute threshold",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the threshold the next run will use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(g.configPath)
			if err != nil {
				return err
			}
			p, closePrefs, err := openPrefs(g, s)
			if err != nil {
				return err
			}
			defer func() { _ = closePrefs() }()

			source := "default"
			if _, ok := p.StoredThreshold(); ok {
				source = "stored"
			} else if s.configPath != "" {
				source = "config"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d (%s)\n", p.Threshold(), source)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <minutes>",
		Short: "Store a new threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(g.configPath)
			if err != nil {
				return err
			}
			p, closePrefs, err := openPrefs(g, s)
			if err != nil {
				return err
			}
			defer func() { _ = closePrefs() }()

			ok, err := p.SetThreshold(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("not a valid threshold: %q (threshold unchanged at %d)", args[0], p.Threshold())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Threshold set to %d mins\n", p.Threshold())
			return nil
		},
	})

	return cmd
}

func newThemeCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or toggle the dark appearance of annotated reports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current appearance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(g.configPath)
			if err != nil {
				return err
			}
			p, closePrefs, err := openPrefs(g, s)
			if err != nil {
				return err
			}
			defer func() { _ = closePrefs() }()

			fmt.Fprintln(cmd.OutOrStdout(), themeName(p.DarkMode()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(g.configPath)
			if err != nil {
				return err
			}
			p, closePrefs, err := openPrefs(g, s)
			if err != nil {
				return err
			}
			defer func() { _ = closePrefs() }()

			dark, err := p.ToggleDarkMode()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), themeName(dark))
			return nil
		},
	})

	return cmd
}

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}

func newValidateCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-file...]",
		Short: "Validate config files",
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				path := g.configPath
				if path == "" {
					path = config.DefaultConfigFile
				}
				files = []string{path}
			}

			hasErrors := false
			for _, path := range files {
				result, err := config.ValidateConfigFile(path)
				if err != nil {
					return err
				}
				config.PrintValidationResult(cmd.OutOrStdout(), path, result)
				if !result.Valid {
					hasErrors = true
				}
			}

			if hasErrors {
				return fmt.Errorf("config validation failed")
			}
			return nil
		},
	}
}

func newInitCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + config.DefaultConfigFile,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.configPath
			if path == "" {
				path = config.DefaultConfigFile
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", path)
			return nil
		},
	}
}
