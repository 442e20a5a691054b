// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration commands.
//
// Examples:
//
//	unirag config init
//	unirag config show
//	unirag config get api.base_url
//	unirag config set api.base_url https://rag.mfu.ac.th
//	unirag config set chat.reveal_interval 30ms
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/unirag-tui/internal/config"
)

func newConfigCommand(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Show and edit the configuration file",
		Long: `Show and edit ~/.unirag/config.toml.

UNIRAG_* environment variables override the file; "config show" prints the
effective values.`,
	}
	cmd.AddCommand(
		newConfigInitCommand(s),
		newConfigShowCommand(s),
		newConfigPathCommand(s),
		newConfigGetCommand(s),
		newConfigSetCommand(s),
	)
	return cmd
}

// configPath is the file the config commands read and write.
func (s *cliState) configPath() (string, error) {
	if s.opts.configPath != "" {
		return s.opts.configPath, nil
	}
	return config.ConfigPathTOML()
}

func newConfigInitCommand(s *cliState) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := s.configPath()
			if err != nil {
				return &ConfigError{Err: err}
			}
			_, statErr := os.Stat(path)
			exists := statErr == nil
			data := ConfigPathData{Path: path, Exists: exists}
			if !exists || force {
				if err := config.SaveTOML(config.Default(), path); err != nil {
					return &ConfigError{Err: err}
				}
				data.Written = true
			}
			return s.respond(cmd, data, func(w io.Writer) {
				if !data.Written {
					fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("Config already exists:"), path)
					fmt.Fprintln(w, DimStyle.Render("Use --force to overwrite it."))
					return
				}
				fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("Wrote"), path)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.respond(cmd, s.cfg, func(w io.Writer) {
				fmt.Fprint(w, s.cfg.String())
			})
		},
	}
}

func newConfigPathCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := s.configPath()
			if err != nil {
				return &ConfigError{Err: err}
			}
			_, statErr := os.Stat(path)
			data := ConfigPathData{Path: path, Exists: statErr == nil}
			return s.respond(cmd, data, func(w io.Writer) {
				fmt.Fprintln(w, path)
			})
		},
	}
}

func newConfigGetCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one value (dot notation, e.g. api.base_url)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := s.cfg.Get(args[0])
			if err != nil {
				return NewUsageError(err.Error(), "unirag config get api.base_url")
			}
			data := ConfigValueData{Key: args[0], Value: displayValue(value)}
			return s.respond(cmd, data, func(w io.Writer) {
				fmt.Fprintln(w, data.Value)
			})
		},
	}
}

func newConfigSetCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one value and save the file",
		Long: `Change one value and save the config file.

Keys: ` + joinKeys(),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			path, err := s.configPath()
			if err != nil {
				return &ConfigError{Err: err}
			}

			cfg := s.cfg.Clone()
			if err := cfg.Set(key, value); err != nil {
				return NewUsageError(err.Error(), "unirag config set api.base_url https://rag.mfu.ac.th")
			}
			if err := cfg.Validate(); err != nil {
				return &ConfigError{Err: err}
			}
			if err := config.SaveTOML(cfg, path); err != nil {
				return &ConfigError{Err: err}
			}
			s.cfg = cfg

			newValue, _ := cfg.Get(key)
			data := ConfigValueData{Key: key, Value: displayValue(newValue)}
			return s.respond(cmd, data, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s = %v\n", SuccessStyle.Render("Set"), key, data.Value)
			})
		},
	}
}

// displayValue shows durations the way they are written in the file.
func displayValue(v interface{}) interface{} {
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}
	return v
}

func joinKeys() string {
	keys := config.GetAllKeys()
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += k
	}
	return out
}
