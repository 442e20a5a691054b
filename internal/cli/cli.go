// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/unirag-tui/internal/config"
	"github.com/jeranaias/unirag-tui/internal/logging"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	jsonMode   bool
	verbose    bool
}

// cliState is the per-invocation state handed to every command.
type cliState struct {
	opts globalOptions

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// interactive reports whether prompts can be shown.
	interactive func() bool

	cfg       *config.Config
	app       *App
	logCloser io.Closer
}

func newState() *cliState {
	return &cliState{
		in:          os.Stdin,
		out:         os.Stdout,
		errOut:      os.Stderr,
		interactive: IsTTY,
	}
}

// setup loads configuration and installs the logger. It runs before every
// command.
func (s *cliState) setup(cmd *cobra.Command) error {
	s.in = cmd.InOrStdin()
	s.out = cmd.OutOrStdout()
	s.errOut = cmd.ErrOrStderr()

	var (
		cfg *config.Config
		err error
	)
	if s.opts.configPath != "" {
		cfg, err = config.LoadFromPath(s.opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return &ConfigError{Err: err}
	}
	s.cfg = cfg

	logFile, err := cfg.LogFile()
	if err != nil {
		return &ConfigError{Err: err}
	}
	closer, err := logging.Setup(logging.Options{
		Level:   cfg.Log.Level,
		File:    logFile,
		Verbose: s.opts.verbose,
	})
	if err != nil {
		// Logging is diagnostic only.
		fmt.Fprintf(s.errOut, "%s %v\n", WarningStyle.Render("[WARN]"), err)
		closer, _ = logging.Setup(logging.Options{Verbose: s.opts.verbose})
	}
	s.logCloser = closer

	log.Debug().
		Str("command", cmd.CommandPath()).
		Str("base_url", cfg.API.BaseURL).
		Str("storage", cfg.Storage.Backend).
		Msg("Command starting")
	return nil
}

// application builds the client components on first use.
func (s *cliState) application() (*App, error) {
	if s.app != nil {
		return s.app, nil
	}
	if s.cfg == nil {
		return nil, &ConfigError{Err: errors.New("configuration not loaded")}
	}
	app, err := NewApp(s.cfg)
	if err != nil {
		return nil, err
	}
	s.app = app
	return app, nil
}

// close releases everything setup and application acquired.
func (s *cliState) close() {
	if s.app != nil {
		if err := s.app.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing state store failed")
		}
		s.app = nil
	}
	if s.logCloser != nil {
		_ = s.logCloser.Close()
		s.logCloser = nil
	}
}

// respond prints data as a JSON envelope in --json mode, otherwise calls human.
func (s *cliState) respond(cmd *cobra.Command, data interface{}, human func(w io.Writer)) error {
	if s.opts.jsonMode {
		return NewJSONResponse(cmd.CommandPath(), data).Print(s.out)
	}
	human(s.out)
	return nil
}

// confirm asks before a destructive action.
func (s *cliState) confirm(confirmFlag bool, action string, details ...[2]string) error {
	ok, err := RequireConfirmation(s.in, s.out, action, details, ConfirmationOptions{
		ConfirmFlag: confirmFlag,
		JSONMode:    s.opts.jsonMode,
		Interactive: s.interactive(),
	})
	if err != nil {
		return err
	}
	if !ok {
		ShowCancellationMessage(s.out)
		return ErrCancelled
	}
	return nil
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand returns the unirag command tree.
func NewRootCommand() *cobra.Command {
	root, _ := newRootCommand(newState())
	return root
}

func newRootCommand(s *cliState) (*cobra.Command, *cliState) {
	root := &cobra.Command{
		Use:   "unirag",
		Short: "Terminal client for the MFU university knowledge assistant",
		Long: `unirag talks to the university knowledge assistant.

Run it without arguments for the full-screen chat, or use the subcommands
for one-off questions, conversation history and the admin console.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), s)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&s.opts.configPath, "config", "", "config file (default ~/.unirag/config.toml)")
	pf.BoolVar(&s.opts.jsonMode, "json", false, "print results as JSON")
	pf.BoolVarP(&s.opts.verbose, "verbose", "v", false, "write debug logs to stderr")

	root.AddCommand(
		newAskCommand(s),
		newChatCommand(s),
		newHistoryCommand(s),
		newAdminCommand(s),
		newConfigCommand(s),
		newHealthCommand(s),
		newVersionCommand(s),
	)
	return root, s
}

// Execute runs the command tree with os.Args and returns the exit code.
func Execute(ctx context.Context) int {
	return run(ctx, newState(), os.Args[1:])
}

func run(ctx context.Context, s *cliState, args []string) int {
	root, _ := newRootCommand(s)
	root.SetArgs(args)
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.errOut)

	cmd, err := root.ExecuteContextC(ctx)
	s.close()
	if err != nil {
		var reported *reportedError
		if (errors.Is(err, ErrCancelled) || errors.As(err, &reported)) && !s.opts.jsonMode {
			return GetExitCode(err)
		}
		name := root.Name()
		if cmd != nil {
			name = cmd.CommandPath()
		}
		DisplayError(s.out, s.errOut, name, err, s.opts.jsonMode)
		return GetExitCode(err)
	}
	return ExitSuccess
}
