// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// health.go - Backend health and version commands.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "health",
		Aliases: []string{"ping"},
		Short:   "Check that the backend is reachable",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			start := time.Now()
			status, err := app.Client.Health(cmd.Context())
			if err != nil {
				return err
			}
			data := HealthData{
				BaseURL:   app.Client.BaseURL(),
				Status:    status.Status,
				LatencyMS: time.Since(start).Milliseconds(),
			}
			return s.respond(cmd, data, func(w io.Writer) {
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Backend:"), data.BaseURL)
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Status:"), RenderStatus(data.Status))
				fmt.Fprintf(w, "%s%dms\n", RenderLabel("Latency:"), data.LatencyMS)
			})
		},
	}
}

func newVersionCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			return s.respond(cmd, data, func(w io.Writer) {
				fmt.Fprintf(w, "unirag %s\n", data.Version)
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Commit:"), data.GitCommit)
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Built:"), data.BuildDate)
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Go:"), data.GoVersion)
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Platform:"), data.Platform)
			})
		},
	}
}
