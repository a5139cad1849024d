// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/sieve/database/plugin"
	"github.com/blinklabs-io/sieve/internal/config"
	"github.com/blinklabs-io/sieve/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "sieve"

var rootFlags struct {
	configFile     string
	blobPlugin     string
	metadataPlugin string
	debug          bool
}

// commonRun installs the default logger and applies the container CPU
// quota. Every long-running subcommand calls it first.
func commonRun(out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if rootFlags.debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	logger := slog.New(slog.NewJSONHandler(out, opts))
	slog.SetDefault(logger)
	undo, err := maxprocs.Set(
		maxprocs.Logger(func(format string, args ...any) {
			logger.Info(fmt.Sprintf(format, args...), "component", programName)
		}),
	)
	if err != nil {
		logger.Error("failed to set GOMAXPROCS", "error", err)
		undo()
	}
	logger.Info(
		"starting "+programName,
		"component", programName,
		"version", version.GetVersionString(),
	)
	return logger
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s %s\n",
				programName,
				version.GetVersionString(),
			)
		},
	}
}

// loadConfig reads the config file and environment, then lets explicitly
// set storage flags win
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(rootFlags.configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("blob") {
		cfg.BlobPlugin = rootFlags.blobPlugin
	}
	if flags.Changed("metadata") {
		cfg.MetadataPlugin = rootFlags.metadataPlugin
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Staked proposal evaluation engine",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config in command context")
			}
			serveRun(cmd, args, cfg)
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if listed, out := listPlugins(
				rootFlags.blobPlugin,
				rootFlags.metadataPlugin,
			); listed {
				fmt.Fprint(cmd.OutOrStdout(), out)
				os.Exit(0)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(config.WithContext(cmd.Context(), cfg))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&rootFlags.debug, "debug", "D", false, "enable debug logging")
	flags.StringVar(&rootFlags.configFile, "config", "", "path to config file")
	flags.StringVarP(
		&rootFlags.blobPlugin,
		"blob", "b",
		config.DefaultBlobPlugin,
		"blob store plugin, or 'list' to show the choices",
	)
	flags.StringVarP(
		&rootFlags.metadataPlugin,
		"metadata", "m",
		config.DefaultMetadataPlugin,
		"metadata store plugin, or 'list' to show the choices",
	)
	if err := plugin.PopulateCmdlineOptions(flags); err != nil {
		fmt.Fprintf(os.Stderr, "plugin flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(
		serveCommand(),
		exportCommand(),
		listCommand(),
		versionCommand(),
	)
	return rootCmd
}

func main() {
	// cobra has already printed the error
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
