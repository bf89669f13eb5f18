// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the OpenIAP CLI.
// The root command connects to an OpenIAP server and runs the interactive
// console; subcommands manage the stored JWT and the config file.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"openiap/cli/internal/config"
	"openiap/cli/internal/console"
	"openiap/cli/internal/keychain"
	"openiap/cli/internal/logging"
	"openiap/cli/internal/openiap"

	"github.com/spf13/cobra"
)

// EnvJWT names the environment variable consulted when --jwt is not given.
const EnvJWT = "OPENIAP_JWT"

var (
	showVersion bool
	flagAddress string
	flagConfig  string
	flagJWT     string
	flagVerbose bool
)

// rootCmd connects and runs the interactive console when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "openiap",
	Short: "Interactive test console for an OpenIAP server",
	Long: `openiap connects to an OpenIAP server over gRPC or websocket and reads
commands from standard input: queries, inserts, watches, queues, RPC,
custom commands, OpenRPA workflows and observable gauges.

Type ? at the prompt for the list of commands and quit to leave.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Fprintf(cmd.OutOrStdout(), "openiap %s\n", Version)
			return nil
		}
		s, err := resolveSettings(flagConfig, flagAddress, flagJWT, flagVerbose, loadKeychainJWT)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		code := runConsole(ctx, s)
		if code != 0 {
			stop()
			os.Exit(code)
		}
		return nil
	},
}

// settings is the effective configuration of one console run.
type settings struct {
	cfg     config.Config
	address string
	jwt     string
	level   string
}

// resolveSettings applies flag > environment > file precedence. loadJWT is
// consulted last and only when neither the flag nor the environment set a token.
func resolveSettings(configPath, address, jwt string, verbose bool, loadJWT func() string) (settings, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return settings{}, err
	}

	s := settings{cfg: cfg, address: cfg.Address, level: cfg.LogLevel}
	if a := strings.TrimSpace(address); a != "" {
		s.address = a
	}
	if verbose {
		s.level = "debug"
	}

	s.jwt = strings.TrimSpace(jwt)
	if s.jwt == "" {
		s.jwt = strings.TrimSpace(os.Getenv(EnvJWT))
	}
	if s.jwt == "" && loadJWT != nil {
		s.jwt = loadJWT()
	}
	return s, nil
}

// loadKeychainJWT returns the stored token, or "" when the keychain is
// unavailable. A missing keychain must not prevent anonymous connections.
func loadKeychainJWT() string {
	km, err := keychain.GetManager()
	if err != nil {
		return ""
	}
	tok, err := km.LoadJWT()
	if err != nil {
		return ""
	}
	return tok
}

func runConsole(ctx context.Context, s settings) int {
	logger := logging.New(os.Stdout, s.level)

	opts := []openiap.Option{
		openiap.WithLogger(logger),
		openiap.WithAgent("openiap-cli", Version),
		openiap.WithDefaultTimeout(time.Duration(s.cfg.DefaultTimeoutSeconds) * time.Second),
	}
	if s.jwt != "" {
		opts = append(opts, openiap.WithJWT(s.jwt))
	}
	logger.Debug("starting console", logger.Args(
		"address", openiap.ResolveAddress(s.address),
		"jwt", logging.Mask(s.jwt),
	))

	c := console.New(console.Options{
		Client:  openiap.New(opts...),
		Address: s.address,
		Samples: s.cfg.Samples,
		In:      os.Stdin,
		Out:     os.Stdout,
		Err:     os.Stderr,
		Logger:  logger,
	})
	return c.Run(ctx)
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, logging.PresentError("", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.Flags().StringVar(&flagAddress, "address", "", "Server URL (grpc://, grpcs://, ws://, wss://, http://, https://)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config.toml (default $XDG_CONFIG_HOME/openiap/config.toml)")
	rootCmd.Flags().StringVar(&flagJWT, "jwt", "", "JWT to sign in with (default $"+EnvJWT+", then the keychain)")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}
