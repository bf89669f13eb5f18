// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"openiap/cli/internal/keychain"
	"openiap/cli/internal/logging"
	"openiap/cli/internal/neterrors"
	"openiap/cli/internal/openiap"
	"openiap/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	loginVerify  bool
	loginAddress string
)

// loginCmd stores a JWT in the OS keychain. The token is read from stdin and
// erased from the terminal right after it is typed.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save a JWT in the OS keychain",
	Long: `The login command prompts for a JWT issued by your OpenIAP server and stores
it in the OS keychain. The console signs in with it on every start unless
--jwt or OPENIAP_JWT overrides it.

With --verify the token is checked by signing in to the server first and is
only stored when the server accepts it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jwt, err := promptJWT(os.Stdin, os.Stdout)
		if err != nil {
			return err
		}

		if loginVerify {
			s, err := resolveSettings(flagConfig, loginAddress, jwt, false, nil)
			if err != nil {
				return err
			}
			if err := verifyJWT(cmd.Context(), s); err != nil {
				return err
			}
		}

		km, err := keychain.GetManager()
		if err != nil {
			return err
		}
		if err := km.SaveJWT(jwt); err != nil {
			return err
		}
		fmt.Println("✅ JWT saved to the keychain")
		return nil
	},
}

func promptJWT(in io.Reader, out io.Writer) (string, error) {
	reader := bufio.NewReader(in)
	promptText := "Enter JWT: "
	fmt.Fprint(out, promptText)
	raw, _ := reader.ReadString('\n')
	jwt := strings.TrimSpace(raw)

	// Clear the prompt and the token from the terminal
	if terminal.Interactive(out) {
		terminal.ClearPreviousLines(out, len(promptText)+len(jwt))
	}

	if jwt == "" {
		return "", errors.New("JWT is required")
	}
	return jwt, nil
}

func verifyJWT(ctx context.Context, s settings) error {
	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Signing in")
	stopSpinner := func() {
		if spinner != nil {
			_ = spinner.Stop()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client := openiap.New(openiap.WithJWT(s.jwt), openiap.WithAgent("openiap-cli", Version))
	defer client.Close()

	resp, err := client.Connect(ctx, s.address)
	stopSpinner()
	if err != nil {
		neterrors.PrintHint(os.Stderr, err, openiap.ResolveAddress(s.address))
		return errors.New(logging.PresentError("sign in failed", err))
	}
	if !resp.Success {
		return fmt.Errorf("server rejected the JWT: %s", resp.Error)
	}
	return nil
}

func init() {
	loginCmd.Flags().BoolVar(&loginVerify, "verify", false, "Sign in to the server before saving the JWT")
	loginCmd.Flags().StringVar(&loginAddress, "address", "", "Server URL used by --verify")
	rootCmd.AddCommand(loginCmd)
}
