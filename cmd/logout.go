// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"openiap/cli/internal/keychain"

	"github.com/spf13/cobra"
)

// logoutCmd removes the stored JWT from the OS keychain.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved JWT from the keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return err
		}
		if err := km.ClearJWT(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Saved JWT has been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
