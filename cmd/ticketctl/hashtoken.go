package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mobilityp/errorsender/internal/auth"
)

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token [token]",
	Short: "Print a bcrypt hash for ADMIN_TOKEN_HASH",
	Long: `Hash an admin API token for ADMIN_TOKEN_HASH. Without an argument a
random token is generated and printed alongside its hash.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			token = auth.GenerateToken()
			fmt.Fprintln(cmd.OutOrStdout(), "token:", token)
		}

		hash, err := auth.Hash(token)
		if err != nil {
			return fmt.Errorf("hash token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ADMIN_TOKEN_HASH="+hash)
		return nil
	},
}
