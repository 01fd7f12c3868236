package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ticketctl",
	Short: "Desk365 error report tooling",
	Long: `ticketctl reproduces the error report ticket POST against Desk365
and prepares credentials for the error report service.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(sendTestCmd)
	rootCmd.AddCommand(hashTokenCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
