package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "finza",
	Short: "finza authentication and session service",
	Long: `finza serves the authentication API for the finza web app:
email/password login, GitHub OAuth, stateless tokens, server-side
sessions, and the request gate protecting the dashboard pages.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
