package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slidebox",
	Short: "Present PDF decks stored in Dropbox",
	Long: `slidebox logs users in with OAuth 1.0a, keeps their session in a signed
cookie and serves the slide decks from their Dropbox app folder.`,
	SilenceUsage: true,
	// serve is the default
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
