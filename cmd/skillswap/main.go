package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "skillswap",
	Short: "SkillSwap API server",
	Long: `skillswap runs the SkillSwap backend: profiles, skill matching,
two-party chat with schedule proposals, and AI-assisted skill
suggestions and certificate verification.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the skillswap version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("skillswap " + version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}
