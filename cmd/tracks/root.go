package main

import (
	"fmt"
	"os"

	"github.com/aretw0/tracks/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tracks",
	Short: "Tracks is a turtle graphics interpreter",
	Long: `Tracks runs small LOGO-style programs (LT, RT, FD, BK, REPEAT) on a character canvas
and prints the cells the turtle visited.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the file named by --config (defaults when empty).
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Configuration file (yaml, toml or json)")
}
