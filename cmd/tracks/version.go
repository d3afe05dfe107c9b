package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tracks"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tracks",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tracks version %s\n", strings.TrimSpace(tracks.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
