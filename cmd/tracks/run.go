package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/tracks/internal/cli"
	"github.com/aretw0/tracks/pkg/domain"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <program>",
	Short: "Run a program and print its tracks",
	Long: `Runs a .logo program (first line is the canvas size) or a yaml/json manifest,
starting at the centre of the canvas heading north, and prints the resulting canvas.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		plain, _ := cmd.Flags().GetBool("plain")
		angle, _ := cmd.Flags().GetInt("angle")

		opts := cli.RunOptions{
			Path:  args[0],
			Debug: debug,
			Plain: plain,
			Angle: angle,
			Out:   cmd.OutOrStdout(),
		}

		xSet, ySet := cmd.Flags().Changed("x"), cmd.Flags().Changed("y")
		if xSet != ySet {
			return fmt.Errorf("--x and --y must be given together")
		}
		if xSet {
			x, _ := cmd.Flags().GetInt("x")
			y, _ := cmd.Flags().GetInt("y")
			opts.Start = &domain.Position{X: x, Y: y}
		}

		// Ctrl-C stops a long program between steps.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return cli.RunFile(ctx, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("debug", false, "Log every command and mark to stderr")
	runCmd.Flags().Bool("plain", false, "Print the bare canvas, without styling")
	runCmd.Flags().Int("x", 0, "Start column (overrides the centre)")
	runCmd.Flags().Int("y", 0, "Start row (overrides the centre)")
	runCmd.Flags().Int("angle", 0, "Start heading in degrees")
}
