package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for phatnguoi.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phatnguoi",
		Short: "Look up camera-recorded traffic violations for Vietnamese plates",
		Long: `phatnguoi looks up traffic violations recorded by enforcement cameras
("phạt nguội") for Vietnamese license plates.

Each lookup solves the lookup form's CAPTCHA with Tesseract OCR, submits the
plate and parses the violations from the result page. Results are stored
locally so that later lookups can show what changed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
