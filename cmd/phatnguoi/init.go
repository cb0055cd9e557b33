package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/phatnguoi/internal/config"
)

//go:embed templates/phatnguoi.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a phatnguoi configuration file",
		Long: `Init writes a commented .phatnguoi configuration file.

The generated file documents every setting and contains an example vehicle
list. Once vehicles are listed, "phatnguoi check" with no arguments checks
all of them.

Examples:
  # Create .phatnguoi in the current directory
  phatnguoi init

  # Create the config file at a specific path
  phatnguoi init -o ~/.phatnguoi

  # Overwrite an existing file
  phatnguoi init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/phatnguoi.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to:")
	fmt.Fprintln(out, "  - list the vehicles checked by \"phatnguoi check\"")
	fmt.Fprintln(out, "  - tune timeouts and retry attempts")
	fmt.Fprintln(out, "  - route lookups through a SOCKS5 proxy or Tor")
	return nil
}
