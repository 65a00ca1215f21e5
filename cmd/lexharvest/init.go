package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/lexharvest.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = ".lexharvest"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new lexharvest configuration file",
		Long: `Initialize creates a new .lexharvest configuration file in the current directory.

The generated file includes:
- Default settings applied to every endpoint
- Commented examples for endpoint-specific configurations
- Documentation for all available options

Examples:
  # Create .lexharvest in current directory
  lexharvest init

  # Create config file at a specific path
  lexharvest init -o myconfig.yaml

  # Force overwrite existing file
  lexharvest init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
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

	content, err := configTemplate.ReadFile("templates/lexharvest.yaml")
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
	fmt.Fprintln(out, "\nEdit this file to configure endpoint-specific settings such as:")
	fmt.Fprintln(out, "  - Custom headers (API keys)")
	fmt.Fprintln(out, "  - Version candidates to probe")
	fmt.Fprintln(out, "  - Alphabet and page limit overrides")

	return nil
}
