// Package config provides the init and config commands.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	"github.com/ariel-frischer/shiplog/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Color helper functions for command output
var (
	cGreen = color.New(color.FgGreen).SprintFunc()
	cCyan  = color.New(color.FgCyan).SprintFunc()
	cDim   = color.New(color.Faint).SprintFunc()
	cBold  = color.New(color.Bold).SprintFunc()
)

// printSectionHeader prints a visually distinct section header.
func printSectionHeader(out io.Writer, title string) {
	line := strings.Repeat("-", 10)
	fmt.Fprintf(out, "\n%s %s %s\n\n", cDim(line), cCyan(title), cDim(line))
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize shiplog in a project",
	Long: `Initialize shiplog in a project.

This command:
  1. Writes a commented .shiplog.yml with the default configuration
  2. Creates the changelog directory (.changelog/ by default)

An existing .shiplog.yml is left unchanged (use --force to overwrite).

Path argument:
  If provided, initializes the project at the specified path instead of
  the --dir flag or the current directory. Relative paths, absolute paths
  and ~ are accepted. Missing directories are created.`,
	Example: `  # Initialize the current directory
  shiplog init

  # Initialize another project
  shiplog init ~/projects/widgets

  # Overwrite an existing config with defaults
  shiplog init --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.GroupID = shared.GroupGettingStarted
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing config with defaults")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	dir, _ := cmd.Flags().GetString(shared.DirFlagName)
	out := cmd.OutOrStdout()

	target, err := resolveTargetDirectory(args, dir)
	if err != nil {
		return err
	}
	if err := EnsureDirectory(target); err != nil {
		return err
	}

	printSectionHeader(out, "shiplog init")

	configPath := filepath.Join(target, config.ProjectConfigPath())
	if _, err := initializeConfig(out, configPath, force); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	changelogDir := cfg.ChangelogDir(target)
	if err := EnsureDirectory(changelogDir); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s: %s\n", cGreen("✓"), cBold("Changelog"), cDim(changelogDir))

	fmt.Fprintf(out, "\nNext: record an entry with %s\n",
		cCyan(`shiplog changelog add -t feature -m "..."`))
	return nil
}

// initializeConfig writes the default config to configPath unless it exists.
// Returns true if the file was written.
func initializeConfig(out io.Writer, configPath string, force bool) (bool, error) {
	_, statErr := os.Stat(configPath)
	exists := statErr == nil

	if exists && !force {
		fmt.Fprintf(out, "%s %s: exists at %s\n", cGreen("✓"), cBold("Config"), cDim(configPath))
		return false, nil
	}

	if err := writeDefaultConfig(configPath); err != nil {
		return false, fmt.Errorf("writing default config: %w", err)
	}

	verb := "created"
	if exists {
		verb = "overwritten"
	}
	fmt.Fprintf(out, "%s %s: %s at %s\n", cGreen("✓"), cBold("Config"), verb, cDim(configPath))
	return true, nil
}

// writeDefaultConfig writes the commented default configuration to configPath.
func writeDefaultConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
