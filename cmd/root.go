package cmd

import (
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	// Global flags
	configPath string
	dryRun     bool
	verbose    bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "bulkedit",
	Short: "Bulk file edits with one pull request per repository",
	Long: `A CLI tool that applies one templated file change across many
repositories, opening one pull request per repository.

Each batch extracts per-repository values from files the repositories
already hold, renders the change from templates, pushes it on a working
branch, and opens the pull request:
- Selecting repositories explicitly, by organization, or by file filters
- Extracting values with regex, JSONPath, YAML, HCL, or go.mod strategies
- Applying add, update (including search/replace), or remove operations
- Creating or reusing exactly one PR per repository`,
}

func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"Show what would be done without making changes")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
}
