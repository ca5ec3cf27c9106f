package cmd

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bulkedit/application"
	"github.com/rios0rios0/bulkedit/config"
	"github.com/rios0rios0/bulkedit/domain"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	batchPath     string
	workerCount   int
	forgeOverride string
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch of repository edits",
	Long: `Select repositories, apply the batch's file change to each one,
and open one pull request per repository.

This is the main command. It reads the runtime configuration for
forge credentials, loads the batch file, and runs every selected
repository through the mutation pipeline. Each repository ends in
exactly one outcome; one bad repository never stops the rest.`,
	RunE: runBatch,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	runCmd.Flags().StringVarP(
		&batchPath, "batch", "b", "",
		"Path to the batch file (required)",
	)
	runCmd.Flags().IntVar(
		&workerCount, "workers", 0,
		"Repositories processed in parallel (default from config, min 1)",
	)
	runCmd.Flags().StringVar(
		&forgeOverride, "forge", "",
		"Override the batch file's forge (github, gitlab)",
	)
	_ = runCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(runCmd)
}

func runBatch(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	spec, err := config.LoadBatchSpec(batchPath)
	if err != nil {
		return fmt.Errorf("failed to load batch: %w", err)
	}

	opts := buildRunOptions(cfg)
	opts.Progress = func(done, total int, outcome domain.RepositoryOutcome) {
		logger.Infof("[%d/%d] %s: %s", done, total, outcome.Repository, outcome.Status)
	}

	svc := injectBatchService()

	logger.Info("Starting batch run...")

	outcomes, err := svc.Run(ctx, cfg, *spec, opts)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	printOutcomes(outcomes)

	if failed := countByStatus(outcomes, domain.StatusFailed); failed > 0 {
		return fmt.Errorf("%d of %d repositories failed", failed, len(outcomes))
	}
	return nil
}

// loadRuntimeConfig resolves the config path (flag or auto-detection) and
// loads the runtime configuration.
func loadRuntimeConfig() (*config.Config, error) {
	cfgPath := configPath
	if cfgPath == "" {
		var err error
		cfgPath, err = config.FindConfigFile()
		if err != nil {
			return nil, fmt.Errorf(
				"no config file found: %w\nSpecify one with --config or create bulkedit.yaml",
				err,
			)
		}
	}

	logger.Infof("Using config file: %s", cfgPath)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildRunOptions merges config defaults with the CLI flags. Flags win;
// --dry-run only ever tightens (a config with dry_run: true stays dry).
func buildRunOptions(cfg *config.Config) application.RunOptions {
	opts := application.RunOptions{
		DryRun:    dryRun || cfg.Defaults.DryRun,
		Verbose:   verbose,
		Workers:   cfg.Defaults.Workers,
		ForgeName: forgeOverride,
	}
	if workerCount > 0 {
		opts.Workers = workerCount
	}
	return opts
}

func countByStatus(outcomes []domain.RepositoryOutcome, status domain.OutcomeStatus) int {
	count := 0
	for _, outcome := range outcomes {
		if outcome.Status == status {
			count++
		}
	}
	return count
}
