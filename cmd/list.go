package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/bulkedit/config"
	"github.com/rios0rios0/bulkedit/domain"
)

const maxRepoColumnWidth = 50

//nolint:gochecknoglobals // required by cobra CLI pattern
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the repositories a batch would target",
	Long: `Resolve the batch's repository selection — explicit entries,
organization discovery, and the optional selector — and print the
result without changing anything.`,
	RunE: runList,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	listCmd.Flags().StringVarP(
		&batchPath, "batch", "b", "",
		"Path to the batch file (required)",
	)
	listCmd.Flags().StringVar(
		&forgeOverride, "forge", "",
		"Override the batch file's forge (github, gitlab)",
	)
	_ = listCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	spec, err := config.LoadBatchSpec(batchPath)
	if err != nil {
		return fmt.Errorf("failed to load batch: %w", err)
	}

	svc := injectBatchService()

	selected, err := svc.Select(ctx, cfg, *spec, buildRunOptions(cfg))
	if err != nil {
		return fmt.Errorf("selection failed: %w", err)
	}

	if len(selected) == 0 {
		fmt.Println("No repositories selected.")
		return nil
	}

	for _, repo := range selected {
		fmt.Println(repo.FullName())
	}
	fmt.Println()
	fmt.Printf("Total: %d repositories\n", len(selected))
	return nil
}

// printOutcomes renders the final per-repository report in input order.
func printOutcomes(outcomes []domain.RepositoryOutcome) {
	if len(outcomes) == 0 {
		fmt.Println("No repositories selected.")
		return
	}

	repoW := len("Repository")
	for _, outcome := range outcomes {
		if len(outcome.Repository) > repoW {
			repoW = len(outcome.Repository)
		}
	}
	if repoW > maxRepoColumnWidth {
		repoW = maxRepoColumnWidth
	}

	fmt.Println()
	fmt.Printf("%-*s  %-12s  %s\n", repoW, "Repository", "Status", "Detail")
	fmt.Println(strings.Repeat("-", repoW+40))

	for _, outcome := range outcomes {
		detail := outcome.PullRequestURL
		if detail == "" {
			detail = outcome.ErrorDetail
		}
		fmt.Printf("%-*s  %-12s  %s\n",
			repoW, truncate(outcome.Repository, repoW),
			statusLabel(outcome.Status), detail)
	}

	fmt.Println()
	fmt.Printf("Total: %d repositories, %d succeeded, %d skipped, %d failed\n",
		len(outcomes),
		countByStatus(outcomes, domain.StatusSuccess),
		countByStatus(outcomes, domain.StatusSkipped),
		countByStatus(outcomes, domain.StatusFailed))
}

func statusLabel(status domain.OutcomeStatus) string {
	switch status {
	case domain.StatusSuccess:
		return "✅ success"
	case domain.StatusSkipped:
		return "🟡 skipped"
	case domain.StatusFailed:
		return "🔴 failed"
	default:
		return string(status)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
