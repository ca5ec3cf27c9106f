package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/bulkedit/application"
	"github.com/rios0rios0/bulkedit/config"
	"github.com/rios0rios0/bulkedit/domain"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var renderTarget string

//nolint:gochecknoglobals // required by cobra CLI pattern
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Preview the rendered change without touching any repository",
	Long: `Resolve placeholders and render the batch's action, writing
nothing anywhere.

With --repo, prints every rendered field — file path, content, branch,
commit message, PR title and body — for that single repository. Without
it, the whole selection runs in dry-run mode and prints one line per
repository.`,
	RunE: runRender,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	renderCmd.Flags().StringVarP(
		&batchPath, "batch", "b", "",
		"Path to the batch file (required)",
	)
	renderCmd.Flags().StringVar(
		&renderTarget, "repo", "",
		"Render for a single repository (org/name)",
	)
	renderCmd.Flags().StringVar(
		&forgeOverride, "forge", "",
		"Override the batch file's forge (github, gitlab)",
	)
	_ = renderCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(renderCmd)
}

func runRender(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	spec, err := config.LoadBatchSpec(batchPath)
	if err != nil {
		return fmt.Errorf("failed to load batch: %w", err)
	}

	if renderTarget != "" {
		return renderOne(ctx, cfg, spec, renderTarget)
	}

	opts := buildRunOptions(cfg)
	opts.DryRun = true

	svc := injectBatchService()

	outcomes, err := svc.Run(ctx, cfg, *spec, opts)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	printOutcomes(outcomes)
	return nil
}

// renderOne resolves placeholders for a single repository and prints every
// rendered field of the action.
func renderOne(
	ctx context.Context,
	cfg *config.Config,
	spec *domain.BatchSpec,
	full string,
) error {
	org, name, ok := strings.Cut(full, "/")
	if !ok || org == "" || name == "" {
		return fmt.Errorf("repository %q must be in org/name form", full)
	}

	forgeName := spec.Forge
	if forgeOverride != "" {
		forgeName = forgeOverride
	}
	forgeCfg, configured := cfg.Forge(forgeName)
	if !configured {
		return fmt.Errorf("forge %q is not configured", forgeName)
	}
	forge, err := injectForgeRegistry().Get(forgeName, forgeCfg.Token)
	if err != nil {
		return fmt.Errorf("failed to initialize forge %q: %w", forgeName, err)
	}

	repo := domain.Repository{Name: name, Organization: org, ForgeName: forge.Name()}
	branch, err := forge.DefaultBranch(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to resolve default branch: %w", err)
	}
	repo.DefaultBranch = branch

	resolver := application.NewPlaceholderResolver(forge, injectStrategyRegistry())
	resolved, err := resolver.Resolve(ctx, repo, repo.DefaultBranch, spec.Placeholders)
	if err != nil {
		return fmt.Errorf("failed to resolve placeholders: %w", err)
	}

	rendered := domain.RenderAction(spec.Action, resolved)
	base := rendered.BaseBranch
	if base == "" {
		base = repo.DefaultBranch
	}

	fmt.Printf("Repository:     %s\n", repo.FullName())
	fmt.Printf("Action:         %s\n", rendered.Kind)
	fmt.Printf("File:           %s\n", rendered.FilePath)
	fmt.Printf("Branch:         %s (base %s)\n", rendered.BranchName, base)
	fmt.Printf("Commit message: %s\n", rendered.CommitMessage)
	fmt.Printf("PR title:       %s\n", rendered.PRTitle)
	if rendered.PRBody != "" {
		fmt.Printf("PR body:\n%s\n", indent(rendered.PRBody))
	}
	switch {
	case rendered.Search != nil:
		fmt.Printf("Search:         %q -> %q (regex=%t, all=%t)\n",
			rendered.Search.Pattern, rendered.Search.Replacement,
			rendered.Search.UseRegex, rendered.Search.ReplaceAll)
	case rendered.Kind != domain.ActionRemove:
		fmt.Printf("Content:\n%s\n", indent(rendered.Content))
	}
	return nil
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
