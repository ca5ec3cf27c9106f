package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bulkedit/domain"
)

// MutationPipeline runs the per-repository state machine: resolve
// placeholders, render the action, ensure the working branch, apply the
// file operation, open the pull request. Every failure is converted into a
// terminal RepositoryOutcome — no error escapes to the batch.
type MutationPipeline struct {
	forge    domain.Forge
	resolver *PlaceholderResolver
	timeout  time.Duration
}

// NewMutationPipeline creates a pipeline bound to one forge.
func NewMutationPipeline(forge domain.Forge, resolver *PlaceholderResolver) *MutationPipeline {
	return &MutationPipeline{
		forge:    forge,
		resolver: resolver,
		timeout:  defaultCallTimeout,
	}
}

// Process runs one repository through the pipeline to its terminal outcome.
// A pull-request failure after a committed file mutation does NOT roll the
// mutation back: the branch stays for manual recovery and the outcome says
// where it stopped.
func (p *MutationPipeline) Process(
	ctx context.Context,
	repo domain.Repository,
	definitions []domain.PlaceholderDefinition,
	action domain.ActionSpec,
	dryRun bool,
) domain.RepositoryOutcome {
	outcome := domain.RepositoryOutcome{Repository: repo.FullName()}

	// The default branch feeds the repo_default_branch built-in and is the
	// fallback base, so settle it before anything else.
	if repo.DefaultBranch == "" {
		err := withBackoff(ctx, p.timeout, "default branch", func(callCtx context.Context) error {
			branch, lookupErr := p.forge.DefaultBranch(callCtx, repo)
			if lookupErr == nil {
				repo.DefaultBranch = branch
			}
			return lookupErr
		})
		if err != nil {
			return p.failed(outcome, domain.StageBranchCreation,
				fmt.Errorf("failed to resolve default branch: %w", err))
		}
	}

	// --- stage 1: placeholder extraction ---
	resolved, err := p.resolver.Resolve(ctx, repo, repo.DefaultBranch, definitions)
	if err != nil {
		if hard, ok := domain.AsHardFailure(err); ok {
			logger.Warnf("[pipeline] %s: skipped: %v", repo.FullName(), hard)
			outcome.Status = domain.StatusSkipped
			outcome.Stage = domain.StagePlaceholderExtraction
			outcome.ErrorDetail = hard.Error()
			return outcome
		}
		return p.failed(outcome, domain.StagePlaceholderExtraction, err)
	}

	// --- stage 2: render ---
	rendered := domain.RenderAction(action, resolved)
	if strings.TrimSpace(rendered.FilePath) == "" {
		return p.failed(outcome, domain.StageRender,
			fmt.Errorf("rendered file path is empty (template %q)", action.FilePath))
	}
	if strings.TrimSpace(rendered.BranchName) == "" {
		return p.failed(outcome, domain.StageRender,
			fmt.Errorf("rendered branch name is empty (template %q)", action.BranchName))
	}

	base := rendered.BaseBranch
	if base == "" {
		base = repo.DefaultBranch
	}

	if dryRun {
		logger.Infof("[pipeline] %s: dry-run: would %s %q on branch %q (base %q)",
			repo.FullName(), rendered.Kind, rendered.FilePath, rendered.BranchName, base)
		outcome.Status = domain.StatusSkipped
		outcome.ErrorDetail = fmt.Sprintf(
			"dry-run: would %s %q on branch %q and open PR %q",
			rendered.Kind, rendered.FilePath, rendered.BranchName, rendered.PRTitle,
		)
		return outcome
	}

	// --- stage 3: branch creation ---
	err = withBackoff(ctx, p.timeout, "ensure branch", func(callCtx context.Context) error {
		return p.forge.EnsureBranch(callCtx, repo, rendered.BranchName, base)
	})
	if err != nil {
		return p.failed(outcome, domain.StageBranchCreation,
			fmt.Errorf("failed to ensure branch %q: %w", rendered.BranchName, err))
	}
	logger.Debugf("[pipeline] %s: branch %q ready (base %q)", repo.FullName(), rendered.BranchName, base)

	// --- stage 4: file operation ---
	if err = p.applyFileOperation(ctx, repo, rendered, base); err != nil {
		return p.failed(outcome, domain.StageFileOperation, err)
	}

	// --- stage 5: pull request ---
	pr, err := p.ensurePullRequest(ctx, repo, rendered, base)
	if err != nil {
		if errors.Is(err, domain.ErrNoChanges) {
			logger.Infof("[pipeline] %s: no changes between %q and %q, nothing to propose",
				repo.FullName(), rendered.BranchName, base)
			outcome.Status = domain.StatusSkipped
			outcome.Stage = domain.StagePullRequestCreation
			outcome.ErrorDetail = fmt.Sprintf(
				"no changes between %q and %q", rendered.BranchName, base)
			return outcome
		}
		return p.failed(outcome, domain.StagePullRequestCreation,
			fmt.Errorf("failed to create pull request: %w", err))
	}

	logger.Infof("[pipeline] %s: PR #%d ready: %s", repo.FullName(), pr.Number, pr.URL)
	outcome.Status = domain.StatusSuccess
	outcome.PullRequestURL = pr.URL
	return outcome
}

// failed finalizes an outcome at the given stage.
func (p *MutationPipeline) failed(
	outcome domain.RepositoryOutcome,
	stage domain.PipelineStage,
	err error,
) domain.RepositoryOutcome {
	logger.Errorf("[pipeline] %s: %s failed: %v", outcome.Repository, stage, err)
	outcome.Status = domain.StatusFailed
	outcome.Stage = stage
	outcome.ErrorDetail = err.Error()
	return outcome
}

// ---------------------------------------------------------------------------
// stage 4 helpers
// ---------------------------------------------------------------------------

func (p *MutationPipeline) applyFileOperation(
	ctx context.Context,
	repo domain.Repository,
	rendered domain.RenderedAction,
	base string,
) error {
	switch rendered.Kind {
	case domain.ActionRemove:
		return p.removeFile(ctx, repo, rendered)
	case domain.ActionUpdate:
		if rendered.Search != nil {
			return p.searchReplace(ctx, repo, rendered, base)
		}
		return p.overwriteFile(ctx, repo, rendered)
	case domain.ActionAdd:
		return p.addFile(ctx, repo, rendered)
	default:
		return fmt.Errorf("unknown action kind %q", rendered.Kind)
	}
}

// removeFile deletes the file using its current blob SHA on the working
// branch. A file that is not there cannot be removed.
func (p *MutationPipeline) removeFile(
	ctx context.Context,
	repo domain.Repository,
	rendered domain.RenderedAction,
) error {
	file, err := p.fetch(ctx, repo, rendered.FilePath, rendered.BranchName)
	if err != nil {
		if domain.IsGatewayNotFound(err) {
			return fmt.Errorf("cannot remove nonexistent file %q: %w", rendered.FilePath, err)
		}
		return fmt.Errorf("failed to fetch %q: %w", rendered.FilePath, err)
	}

	err = withBackoff(ctx, p.timeout, "delete file", func(callCtx context.Context) error {
		return p.forge.DeleteFile(callCtx, repo, domain.DeleteInput{
			Path:    rendered.FilePath,
			Message: rendered.CommitMessage,
			Branch:  rendered.BranchName,
			SHA:     file.SHA,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", rendered.FilePath, err)
	}
	logger.Infof("[pipeline] %s: removed %q on %q", repo.FullName(), rendered.FilePath, rendered.BranchName)
	return nil
}

// overwriteFile replaces the file's content wholesale, creating it when the
// working branch does not have it yet.
func (p *MutationPipeline) overwriteFile(
	ctx context.Context,
	repo domain.Repository,
	rendered domain.RenderedAction,
) error {
	sha := ""
	file, err := p.fetch(ctx, repo, rendered.FilePath, rendered.BranchName)
	switch {
	case err == nil:
		sha = file.SHA
	case domain.IsGatewayNotFound(err):
		// Absent file: the write below creates it.
	default:
		return fmt.Errorf("failed to fetch %q: %w", rendered.FilePath, err)
	}

	result, err := p.writeWithConflictRetry(ctx, repo, domain.WriteInput{
		Path:    rendered.FilePath,
		Content: rendered.Content,
		Message: rendered.CommitMessage,
		Branch:  rendered.BranchName,
		SHA:     sha,
	})
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", rendered.FilePath, err)
	}

	verb := "updated"
	if result.Created {
		verb = "created"
	}
	logger.Infof("[pipeline] %s: %s %q on %q", repo.FullName(), verb, rendered.FilePath, rendered.BranchName)
	return nil
}

// searchReplace rewrites the existing content in place instead of
// overwriting it. The content is read from the working branch, falling back
// to the base branch (covers branches created before the file appeared on
// base). Unchanged content writes nothing — the PR stage then reports that
// there is nothing to propose.
func (p *MutationPipeline) searchReplace(
	ctx context.Context,
	repo domain.Repository,
	rendered domain.RenderedAction,
	base string,
) error {
	sha := ""
	file, err := p.fetch(ctx, repo, rendered.FilePath, rendered.BranchName)
	switch {
	case err == nil:
		sha = file.SHA
	case domain.IsGatewayNotFound(err):
		file, err = p.fetch(ctx, repo, rendered.FilePath, base)
		if err != nil {
			if domain.IsGatewayNotFound(err) {
				return fmt.Errorf("file %q not found on %q or %q",
					rendered.FilePath, rendered.BranchName, base)
			}
			return fmt.Errorf("failed to fetch %q at %q: %w", rendered.FilePath, base, err)
		}
	default:
		return fmt.Errorf("failed to fetch %q: %w", rendered.FilePath, err)
	}

	updated, err := ApplySearchReplace(file.Content, rendered.Search)
	if err != nil {
		return err
	}
	if updated == file.Content {
		logger.Infof("[pipeline] %s: %q already up to date, skipping write",
			repo.FullName(), rendered.FilePath)
		return nil
	}

	if _, err = p.writeWithConflictRetry(ctx, repo, domain.WriteInput{
		Path:    rendered.FilePath,
		Content: updated,
		Message: rendered.CommitMessage,
		Branch:  rendered.BranchName,
		SHA:     sha,
	}); err != nil {
		return fmt.Errorf("failed to write %q: %w", rendered.FilePath, err)
	}
	logger.Infof("[pipeline] %s: rewrote %q on %q", repo.FullName(), rendered.FilePath, rendered.BranchName)
	return nil
}

// addFile creates the file without a prior SHA. An already existing file
// surfaces the gateway's conflict — adds never silently overwrite.
func (p *MutationPipeline) addFile(
	ctx context.Context,
	repo domain.Repository,
	rendered domain.RenderedAction,
) error {
	err := withBackoff(ctx, p.timeout, "create file", func(callCtx context.Context) error {
		_, writeErr := p.forge.WriteFile(callCtx, repo, domain.WriteInput{
			Path:    rendered.FilePath,
			Content: rendered.Content,
			Message: rendered.CommitMessage,
			Branch:  rendered.BranchName,
		})
		return writeErr
	})
	if err != nil {
		return fmt.Errorf("failed to add %q: %w", rendered.FilePath, err)
	}
	logger.Infof("[pipeline] %s: added %q on %q", repo.FullName(), rendered.FilePath, rendered.BranchName)
	return nil
}

// fetch is FetchFile under the standard timeout and rate-limit backoff.
func (p *MutationPipeline) fetch(
	ctx context.Context,
	repo domain.Repository,
	path, ref string,
) (*domain.FileContent, error) {
	var file *domain.FileContent
	err := withBackoff(ctx, p.timeout, "fetch "+path, func(callCtx context.Context) error {
		var fetchErr error
		file, fetchErr = p.forge.FetchFile(callCtx, repo, path, ref)
		return fetchErr
	})
	return file, err
}

// writeWithConflictRetry writes the file; on a conflict (stale SHA, e.g. a
// concurrent commit on the branch) it refetches the blob once and retries
// with the fresh SHA.
func (p *MutationPipeline) writeWithConflictRetry(
	ctx context.Context,
	repo domain.Repository,
	input domain.WriteInput,
) (*domain.WriteResult, error) {
	result, err := p.write(ctx, repo, input)
	if err == nil || !domain.IsGatewayKind(err, domain.GatewayConflict) {
		return result, err
	}

	logger.Warnf("[pipeline] %s: write conflict on %q, refetching SHA and retrying once",
		repo.FullName(), input.Path)
	file, fetchErr := p.fetch(ctx, repo, input.Path, input.Branch)
	if fetchErr != nil {
		return nil, fmt.Errorf("write conflict on %q and refetch failed: %w", input.Path, fetchErr)
	}
	input.SHA = file.SHA
	return p.write(ctx, repo, input)
}

func (p *MutationPipeline) write(
	ctx context.Context,
	repo domain.Repository,
	input domain.WriteInput,
) (*domain.WriteResult, error) {
	var result *domain.WriteResult
	err := withBackoff(ctx, p.timeout, "write "+input.Path, func(callCtx context.Context) error {
		var writeErr error
		result, writeErr = p.forge.WriteFile(callCtx, repo, input)
		return writeErr
	})
	return result, err
}

// ApplySearchReplace rewrites content per the rendered search settings:
// literal or regex, first occurrence or all. Shared with the local mode,
// which applies the same rewrite to files on disk.
func ApplySearchReplace(content string, search *domain.SearchReplace) (string, error) {
	if !search.UseRegex {
		if search.ReplaceAll {
			return strings.ReplaceAll(content, search.Pattern, search.Replacement), nil
		}
		return strings.Replace(content, search.Pattern, search.Replacement, 1), nil
	}

	re, err := regexp.Compile(search.Pattern)
	if err != nil {
		return "", fmt.Errorf("invalid search pattern %q: %w", search.Pattern, err)
	}
	if search.ReplaceAll {
		return re.ReplaceAllString(content, search.Replacement), nil
	}

	match := re.FindStringSubmatchIndex(content)
	if match == nil {
		return content, nil
	}
	out := make([]byte, 0, len(content))
	out = append(out, content[:match[0]]...)
	out = re.ExpandString(out, search.Replacement, content, match)
	out = append(out, content[match[1]:]...)
	return string(out), nil
}

// ---------------------------------------------------------------------------
// stage 5 helpers
// ---------------------------------------------------------------------------

// ensurePullRequest reuses an already open pull request from the working
// branch when one exists (re-running a batch must not fail on its own PR),
// otherwise creates a new one.
func (p *MutationPipeline) ensurePullRequest(
	ctx context.Context,
	repo domain.Repository,
	rendered domain.RenderedAction,
	base string,
) (*domain.PullRequest, error) {
	var existing *domain.PullRequest
	err := withBackoff(ctx, p.timeout, "find open PR", func(callCtx context.Context) error {
		var findErr error
		existing, findErr = p.forge.FindOpenPullRequest(callCtx, repo, rendered.BranchName, base)
		return findErr
	})
	if err != nil {
		// Lookup trouble is not fatal: creating will succeed or fail on
		// its own terms.
		logger.Warnf("[pipeline] %s: could not check for an existing PR: %v", repo.FullName(), err)
	} else if existing != nil {
		logger.Infof("[pipeline] %s: reusing open PR #%d: %s", repo.FullName(), existing.Number, existing.URL)
		return existing, nil
	}

	var created *domain.PullRequest
	err = withBackoff(ctx, p.timeout, "create PR", func(callCtx context.Context) error {
		var createErr error
		created, createErr = p.forge.CreatePullRequest(callCtx, repo, domain.PullRequestInput{
			HeadBranch: rendered.BranchName,
			BaseBranch: base,
			Title:      rendered.PRTitle,
			Body:       rendered.PRBody,
		})
		return createErr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
