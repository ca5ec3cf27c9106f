package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bulkedit/application"
	"github.com/rios0rios0/bulkedit/config"
	"github.com/rios0rios0/bulkedit/domain"
)

const (
	forgeGitHub = "github"
	forgeGitLab = "gitlab"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var localCommit bool

//nolint:gochecknoglobals // required by cobra CLI pattern
var localCmd = &cobra.Command{
	Use:   "local [path]",
	Short: "Apply a batch's action to a local checkout",
	Long: `Apply the batch's rendered file change to a repository checked
out on disk instead of going through a forge API.

Placeholders are resolved from the files in the working tree, the
action is rendered with the same template rules as a batch run, and
the change is written into the working tree. With --commit the change
lands as a commit on the rendered branch; without it the modified
files are left staged for review.`,
	Args: cobra.ExactArgs(1),
	RunE: runLocal,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	localCmd.Flags().StringVarP(
		&batchPath, "batch", "b", "",
		"Path to the batch file (required)",
	)
	localCmd.Flags().BoolVar(
		&localCommit, "commit", false,
		"Create the rendered branch and commit the change",
	)
	_ = localCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(localCmd)
}

// runLocal is the entry point for the standalone local mode. The checkout
// stands in for the forge: the origin remote names the repository, HEAD is
// the base branch, and the working tree provides the placeholder sources.
func runLocal(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	repoDir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	spec, err := config.LoadBatchSpec(batchPath)
	if err != nil {
		return fmt.Errorf("failed to load batch: %w", err)
	}

	checkout, err := gogit.PlainOpen(repoDir)
	if err != nil {
		return fmt.Errorf("failed to open git repository at %s: %w", repoDir, err)
	}

	repo, err := identifyCheckout(checkout, repoDir)
	if err != nil {
		return err
	}
	logger.Infof("Local repository: %s (branch %s)", repo.FullName(), repo.DefaultBranch)

	worktree, err := checkout.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	content := &worktreeGateway{dir: repoDir, worktree: worktree}

	resolver := application.NewPlaceholderResolver(content, injectStrategyRegistry())
	resolved, err := resolver.Resolve(ctx, repo, repo.DefaultBranch, spec.Placeholders)
	if err != nil {
		return fmt.Errorf("failed to resolve placeholders: %w", err)
	}

	rendered := domain.RenderAction(spec.Action, resolved)
	if strings.TrimSpace(rendered.FilePath) == "" {
		return fmt.Errorf("rendered file path is empty (template %q)", spec.Action.FilePath)
	}

	if dryRun {
		logger.Infof("dry-run: would %s %q (branch %q, commit %q)",
			rendered.Kind, rendered.FilePath, rendered.BranchName, rendered.CommitMessage)
		return nil
	}

	if localCommit {
		if strings.TrimSpace(rendered.BranchName) == "" {
			return fmt.Errorf("rendered branch name is empty (template %q)", spec.Action.BranchName)
		}
		if err = switchToBranch(checkout, worktree, rendered.BranchName); err != nil {
			return err
		}
	}

	if err = applyLocalAction(ctx, content, repo, rendered); err != nil {
		return err
	}

	if !localCommit {
		logger.Infof("Applied %s to %q, left uncommitted", rendered.Kind, rendered.FilePath)
		return nil
	}

	hash, err := worktree.Commit(rendered.CommitMessage, &gogit.CommitOptions{
		Author: &object.Signature{Name: "bulkedit", Email: "bulkedit@localhost", When: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logger.Infof("Committed %q on %q (%s)", rendered.FilePath, rendered.BranchName, hash.String()[:8])
	logger.Infof("Suggested PR title: %s", rendered.PRTitle)
	return nil
}

// identifyCheckout derives the repository identity from the checkout: the
// origin remote names the forge, organization, and repository; HEAD is the
// base branch the built-in placeholders see.
func identifyCheckout(checkout *gogit.Repository, repoDir string) (domain.Repository, error) {
	repo := domain.Repository{Name: filepath.Base(repoDir)}

	if origin, err := checkout.Remote("origin"); err == nil && len(origin.Config().URLs) > 0 {
		remote, parseErr := parseRemoteURL(origin.Config().URLs[0])
		if parseErr != nil {
			logger.Warnf("Could not parse origin URL: %v", parseErr)
		} else {
			repo.Name = remote.RepoName
			repo.Organization = remote.Org
			repo.ForgeName = remote.ForgeName
		}
	}

	head, err := checkout.Head()
	if err != nil {
		return repo, fmt.Errorf("failed to read HEAD (empty repository?): %w", err)
	}
	repo.DefaultBranch = head.Name().Short()

	return repo, nil
}

// switchToBranch checks out the named branch, creating it from HEAD when it
// does not exist yet. Local modifications are kept.
func switchToBranch(checkout *gogit.Repository, worktree *gogit.Worktree, name string) error {
	branchRef := plumbing.NewBranchReferenceName(name)
	_, lookupErr := checkout.Reference(branchRef, true)

	err := worktree.Checkout(&gogit.CheckoutOptions{
		Branch: branchRef,
		Create: lookupErr != nil,
		Keep:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to switch to branch %q: %w", name, err)
	}
	logger.Infof("Switched to branch %q", name)
	return nil
}

// applyLocalAction performs the rendered operation against the working tree
// through the same gateway surface a forge run uses.
func applyLocalAction(
	ctx context.Context,
	content *worktreeGateway,
	repo domain.Repository,
	rendered domain.RenderedAction,
) error {
	switch rendered.Kind {
	case domain.ActionRemove:
		if _, err := content.FetchFile(ctx, repo, rendered.FilePath, ""); err != nil {
			if domain.IsGatewayNotFound(err) {
				return fmt.Errorf("cannot remove nonexistent file %q: %w", rendered.FilePath, err)
			}
			return fmt.Errorf("failed to read %q: %w", rendered.FilePath, err)
		}
		if err := content.DeleteFile(ctx, repo, domain.DeleteInput{Path: rendered.FilePath}); err != nil {
			return err
		}
		logger.Infof("Removed %q", rendered.FilePath)
		return nil

	case domain.ActionAdd:
		if _, err := content.FetchFile(ctx, repo, rendered.FilePath, ""); err == nil {
			return fmt.Errorf("cannot add %q: file already exists", rendered.FilePath)
		}
		if _, err := content.WriteFile(ctx, repo, domain.WriteInput{
			Path:    rendered.FilePath,
			Content: rendered.Content,
		}); err != nil {
			return err
		}
		logger.Infof("Added %q", rendered.FilePath)
		return nil

	case domain.ActionUpdate:
		next := rendered.Content
		if rendered.Search != nil {
			current, err := content.FetchFile(ctx, repo, rendered.FilePath, "")
			if err != nil {
				return fmt.Errorf("failed to read %q: %w", rendered.FilePath, err)
			}
			next, err = application.ApplySearchReplace(current.Content, rendered.Search)
			if err != nil {
				return err
			}
			if next == current.Content {
				logger.Infof("%q already up to date, nothing to write", rendered.FilePath)
				return nil
			}
		}
		if _, err := content.WriteFile(ctx, repo, domain.WriteInput{
			Path:    rendered.FilePath,
			Content: next,
		}); err != nil {
			return err
		}
		logger.Infof("Updated %q", rendered.FilePath)
		return nil

	default:
		return fmt.Errorf("unknown action kind %q", rendered.Kind)
	}
}

// ---------------------------------------------------------------------------
// Working-tree gateway
// ---------------------------------------------------------------------------

// worktreeGateway implements the content gateway against a checkout on
// disk. The checkout already is the ref, so ref arguments are ignored, and
// every mutation is staged in the worktree.
type worktreeGateway struct {
	dir      string
	worktree *gogit.Worktree
}

func (w *worktreeGateway) FetchFile(
	_ context.Context,
	_ domain.Repository,
	path, _ string,
) (*domain.FileContent, error) {
	data, err := os.ReadFile(w.abs(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewGatewayError(domain.GatewayNotFound, "fetch "+path, err)
		}
		return nil, domain.NewGatewayError(domain.GatewayUnknown, "fetch "+path, err)
	}
	return &domain.FileContent{Content: string(data)}, nil
}

func (w *worktreeGateway) WriteFile(
	_ context.Context,
	_ domain.Repository,
	input domain.WriteInput,
) (*domain.WriteResult, error) {
	target := w.abs(input.Path)
	_, statErr := os.Stat(target)
	created := errors.Is(statErr, os.ErrNotExist)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, domain.NewGatewayError(domain.GatewayUnknown, "write "+input.Path, err)
	}
	if err := os.WriteFile(target, []byte(input.Content), 0o644); err != nil {
		return nil, domain.NewGatewayError(domain.GatewayUnknown, "write "+input.Path, err)
	}
	if _, err := w.worktree.Add(input.Path); err != nil {
		return nil, domain.NewGatewayError(domain.GatewayUnknown, "stage "+input.Path, err)
	}
	return &domain.WriteResult{Created: created}, nil
}

func (w *worktreeGateway) DeleteFile(
	_ context.Context,
	_ domain.Repository,
	input domain.DeleteInput,
) error {
	if _, err := w.worktree.Remove(input.Path); err != nil {
		return domain.NewGatewayError(domain.GatewayUnknown, "remove "+input.Path, err)
	}
	return nil
}

func (w *worktreeGateway) abs(path string) string {
	return filepath.Join(w.dir, filepath.FromSlash(path))
}

// ---------------------------------------------------------------------------
// Git remote parsing
// ---------------------------------------------------------------------------

// remoteInfo holds the parsed components of a Git remote URL.
type remoteInfo struct {
	ForgeName string
	Org       string
	RepoName  string
}

// parseRemoteURL extracts forge, organization, and repository name from a
// Git remote URL. It supports the HTTPS and SSH formats used by GitHub and
// GitLab.
func parseRemoteURL(rawURL string) (*remoteInfo, error) {
	cleaned := strings.TrimSuffix(rawURL, ".git")

	if strings.Contains(cleaned, "github.com") {
		org, repo, err := parseStandardGitURL(cleaned, "github.com")
		if err != nil {
			return nil, err
		}
		return &remoteInfo{ForgeName: forgeGitHub, Org: org, RepoName: repo}, nil
	}

	if strings.Contains(cleaned, "gitlab.com") {
		org, repo, err := parseStandardGitURL(cleaned, "gitlab.com")
		if err != nil {
			return nil, err
		}
		return &remoteInfo{ForgeName: forgeGitLab, Org: org, RepoName: repo}, nil
	}

	return nil, fmt.Errorf("unsupported git remote URL: %s", rawURL)
}

// parseStandardGitURL handles the common HTTPS/SSH layout used by GitHub
// and GitLab:
//
//	HTTPS: https://{host}/{org}/{repo}[.git]
//	SSH:   git@{host}:{org}/{repo}[.git]
func parseStandardGitURL(url, hostname string) (string, string, error) {
	var pathPart string

	if strings.HasPrefix(url, "git@") {
		// git@{host}:{org}/{repo}
		parts := strings.SplitN(url, ":", 2) //nolint:mnd // host:path
		if len(parts) < 2 {                  //nolint:mnd // need both parts
			return "", "", fmt.Errorf("invalid SSH URL: %s", url)
		}
		pathPart = parts[1]
	} else {
		// https://{host}/{org}/{repo}
		idx := strings.Index(url, hostname)
		if idx < 0 {
			return "", "", fmt.Errorf("hostname %s not found in URL: %s", hostname, url)
		}
		pathPart = strings.TrimPrefix(url[idx+len(hostname):], "/")
	}

	segments := strings.Split(pathPart, "/")
	if len(segments) < 2 { //nolint:mnd // need org + repo
		return "", "", fmt.Errorf("cannot extract org/repo from URL: %s", url)
	}

	return segments[0], segments[1], nil
}
