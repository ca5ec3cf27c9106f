// Package github implements the domain gateways on top of the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bulkedit/domain"
)

const (
	forgeName = "github"
	perPage   = 100
)

// Forge implements domain.Forge for GitHub.
type Forge struct {
	client *gh.Client
}

// New creates a new GitHub forge with the given token.
func New(token string) domain.Forge {
	return &Forge{
		client: gh.NewClient(nil).WithAuthToken(token),
	}
}

func (f *Forge) Name() string { return forgeName }

// FetchFile returns the decoded content and blob SHA of path at ref. An
// empty ref reads from the repository default branch.
func (f *Forge) FetchFile(
	ctx context.Context,
	repo domain.Repository,
	path, ref string,
) (*domain.FileContent, error) {
	fileContent, _, resp, err := f.client.Repositories.GetContents(
		ctx, repo.Organization, repo.Name, path,
		&gh.RepositoryContentGetOptions{Ref: ref},
	)
	if err != nil {
		return nil, classify("fetch "+path, resp, err)
	}
	if fileContent == nil {
		return nil, domain.NewGatewayError(
			domain.GatewayUnknown, "fetch "+path,
			fmt.Errorf("path %q is a directory, not a file", path),
		)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, domain.NewGatewayError(
			domain.GatewayUnknown, "fetch "+path,
			fmt.Errorf("failed to decode file content: %w", err),
		)
	}

	return &domain.FileContent{Content: content, SHA: fileContent.GetSHA()}, nil
}

// WriteFile creates the file when the input carries no SHA, otherwise
// updates the blob the SHA points at. A stale SHA surfaces as a conflict.
func (f *Forge) WriteFile(
	ctx context.Context,
	repo domain.Repository,
	input domain.WriteInput,
) (*domain.WriteResult, error) {
	opts := &gh.RepositoryContentFileOptions{
		Message: &input.Message,
		Content: []byte(input.Content),
		Branch:  &input.Branch,
	}

	var (
		written *gh.RepositoryContentResponse
		resp    *gh.Response
		err     error
	)
	created := input.SHA == ""
	if created {
		written, resp, err = f.client.Repositories.CreateFile(
			ctx, repo.Organization, repo.Name, input.Path, opts,
		)
	} else {
		opts.SHA = &input.SHA
		written, resp, err = f.client.Repositories.UpdateFile(
			ctx, repo.Organization, repo.Name, input.Path, opts,
		)
	}
	if err != nil {
		return nil, classify("write "+input.Path, resp, err)
	}

	return &domain.WriteResult{
		SHA:     written.Content.GetSHA(),
		Created: created,
	}, nil
}

// DeleteFile removes the file from the branch using its current blob SHA.
func (f *Forge) DeleteFile(
	ctx context.Context,
	repo domain.Repository,
	input domain.DeleteInput,
) error {
	_, resp, err := f.client.Repositories.DeleteFile(
		ctx, repo.Organization, repo.Name, input.Path,
		&gh.RepositoryContentFileOptions{
			Message: &input.Message,
			SHA:     &input.SHA,
			Branch:  &input.Branch,
		},
	)
	if err != nil {
		return classify("delete "+input.Path, resp, err)
	}
	return nil
}

// EnsureBranch creates branch from base unless it already exists. Losing a
// creation race to a concurrent run still counts as success.
func (f *Forge) EnsureBranch(
	ctx context.Context,
	repo domain.Repository,
	branch, base string,
) error {
	_, resp, err := f.client.Git.GetRef(
		ctx, repo.Organization, repo.Name, "refs/heads/"+branch,
	)
	if err == nil {
		logger.Debugf("[github] branch %q already exists in %s", branch, repo.FullName())
		return nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return classify("get branch "+branch, resp, err)
	}

	baseRef, resp, err := f.client.Git.GetRef(
		ctx, repo.Organization, repo.Name, "refs/heads/"+base,
	)
	if err != nil {
		return classify("get base branch "+base, resp, err)
	}

	branchRef := "refs/heads/" + branch
	_, resp, err = f.client.Git.CreateRef(
		ctx, repo.Organization, repo.Name,
		&gh.Reference{
			Ref:    &branchRef,
			Object: &gh.GitObject{SHA: baseRef.Object.SHA},
		},
	)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return classify("create branch "+branch, resp, err)
	}
	return nil
}

// CreatePullRequest opens a pull request from head to base. GitHub's
// rejection of an empty diff is reported as domain.ErrNoChanges.
func (f *Forge) CreatePullRequest(
	ctx context.Context,
	repo domain.Repository,
	input domain.PullRequestInput,
) (*domain.PullRequest, error) {
	maintainerCanModify := true
	pr, resp, err := f.client.PullRequests.Create(
		ctx, repo.Organization, repo.Name,
		&gh.NewPullRequest{
			Title:               &input.Title,
			Head:                &input.HeadBranch,
			Base:                &input.BaseBranch,
			Body:                &input.Body,
			MaintainerCanModify: &maintainerCanModify,
		},
	)
	if err != nil {
		if strings.Contains(err.Error(), "No commits between") {
			return nil, fmt.Errorf("%s..%s: %w", input.BaseBranch, input.HeadBranch, domain.ErrNoChanges)
		}
		return nil, classify("create pull request", resp, err)
	}

	return &domain.PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		State:  pr.GetState(),
	}, nil
}

// FindOpenPullRequest returns the first open pull request from head to
// base, or nil when none exists.
func (f *Forge) FindOpenPullRequest(
	ctx context.Context,
	repo domain.Repository,
	head, base string,
) (*domain.PullRequest, error) {
	prs, resp, err := f.client.PullRequests.List(
		ctx, repo.Organization, repo.Name,
		&gh.PullRequestListOptions{
			State:       "open",
			Head:        repo.Organization + ":" + head,
			Base:        base,
			ListOptions: gh.ListOptions{PerPage: 1},
		},
	)
	if err != nil {
		return nil, classify("list pull requests", resp, err)
	}
	if len(prs) == 0 {
		return nil, nil //nolint:nilnil // nil means no open PR
	}

	return &domain.PullRequest{
		Number: prs[0].GetNumber(),
		Title:  prs[0].GetTitle(),
		URL:    prs[0].GetHTMLURL(),
		State:  prs[0].GetState(),
	}, nil
}

// DefaultBranch returns the repository's default branch name.
func (f *Forge) DefaultBranch(
	ctx context.Context,
	repo domain.Repository,
) (string, error) {
	repository, resp, err := f.client.Repositories.Get(ctx, repo.Organization, repo.Name)
	if err != nil {
		return "", classify("get repository", resp, err)
	}
	return repository.GetDefaultBranch(), nil
}

// ListRepositories lists all repositories of an organization, falling back
// to user repositories when the owner is not an organization. Archived
// repositories are left out — nobody wants bulk PRs against an archive.
func (f *Forge) ListRepositories(
	ctx context.Context,
	owner string,
) ([]domain.Repository, error) {
	var all []domain.Repository
	opts := &gh.RepositoryListByOrgOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	for {
		repos, resp, err := f.client.Repositories.ListByOrg(ctx, owner, opts)
		if err != nil {
			// Fall back to listing user repos if org listing fails
			return f.listUserRepositories(ctx, owner)
		}

		for _, r := range repos {
			if r.GetArchived() {
				continue
			}
			all = append(all, f.toRepository(owner, r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

func (f *Forge) listUserRepositories(
	ctx context.Context,
	user string,
) ([]domain.Repository, error) {
	var all []domain.Repository
	opts := &gh.RepositoryListByUserOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
		Type:        "owner",
	}

	for {
		repos, resp, err := f.client.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, classify("list repositories for "+user, resp, err)
		}

		for _, r := range repos {
			if r.GetArchived() {
				continue
			}
			all = append(all, f.toRepository(user, r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

func (f *Forge) toRepository(owner string, r *gh.Repository) domain.Repository {
	defaultBranch := "main"
	if r.DefaultBranch != nil {
		defaultBranch = *r.DefaultBranch
	}
	return domain.Repository{
		ID:            strconv.FormatInt(r.GetID(), 10),
		Name:          r.GetName(),
		Organization:  owner,
		DefaultBranch: defaultBranch,
		WebURL:        r.GetHTMLURL(),
		ForgeName:     forgeName,
	}
}

// ListFiles returns the full recursive tree of the repository at ref.
func (f *Forge) ListFiles(
	ctx context.Context,
	repo domain.Repository,
	ref string,
) ([]domain.File, error) {
	if ref == "" {
		ref = repo.DefaultBranch
	}
	if ref == "" {
		var err error
		if ref, err = f.DefaultBranch(ctx, repo); err != nil {
			return nil, err
		}
	}

	tree, resp, err := f.client.Git.GetTree(
		ctx, repo.Organization, repo.Name, ref,
		true, // recursive
	)
	if err != nil {
		return nil, classify("list files", resp, err)
	}

	files := make([]domain.File, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		files = append(files, domain.File{
			Path:     entry.GetPath(),
			ObjectID: entry.GetSHA(),
			IsDir:    entry.GetType() == "tree",
		})
	}
	return files, nil
}

// SearchCode returns the paths of files in the repository matching a code
// search query.
func (f *Forge) SearchCode(
	ctx context.Context,
	repo domain.Repository,
	query string,
) ([]string, error) {
	scoped := fmt.Sprintf("%s repo:%s", query, repo.FullName())
	result, resp, err := f.client.Search.Code(
		ctx, scoped,
		&gh.SearchOptions{ListOptions: gh.ListOptions{PerPage: perPage}},
	)
	if err != nil {
		return nil, classify("search code", resp, err)
	}

	paths := make([]string, 0, len(result.CodeResults))
	for _, hit := range result.CodeResults {
		paths = append(paths, hit.GetPath())
	}
	return paths, nil
}

// classify converts a GitHub API failure into the gateway error taxonomy.
// Typed rate-limit errors are checked before status codes because GitHub
// reports the primary limit with a 403.
func classify(op string, resp *gh.Response, err error) error {
	kind := domain.GatewayUnknown

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = domain.GatewayTimeout
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		kind = domain.GatewayRateLimited
	case resp != nil:
		switch resp.StatusCode {
		case http.StatusNotFound:
			kind = domain.GatewayNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = domain.GatewayPermissionDenied
		case http.StatusConflict, http.StatusUnprocessableEntity:
			kind = domain.GatewayConflict
		case http.StatusTooManyRequests:
			kind = domain.GatewayRateLimited
		}
	}

	return domain.NewGatewayError(kind, op, err)
}
