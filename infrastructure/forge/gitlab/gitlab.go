// Package gitlab implements the domain gateways on top of the GitLab REST API.
package gitlab

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/bulkedit/domain"
)

const (
	forgeName = "gitlab"
	perPage   = 100
)

var errClientNotInitialized = errors.New("gitlab client not initialized")

// Forge implements domain.Forge for GitLab. GitLab tracks write races by
// the file's last commit ID rather than a blob SHA, so FileContent.SHA and
// WriteInput.SHA carry that commit ID here.
type Forge struct {
	client *gl.Client
}

// New creates a new GitLab forge with the given token.
func New(token string) domain.Forge {
	client, err := gl.NewClient(token)
	if err != nil {
		// Return a forge that will fail on use rather than panicking at construction
		return &Forge{client: nil}
	}
	return &Forge{client: client}
}

func (f *Forge) Name() string { return forgeName }

func pid(repo domain.Repository) string {
	return repo.Organization + "/" + repo.Name
}

// FetchFile returns the decoded content of path at ref along with the last
// commit ID touching it. An empty ref reads from the default branch.
func (f *Forge) FetchFile(
	ctx context.Context,
	repo domain.Repository,
	path, ref string,
) (*domain.FileContent, error) {
	if f.client == nil {
		return nil, errClientNotInitialized
	}

	ref, err := f.resolveRef(ctx, repo, ref)
	if err != nil {
		return nil, err
	}

	file, resp, err := f.client.RepositoryFiles.GetFile(
		pid(repo), path,
		&gl.GetFileOptions{Ref: gl.Ptr(ref)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, classify("fetch "+path, resp, err)
	}

	content := file.Content
	if file.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(file.Content)
		if err != nil {
			return nil, domain.NewGatewayError(
				domain.GatewayUnknown, "fetch "+path,
				fmt.Errorf("failed to decode file content: %w", err),
			)
		}
		content = string(decoded)
	}

	return &domain.FileContent{Content: content, SHA: file.LastCommitID}, nil
}

// WriteFile creates the file when the input carries no SHA, otherwise
// updates it guarded by the last commit ID. A stale ID surfaces as a
// conflict.
func (f *Forge) WriteFile(
	ctx context.Context,
	repo domain.Repository,
	input domain.WriteInput,
) (*domain.WriteResult, error) {
	if f.client == nil {
		return nil, errClientNotInitialized
	}

	var (
		resp *gl.Response
		err  error
	)
	created := input.SHA == ""
	if created {
		_, resp, err = f.client.RepositoryFiles.CreateFile(
			pid(repo), input.Path,
			&gl.CreateFileOptions{
				Branch:        gl.Ptr(input.Branch),
				Content:       gl.Ptr(input.Content),
				CommitMessage: gl.Ptr(input.Message),
			},
			gl.WithContext(ctx),
		)
	} else {
		_, resp, err = f.client.RepositoryFiles.UpdateFile(
			pid(repo), input.Path,
			&gl.UpdateFileOptions{
				Branch:        gl.Ptr(input.Branch),
				Content:       gl.Ptr(input.Content),
				CommitMessage: gl.Ptr(input.Message),
				LastCommitID:  gl.Ptr(input.SHA),
			},
			gl.WithContext(ctx),
		)
	}
	if err != nil {
		return nil, classify("write "+input.Path, resp, err)
	}

	return &domain.WriteResult{
		SHA:     f.lastCommitID(ctx, repo, input.Path, input.Branch),
		Created: created,
	}, nil
}

// lastCommitID refetches the commit ID after a write. The write API only
// echoes path and branch back, so a second call is needed to report the
// fresh ID. Failure here never fails the write.
func (f *Forge) lastCommitID(
	ctx context.Context,
	repo domain.Repository,
	path, branch string,
) string {
	file, _, err := f.client.RepositoryFiles.GetFileMetaData(
		pid(repo), path,
		&gl.GetFileMetaDataOptions{Ref: gl.Ptr(branch)},
		gl.WithContext(ctx),
	)
	if err != nil {
		logger.Debugf("[gitlab] failed to refetch %q after write: %v", path, err)
		return ""
	}
	return file.LastCommitID
}

// DeleteFile removes the file from the branch guarded by the last commit ID.
func (f *Forge) DeleteFile(
	ctx context.Context,
	repo domain.Repository,
	input domain.DeleteInput,
) error {
	if f.client == nil {
		return errClientNotInitialized
	}

	resp, err := f.client.RepositoryFiles.DeleteFile(
		pid(repo), input.Path,
		&gl.DeleteFileOptions{
			Branch:        gl.Ptr(input.Branch),
			CommitMessage: gl.Ptr(input.Message),
			LastCommitID:  gl.Ptr(input.SHA),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return classify("delete "+input.Path, resp, err)
	}
	return nil
}

// EnsureBranch creates branch from base unless it already exists.
func (f *Forge) EnsureBranch(
	ctx context.Context,
	repo domain.Repository,
	branch, base string,
) error {
	if f.client == nil {
		return errClientNotInitialized
	}

	_, resp, err := f.client.Branches.GetBranch(pid(repo), branch, gl.WithContext(ctx))
	if err == nil {
		logger.Debugf("[gitlab] branch %q already exists in %s", branch, repo.FullName())
		return nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return classify("get branch "+branch, resp, err)
	}

	_, resp, err = f.client.Branches.CreateBranch(
		pid(repo),
		&gl.CreateBranchOptions{
			Branch: gl.Ptr(branch),
			Ref:    gl.Ptr(base),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return classify("create branch "+branch, resp, err)
	}
	return nil
}

// CreatePullRequest opens a merge request from head to base. GitLab happily
// accepts merge requests with an empty diff, so the branches are compared
// first and ErrNoChanges is reported when they do not differ.
func (f *Forge) CreatePullRequest(
	ctx context.Context,
	repo domain.Repository,
	input domain.PullRequestInput,
) (*domain.PullRequest, error) {
	if f.client == nil {
		return nil, errClientNotInitialized
	}

	compare, resp, err := f.client.Repositories.Compare(
		pid(repo),
		&gl.CompareOptions{
			From: gl.Ptr(input.BaseBranch),
			To:   gl.Ptr(input.HeadBranch),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, classify("compare branches", resp, err)
	}
	if len(compare.Diffs) == 0 {
		return nil, fmt.Errorf("%s..%s: %w", input.BaseBranch, input.HeadBranch, domain.ErrNoChanges)
	}

	mr, resp, err := f.client.MergeRequests.CreateMergeRequest(
		pid(repo),
		&gl.CreateMergeRequestOptions{
			Title:              gl.Ptr(input.Title),
			Description:        gl.Ptr(input.Body),
			SourceBranch:       gl.Ptr(input.HeadBranch),
			TargetBranch:       gl.Ptr(input.BaseBranch),
			RemoveSourceBranch: gl.Ptr(true),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, classify("create merge request", resp, err)
	}

	return &domain.PullRequest{
		Number: int(mr.IID),
		Title:  mr.Title,
		URL:    mr.WebURL,
		State:  mr.State,
	}, nil
}

// FindOpenPullRequest returns the first open merge request from head to
// base, or nil when none exists.
func (f *Forge) FindOpenPullRequest(
	ctx context.Context,
	repo domain.Repository,
	head, base string,
) (*domain.PullRequest, error) {
	if f.client == nil {
		return nil, errClientNotInitialized
	}

	mrs, resp, err := f.client.MergeRequests.ListProjectMergeRequests(
		pid(repo),
		&gl.ListProjectMergeRequestsOptions{
			SourceBranch: gl.Ptr(head),
			TargetBranch: gl.Ptr(base),
			State:        gl.Ptr("opened"),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, classify("list merge requests", resp, err)
	}
	if len(mrs) == 0 {
		return nil, nil //nolint:nilnil // nil means no open MR
	}

	return &domain.PullRequest{
		Number: int(mrs[0].IID),
		Title:  mrs[0].Title,
		URL:    mrs[0].WebURL,
		State:  mrs[0].State,
	}, nil
}

// DefaultBranch returns the project's default branch name.
func (f *Forge) DefaultBranch(
	ctx context.Context,
	repo domain.Repository,
) (string, error) {
	if f.client == nil {
		return "", errClientNotInitialized
	}

	project, resp, err := f.client.Projects.GetProject(
		pid(repo), nil, gl.WithContext(ctx),
	)
	if err != nil {
		return "", classify("get project", resp, err)
	}
	return project.DefaultBranch, nil
}

// ListRepositories lists all projects in a GitLab group (subgroups
// included), falling back to user projects when the owner is not a group.
// Archived projects are left out.
func (f *Forge) ListRepositories(
	ctx context.Context,
	owner string,
) ([]domain.Repository, error) {
	if f.client == nil {
		return nil, errClientNotInitialized
	}

	var all []domain.Repository
	opts := &gl.ListGroupProjectsOptions{
		ListOptions:      gl.ListOptions{PerPage: perPage},
		IncludeSubGroups: gl.Ptr(true),
	}

	for {
		projects, resp, err := f.client.Groups.ListGroupProjects(
			owner, opts, gl.WithContext(ctx),
		)
		if err != nil {
			// Fall back to listing user projects
			return f.listUserProjects(ctx, owner)
		}

		for _, proj := range projects {
			if proj.Archived {
				continue
			}
			all = append(all, toRepository(owner, proj))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

func (f *Forge) listUserProjects(
	ctx context.Context,
	user string,
) ([]domain.Repository, error) {
	var all []domain.Repository
	opts := &gl.ListProjectsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Owned:       gl.Ptr(true),
	}

	for {
		projects, resp, err := f.client.Projects.ListProjects(
			opts, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, classify("list projects for "+user, resp, err)
		}

		for _, proj := range projects {
			if proj.Archived {
				continue
			}
			all = append(all, toRepository(user, proj))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

func toRepository(owner string, proj *gl.Project) domain.Repository {
	defaultBranch := "main"
	if proj.DefaultBranch != "" {
		defaultBranch = proj.DefaultBranch
	}
	return domain.Repository{
		ID:            strconv.FormatInt(int64(proj.ID), 10),
		Name:          proj.Path,
		Organization:  owner,
		DefaultBranch: defaultBranch,
		WebURL:        proj.WebURL,
		ForgeName:     forgeName,
	}
}

// ListFiles returns the full recursive tree of the project at ref.
func (f *Forge) ListFiles(
	ctx context.Context,
	repo domain.Repository,
	ref string,
) ([]domain.File, error) {
	if f.client == nil {
		return nil, errClientNotInitialized
	}

	ref, err := f.resolveRef(ctx, repo, ref)
	if err != nil {
		return nil, err
	}

	var all []domain.File
	opts := &gl.ListTreeOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Ref:         gl.Ptr(ref),
		Recursive:   gl.Ptr(true),
	}

	for {
		nodes, resp, err := f.client.Repositories.ListTree(
			pid(repo), opts, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, classify("list files", resp, err)
		}

		for _, node := range nodes {
			all = append(all, domain.File{
				Path:     node.Path,
				ObjectID: node.ID,
				IsDir:    node.Type == "tree",
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// SearchCode returns the paths of files in the project whose blobs match a
// search query. A file matching on several lines is reported once.
func (f *Forge) SearchCode(
	ctx context.Context,
	repo domain.Repository,
	query string,
) ([]string, error) {
	if f.client == nil {
		return nil, errClientNotInitialized
	}

	var paths []string
	seen := make(map[string]bool)
	opts := &gl.SearchOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}

	for {
		blobs, resp, err := f.client.Search.BlobsByProject(
			pid(repo), query, opts, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, classify("search code", resp, err)
		}

		for _, blob := range blobs {
			if seen[blob.Path] {
				continue
			}
			seen[blob.Path] = true
			paths = append(paths, blob.Path)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return paths, nil
}

// resolveRef substitutes the default branch for an empty ref. GitLab file
// and tree endpoints require an explicit ref.
func (f *Forge) resolveRef(
	ctx context.Context,
	repo domain.Repository,
	ref string,
) (string, error) {
	if ref != "" {
		return ref, nil
	}
	if repo.DefaultBranch != "" {
		return repo.DefaultBranch, nil
	}
	return f.DefaultBranch(ctx, repo)
}

// classify converts a GitLab API failure into the gateway error taxonomy.
// GitLab reports stale-write and already-exists rejections with a 400, so
// bad requests on this forge are treated as conflicts.
func classify(op string, resp *gl.Response, err error) error {
	kind := domain.GatewayUnknown

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = domain.GatewayTimeout
	case resp != nil:
		switch resp.StatusCode {
		case http.StatusNotFound:
			kind = domain.GatewayNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = domain.GatewayPermissionDenied
		case http.StatusConflict, http.StatusBadRequest:
			kind = domain.GatewayConflict
		case http.StatusTooManyRequests:
			kind = domain.GatewayRateLimited
		}
	}

	return domain.NewGatewayError(kind, op, err)
}
