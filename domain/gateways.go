package domain

import "context"

// FileContent is the result of fetching a single file from a forge.
type FileContent struct {
	Content string
	SHA     string
}

// WriteInput contains the data needed to create or update a file.
// An empty SHA creates the file; a non-empty SHA updates that blob.
type WriteInput struct {
	Path    string
	Content string
	Message string
	Branch  string
	SHA     string
}

// WriteResult reports the written blob and whether the write created the
// file rather than overwriting it.
type WriteResult struct {
	SHA     string
	Created bool
}

// DeleteInput contains the data needed to delete a file. The SHA of the
// current blob is mandatory — a file that does not exist cannot be removed.
type DeleteInput struct {
	Path    string
	Message string
	Branch  string
	SHA     string
}

// PullRequestInput contains the data needed to open a pull request.
type PullRequestInput struct {
	HeadBranch string
	BaseBranch string
	Title      string
	Body       string
}

// PullRequest represents a pull/merge request returned by a forge.
type PullRequest struct {
	Number int
	Title  string
	URL    string
	State  string
}

// ContentGateway reads and mutates files through the forge API.
type ContentGateway interface {
	// FetchFile returns the content and blob SHA of path at ref.
	// A missing file is reported as a GatewayError with kind NotFound.
	FetchFile(ctx context.Context, repo Repository, path, ref string) (*FileContent, error)

	// WriteFile creates or updates a file on a branch (see WriteInput).
	WriteFile(ctx context.Context, repo Repository, input WriteInput) (*WriteResult, error)

	// DeleteFile removes a file from a branch using its current blob SHA.
	DeleteFile(ctx context.Context, repo Repository, input DeleteInput) error
}

// BranchGateway manages working branches.
type BranchGateway interface {
	// EnsureBranch creates branch from base. It is idempotent: an already
	// existing branch is reused without error, so re-running a batch against
	// a partially processed repository never fails here.
	EnsureBranch(ctx context.Context, repo Repository, branch, base string) error
}

// PullRequestGateway opens and inspects pull requests.
type PullRequestGateway interface {
	// CreatePullRequest opens a pull request from head to base. When the
	// forge rejects it because the branches have no diff, the error wraps
	// ErrNoChanges.
	CreatePullRequest(ctx context.Context, repo Repository, input PullRequestInput) (*PullRequest, error)

	// FindOpenPullRequest returns the first open pull request from head to
	// base, or nil when none exists.
	FindOpenPullRequest(ctx context.Context, repo Repository, head, base string) (*PullRequest, error)
}

// RepositoryGateway discovers repositories and inspects their trees.
type RepositoryGateway interface {
	// DefaultBranch returns the repository's default branch name.
	DefaultBranch(ctx context.Context, repo Repository) (string, error)

	// ListRepositories lists all repositories of an organization or user.
	ListRepositories(ctx context.Context, owner string) ([]Repository, error)

	// ListFiles returns the full recursive tree of the repository at ref.
	ListFiles(ctx context.Context, repo Repository, ref string) ([]File, error)

	// SearchCode returns the paths of files matching a code-search query.
	SearchCode(ctx context.Context, repo Repository, query string) ([]string, error)
}

// Forge bundles the gateway capabilities of one hosting forge. The batch
// engine depends on the narrow gateway interfaces; forge implementations
// satisfy all of them behind a single client.
type Forge interface {
	// Name returns the forge identifier (e.g. "github", "gitlab").
	Name() string

	ContentGateway
	BranchGateway
	PullRequestGateway
	RepositoryGateway
}
