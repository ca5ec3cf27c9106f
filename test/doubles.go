// Package testdoubles provides test doubles (spies, stubs, dummies) for domain
// interfaces. These are hand-crafted implementations — no mock frameworks.
package testdoubles

import (
	"context"
	"fmt"
	"sync"

	"github.com/rios0rios0/bulkedit/domain"
)

// ---------------------------------------------------------------------------
// SpyForge
// ---------------------------------------------------------------------------

// FetchCall records a single invocation of FetchFile.
type FetchCall struct {
	Path string
	Ref  string
}

// BranchCall records a single invocation of EnsureBranch.
type BranchCall struct {
	Branch string
	Base   string
}

// FindPRCall records a single invocation of FindOpenPullRequest.
type FindPRCall struct {
	Head string
	Base string
}

// SpyForge implements domain.Forge as a configurable spy.
// Configure the response fields for the methods your test exercises,
// then inspect the call-tracking fields to verify behavior. All methods are
// safe for concurrent use; inspect tracking fields only after the code
// under test has returned.
type SpyForge struct {
	mu sync.Mutex

	// --- identity ---
	ForgeName string

	// PanicWith, when set, makes every gateway call panic with this value.
	// Used to test the batch's per-repository isolation boundary.
	PanicWith any

	// --- FetchFile ---
	FileContents map[string]*domain.FileContent // path -> content
	FetchErrs    map[string]error               // path -> error (checked first)
	// spy: fetches received
	FetchCalls []FetchCall

	// --- WriteFile ---
	WriteResult *domain.WriteResult
	// WriteErrs is consumed one entry per call (nil entries mean success);
	// once exhausted WriteErr applies to every further call.
	WriteErrs []error
	WriteErr  error
	// spy: inputs received
	WriteInputs []domain.WriteInput

	// --- DeleteFile ---
	DeleteErr error
	// spy: inputs received
	DeleteInputs []domain.DeleteInput

	// --- EnsureBranch ---
	EnsureBranchErr error
	// spy: branches ensured
	BranchCalls []BranchCall

	// --- CreatePullRequest ---
	CreatedPR   *domain.PullRequest
	CreatePRErr error
	// spy: inputs received
	PRInputs []domain.PullRequestInput

	// --- FindOpenPullRequest ---
	ExistingPR *domain.PullRequest
	FindPRErr  error
	// spy: lookups received
	FindPRCalls []FindPRCall

	// --- DefaultBranch ---
	DefaultBranchName string
	DefaultBranchErr  error

	// --- ListRepositories ---
	Repositories []domain.Repository
	ListReposErr error
	// spy: owners that were listed
	ListedOwners []string

	// --- ListFiles ---
	Files        []domain.File
	ListFilesErr error

	// --- SearchCode ---
	SearchResults []string
	SearchErr     error
	// spy: queries received
	SearchQueries []string
}

var _ domain.Forge = (*SpyForge)(nil)

func (f *SpyForge) Name() string {
	if f.ForgeName != "" {
		return f.ForgeName
	}
	return "spy"
}

// enter serializes one gateway call and honors the configured panic.
func (f *SpyForge) enter() func() {
	f.mu.Lock()
	if f.PanicWith != nil {
		f.mu.Unlock()
		panic(f.PanicWith)
	}
	return f.mu.Unlock
}

func (f *SpyForge) FetchFile(
	_ context.Context,
	_ domain.Repository,
	path, ref string,
) (*domain.FileContent, error) {
	defer f.enter()()
	f.FetchCalls = append(f.FetchCalls, FetchCall{Path: path, Ref: ref})
	if f.FetchErrs != nil {
		if err, ok := f.FetchErrs[path]; ok {
			return nil, err
		}
	}
	if f.FileContents != nil {
		if content, ok := f.FileContents[path]; ok {
			return content, nil
		}
	}
	return nil, domain.NewGatewayError(
		domain.GatewayNotFound,
		"fetch file",
		fmt.Errorf("file not found: %s", path),
	)
}

func (f *SpyForge) WriteFile(
	_ context.Context,
	_ domain.Repository,
	input domain.WriteInput,
) (*domain.WriteResult, error) {
	defer f.enter()()
	f.WriteInputs = append(f.WriteInputs, input)
	if len(f.WriteErrs) > 0 {
		err := f.WriteErrs[0]
		f.WriteErrs = f.WriteErrs[1:]
		if err != nil {
			return nil, err
		}
	} else if f.WriteErr != nil {
		return nil, f.WriteErr
	}
	if f.WriteResult != nil {
		return f.WriteResult, nil
	}
	return &domain.WriteResult{SHA: "written-sha", Created: input.SHA == ""}, nil
}

func (f *SpyForge) DeleteFile(
	_ context.Context,
	_ domain.Repository,
	input domain.DeleteInput,
) error {
	defer f.enter()()
	f.DeleteInputs = append(f.DeleteInputs, input)
	return f.DeleteErr
}

func (f *SpyForge) EnsureBranch(
	_ context.Context,
	_ domain.Repository,
	branch, base string,
) error {
	defer f.enter()()
	f.BranchCalls = append(f.BranchCalls, BranchCall{Branch: branch, Base: base})
	return f.EnsureBranchErr
}

func (f *SpyForge) CreatePullRequest(
	_ context.Context,
	_ domain.Repository,
	input domain.PullRequestInput,
) (*domain.PullRequest, error) {
	defer f.enter()()
	f.PRInputs = append(f.PRInputs, input)
	if f.CreatePRErr != nil {
		return nil, f.CreatePRErr
	}
	if f.CreatedPR != nil {
		return f.CreatedPR, nil
	}
	return &domain.PullRequest{
		Number: 1,
		Title:  input.Title,
		URL:    "https://example.com/pr/1",
		State:  "open",
	}, nil
}

func (f *SpyForge) FindOpenPullRequest(
	_ context.Context,
	_ domain.Repository,
	head, base string,
) (*domain.PullRequest, error) {
	defer f.enter()()
	f.FindPRCalls = append(f.FindPRCalls, FindPRCall{Head: head, Base: base})
	if f.FindPRErr != nil {
		return nil, f.FindPRErr
	}
	return f.ExistingPR, nil
}

func (f *SpyForge) DefaultBranch(
	_ context.Context,
	_ domain.Repository,
) (string, error) {
	defer f.enter()()
	if f.DefaultBranchErr != nil {
		return "", f.DefaultBranchErr
	}
	if f.DefaultBranchName != "" {
		return f.DefaultBranchName, nil
	}
	return "main", nil
}

func (f *SpyForge) ListRepositories(
	_ context.Context,
	owner string,
) ([]domain.Repository, error) {
	defer f.enter()()
	f.ListedOwners = append(f.ListedOwners, owner)
	return f.Repositories, f.ListReposErr
}

func (f *SpyForge) ListFiles(
	_ context.Context,
	_ domain.Repository,
	_ string,
) ([]domain.File, error) {
	defer f.enter()()
	return f.Files, f.ListFilesErr
}

func (f *SpyForge) SearchCode(
	_ context.Context,
	_ domain.Repository,
	query string,
) ([]string, error) {
	defer f.enter()()
	f.SearchQueries = append(f.SearchQueries, query)
	return f.SearchResults, f.SearchErr
}

// ---------------------------------------------------------------------------
// SpyStrategy
// ---------------------------------------------------------------------------

// ExtractCall records a single invocation of Extract.
type ExtractCall struct {
	Document string
	Config   domain.StrategyConfig
}

// SpyStrategy implements domain.ExtractionStrategy as a configurable spy.
type SpyStrategy struct {
	mu sync.Mutex

	// --- identity ---
	StrategyKind domain.ExtractionStrategyKind

	// --- Extract ---
	Result *string
	Err    error
	// spy: calls received
	ExtractCalls []ExtractCall
}

var _ domain.ExtractionStrategy = (*SpyStrategy)(nil)

func (s *SpyStrategy) Kind() domain.ExtractionStrategyKind { return s.StrategyKind }

func (s *SpyStrategy) Extract(
	document string,
	config domain.StrategyConfig,
) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExtractCalls = append(s.ExtractCalls, ExtractCall{Document: document, Config: config})
	return s.Result, s.Err
}

// ---------------------------------------------------------------------------
// DummyForge — satisfies the interface but does nothing (for compile checks)
// ---------------------------------------------------------------------------

// DummyForge is a no-op implementation of domain.Forge.
// Use it only for interface compliance tests or as a placeholder.
type DummyForge struct{}

var _ domain.Forge = (*DummyForge)(nil)

func (d *DummyForge) Name() string { return "dummy" }

func (d *DummyForge) FetchFile(
	_ context.Context,
	_ domain.Repository,
	_, _ string,
) (*domain.FileContent, error) {
	return nil, nil //nolint:nilnil // dummy no-op
}

func (d *DummyForge) WriteFile(
	_ context.Context,
	_ domain.Repository,
	_ domain.WriteInput,
) (*domain.WriteResult, error) {
	return nil, nil //nolint:nilnil // dummy no-op
}

func (d *DummyForge) DeleteFile(
	_ context.Context,
	_ domain.Repository,
	_ domain.DeleteInput,
) error {
	return nil
}

func (d *DummyForge) EnsureBranch(
	_ context.Context,
	_ domain.Repository,
	_, _ string,
) error {
	return nil
}

func (d *DummyForge) CreatePullRequest(
	_ context.Context,
	_ domain.Repository,
	_ domain.PullRequestInput,
) (*domain.PullRequest, error) {
	return nil, nil //nolint:nilnil // dummy no-op
}

func (d *DummyForge) FindOpenPullRequest(
	_ context.Context,
	_ domain.Repository,
	_, _ string,
) (*domain.PullRequest, error) {
	return nil, nil //nolint:nilnil // dummy no-op
}

func (d *DummyForge) DefaultBranch(
	_ context.Context,
	_ domain.Repository,
) (string, error) {
	return "", nil
}

func (d *DummyForge) ListRepositories(
	_ context.Context,
	_ string,
) ([]domain.Repository, error) {
	return nil, nil
}

func (d *DummyForge) ListFiles(
	_ context.Context,
	_ domain.Repository,
	_ string,
) ([]domain.File, error) {
	return nil, nil
}

func (d *DummyForge) SearchCode(
	_ context.Context,
	_ domain.Repository,
	_ string,
) ([]string, error) {
	return nil, nil
}
