package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/bulkedit/domain"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// ActionSpecBuilder helps create test action specs with a fluent interface.
type ActionSpecBuilder struct {
	*testkit.BaseBuilder
	kind          domain.ActionKind
	filePath      string
	content       string
	branchName    string
	baseBranch    string
	prTitle       string
	prBody        string
	commitMessage string
	search        *domain.SearchReplace
}

// NewActionSpecBuilder creates a new action spec builder with sensible defaults.
func NewActionSpecBuilder() *ActionSpecBuilder {
	return &ActionSpecBuilder{
		BaseBuilder:   testkit.NewBaseBuilder(),
		kind:          domain.ActionUpdate,
		filePath:      "VERSION",
		content:       "{{app_version}}\n",
		branchName:    "bulkedit/update-version",
		prTitle:       "Update version to {{app_version}}",
		commitMessage: "chore: update version to {{app_version}}",
	}
}

// WithKind sets the action kind.
func (b *ActionSpecBuilder) WithKind(kind domain.ActionKind) *ActionSpecBuilder {
	b.kind = kind
	return b
}

// WithFilePath sets the target file path template.
func (b *ActionSpecBuilder) WithFilePath(path string) *ActionSpecBuilder {
	b.filePath = path
	return b
}

// WithContent sets the content template.
func (b *ActionSpecBuilder) WithContent(content string) *ActionSpecBuilder {
	b.content = content
	return b
}

// WithBranchName sets the work branch name template.
func (b *ActionSpecBuilder) WithBranchName(branch string) *ActionSpecBuilder {
	b.branchName = branch
	return b
}

// WithBaseBranch sets the pull request base branch template.
func (b *ActionSpecBuilder) WithBaseBranch(branch string) *ActionSpecBuilder {
	b.baseBranch = branch
	return b
}

// WithPRTitle sets the pull request title template.
func (b *ActionSpecBuilder) WithPRTitle(title string) *ActionSpecBuilder {
	b.prTitle = title
	return b
}

// WithPRBody sets the pull request body template.
func (b *ActionSpecBuilder) WithPRBody(body string) *ActionSpecBuilder {
	b.prBody = body
	return b
}

// WithCommitMessage sets the commit message template.
func (b *ActionSpecBuilder) WithCommitMessage(message string) *ActionSpecBuilder {
	b.commitMessage = message
	return b
}

// WithSearch sets the search/replace settings for update actions.
func (b *ActionSpecBuilder) WithSearch(search *domain.SearchReplace) *ActionSpecBuilder {
	b.search = search
	return b
}

// Build creates the action spec (satisfies testkit.Builder interface).
func (b *ActionSpecBuilder) Build() interface{} {
	return b.BuildActionSpec()
}

// BuildActionSpec creates the action spec with a concrete return type.
func (b *ActionSpecBuilder) BuildActionSpec() domain.ActionSpec {
	return domain.ActionSpec{
		Kind:          b.kind,
		FilePath:      b.filePath,
		Content:       b.content,
		BranchName:    b.branchName,
		BaseBranch:    b.baseBranch,
		PRTitle:       b.prTitle,
		PRBody:        b.prBody,
		CommitMessage: b.commitMessage,
		Search:        b.search,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *ActionSpecBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.kind = domain.ActionUpdate
	b.filePath = "VERSION"
	b.content = "{{app_version}}\n"
	b.branchName = "bulkedit/update-version"
	b.baseBranch = ""
	b.prTitle = "Update version to {{app_version}}"
	b.prBody = ""
	b.commitMessage = "chore: update version to {{app_version}}"
	b.search = nil
	return b
}

// Clone creates a deep copy of the ActionSpecBuilder.
func (b *ActionSpecBuilder) Clone() testkit.Builder {
	clone := &ActionSpecBuilder{
		BaseBuilder:   b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		kind:          b.kind,
		filePath:      b.filePath,
		content:       b.content,
		branchName:    b.branchName,
		baseBranch:    b.baseBranch,
		prTitle:       b.prTitle,
		prBody:        b.prBody,
		commitMessage: b.commitMessage,
	}
	if b.search != nil {
		searchCopy := *b.search
		clone.search = &searchCopy
	}
	return clone
}
