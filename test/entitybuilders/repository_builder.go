package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/bulkedit/domain"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// RepositoryBuilder helps create test repositories with a fluent interface.
type RepositoryBuilder struct {
	*testkit.BaseBuilder
	id            string
	name          string
	organization  string
	defaultBranch string
	webURL        string
	forgeName     string
}

// NewRepositoryBuilder creates a new repository builder with sensible defaults.
func NewRepositoryBuilder() *RepositoryBuilder {
	return &RepositoryBuilder{
		BaseBuilder:   testkit.NewBaseBuilder(),
		id:            "1001",
		name:          "service-a",
		organization:  "acme",
		defaultBranch: "main",
		webURL:        "https://github.com/acme/service-a",
		forgeName:     "github",
	}
}

// WithID sets the forge-assigned identifier.
func (b *RepositoryBuilder) WithID(id string) *RepositoryBuilder {
	b.id = id
	return b
}

// WithName sets the repository name.
func (b *RepositoryBuilder) WithName(name string) *RepositoryBuilder {
	b.name = name
	return b
}

// WithOrganization sets the owning organization.
func (b *RepositoryBuilder) WithOrganization(org string) *RepositoryBuilder {
	b.organization = org
	return b
}

// WithDefaultBranch sets the default branch name.
func (b *RepositoryBuilder) WithDefaultBranch(branch string) *RepositoryBuilder {
	b.defaultBranch = branch
	return b
}

// WithWebURL sets the browse URL.
func (b *RepositoryBuilder) WithWebURL(url string) *RepositoryBuilder {
	b.webURL = url
	return b
}

// WithForgeName sets the hosting forge name.
func (b *RepositoryBuilder) WithForgeName(forge string) *RepositoryBuilder {
	b.forgeName = forge
	return b
}

// Build creates the repository (satisfies testkit.Builder interface).
func (b *RepositoryBuilder) Build() interface{} {
	return b.BuildRepository()
}

// BuildRepository creates the repository with a concrete return type.
func (b *RepositoryBuilder) BuildRepository() domain.Repository {
	return domain.Repository{
		ID:            b.id,
		Name:          b.name,
		Organization:  b.organization,
		DefaultBranch: b.defaultBranch,
		WebURL:        b.webURL,
		ForgeName:     b.forgeName,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *RepositoryBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.id = "1001"
	b.name = "service-a"
	b.organization = "acme"
	b.defaultBranch = "main"
	b.webURL = "https://github.com/acme/service-a"
	b.forgeName = "github"
	return b
}

// Clone creates a deep copy of the RepositoryBuilder.
func (b *RepositoryBuilder) Clone() testkit.Builder {
	return &RepositoryBuilder{
		BaseBuilder:   b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		id:            b.id,
		name:          b.name,
		organization:  b.organization,
		defaultBranch: b.defaultBranch,
		webURL:        b.webURL,
		forgeName:     b.forgeName,
	}
}
