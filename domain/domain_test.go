package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/bulkedit/domain"
	testdoubles "github.com/rios0rios0/bulkedit/test"
	"github.com/rios0rios0/bulkedit/test/entitybuilders"
)

func TestInterfaceCompliance(t *testing.T) {
	t.Parallel()

	t.Run("should satisfy Forge interface with a dummy", func(t *testing.T) {
		t.Parallel()

		// given
		var forge domain.Forge = &testdoubles.DummyForge{}

		// then
		assert.NotNil(t, forge)
		assert.Implements(t, (*domain.Forge)(nil), forge)
	})

	t.Run("should satisfy Forge interface with a spy", func(t *testing.T) {
		t.Parallel()

		// given
		var forge domain.Forge = &testdoubles.SpyForge{ForgeName: "github"}

		// then
		assert.NotNil(t, forge)
		assert.Equal(t, "github", forge.Name())
	})

	t.Run("should satisfy ExtractionStrategy interface with a spy", func(t *testing.T) {
		t.Parallel()

		// given
		var strategy domain.ExtractionStrategy = &testdoubles.SpyStrategy{
			StrategyKind: domain.StrategyRegex,
		}

		// then
		assert.NotNil(t, strategy)
		assert.Equal(t, domain.StrategyRegex, strategy.Kind())
	})
}

func TestRepositoryBuilder(t *testing.T) {
	t.Parallel()

	t.Run("should build a repository with defaults", func(t *testing.T) {
		t.Parallel()

		// given / when
		repo := entitybuilders.NewRepositoryBuilder().BuildRepository()

		// then
		assert.Equal(t, "acme/service-a", repo.FullName())
		assert.Equal(t, "main", repo.DefaultBranch)
		assert.Equal(t, "github", repo.ForgeName)
	})

	t.Run("should override fields fluently", func(t *testing.T) {
		t.Parallel()

		// given / when
		repo := entitybuilders.NewRepositoryBuilder().
			WithName("service-b").
			WithOrganization("initech").
			WithDefaultBranch("develop").
			WithForgeName("gitlab").
			BuildRepository()

		// then
		assert.Equal(t, "initech/service-b", repo.FullName())
		assert.Equal(t, "develop", repo.DefaultBranch)
		assert.Equal(t, "gitlab", repo.ForgeName)
	})

	t.Run("should satisfy the testkit Builder interface", func(t *testing.T) {
		t.Parallel()

		// given
		var builder testkit.Builder = entitybuilders.NewRepositoryBuilder()

		// when
		built := builder.Build()

		// then
		repo, ok := built.(domain.Repository)
		require.True(t, ok)
		assert.Equal(t, "service-a", repo.Name)
	})

	t.Run("should restore defaults on reset", func(t *testing.T) {
		t.Parallel()

		// given
		builder := entitybuilders.NewRepositoryBuilder().
			WithName("renamed").
			WithOrganization("elsewhere")

		// when
		builder.Reset()
		repo := builder.BuildRepository()

		// then
		assert.Equal(t, "acme/service-a", repo.FullName())
	})

	t.Run("should clone into an independent builder", func(t *testing.T) {
		t.Parallel()

		// given
		original := entitybuilders.NewRepositoryBuilder().WithName("service-b")

		// when
		clone, ok := original.Clone().(*entitybuilders.RepositoryBuilder)
		require.True(t, ok)
		original.WithName("service-c")

		// then
		assert.Equal(t, "service-b", clone.BuildRepository().Name)
		assert.Equal(t, "service-c", original.BuildRepository().Name)
	})
}

func TestActionSpecBuilder(t *testing.T) {
	t.Parallel()

	t.Run("should build an action spec that validates", func(t *testing.T) {
		t.Parallel()

		// given / when
		spec := entitybuilders.NewActionSpecBuilder().BuildActionSpec()

		// then
		require.NoError(t, spec.Validate())
		assert.Equal(t, domain.ActionUpdate, spec.Kind)
	})

	t.Run("should render a built spec against placeholder values", func(t *testing.T) {
		t.Parallel()

		// given
		spec := entitybuilders.NewActionSpecBuilder().
			WithBranchName("bulkedit/bump-{{app_version}}").
			BuildActionSpec()
		placeholders := domain.ResolvedPlaceholders{}
		placeholders.Set("app_version", "2.4.0")

		// when
		rendered := domain.RenderAction(spec, placeholders)

		// then
		assert.Equal(t, "2.4.0\n", rendered.Content)
		assert.Equal(t, "bulkedit/bump-2.4.0", rendered.BranchName)
		assert.Equal(t, "Update version to 2.4.0", rendered.PRTitle)
	})

	t.Run("should restore defaults on reset", func(t *testing.T) {
		t.Parallel()

		// given
		builder := entitybuilders.NewActionSpecBuilder().
			WithKind(domain.ActionRemove).
			WithFilePath("obsolete.txt").
			WithSearch(&domain.SearchReplace{Pattern: "a", Replacement: "b"})

		// when
		builder.Reset()
		spec := builder.BuildActionSpec()

		// then
		assert.Equal(t, domain.ActionUpdate, spec.Kind)
		assert.Equal(t, "VERSION", spec.FilePath)
		assert.Nil(t, spec.Search)
	})

	t.Run("should deep-copy search settings on clone", func(t *testing.T) {
		t.Parallel()

		// given
		search := &domain.SearchReplace{Pattern: "v1", Replacement: "v2"}
		original := entitybuilders.NewActionSpecBuilder().WithSearch(search)

		// when
		clone, ok := original.Clone().(*entitybuilders.ActionSpecBuilder)
		require.True(t, ok)
		search.Replacement = "v3"

		// then
		cloned := clone.BuildActionSpec()
		require.NotNil(t, cloned.Search)
		assert.Equal(t, "v2", cloned.Search.Replacement)
		assert.Equal(t, "v3", original.BuildActionSpec().Search.Replacement)
	})

	t.Run("should satisfy the testkit Builder interface", func(t *testing.T) {
		t.Parallel()

		// given
		var builder testkit.Builder = entitybuilders.NewActionSpecBuilder()

		// when
		built := builder.Build()

		// then
		spec, ok := built.(domain.ActionSpec)
		require.True(t, ok)
		assert.NoError(t, spec.Validate())
	})
}
