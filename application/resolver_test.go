package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkedit/application"
	"github.com/rios0rios0/bulkedit/domain"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction"
	testdoubles "github.com/rios0rios0/bulkedit/test"
)

// --- helpers ---

func strPtr(s string) *string { return &s }

func buildResolver(
	forge *testdoubles.SpyForge,
	strategies ...domain.ExtractionStrategy,
) *application.PlaceholderResolver {
	reg := extraction.NewRegistry()
	for _, s := range strategies {
		reg.Register(s)
	}
	return application.NewPlaceholderResolver(forge, reg)
}

func versionDefinition() domain.PlaceholderDefinition {
	return domain.PlaceholderDefinition{
		Name:           "version",
		SourceFilePath: "package.json",
		Strategy:       domain.StrategyRegex,
		Config:         domain.StrategyConfig{Pattern: `"version":\s*"([^"]+)"`},
	}
}

// --- tests ---

func TestPlaceholderResolver_Resolve(t *testing.T) {
	t.Parallel()

	repo := domain.Repository{
		Name:          "service-a",
		Organization:  "acme",
		DefaultBranch: "main",
	}

	t.Run("should inject built-in placeholders for every repository", func(t *testing.T) {
		t.Parallel()

		// given
		resolver := buildResolver(&testdoubles.SpyForge{})

		// when
		resolved, err := resolver.Resolve(context.Background(), repo, "main", nil)

		// then
		require.NoError(t, err)
		name, ok := resolved.Value("repo_name")
		require.True(t, ok)
		assert.Equal(t, "service-a", name)
		fullName, ok := resolved.Value("repo_full_name")
		require.True(t, ok)
		assert.Equal(t, "acme/service-a", fullName)
		defaultBranch, ok := resolved.Value("repo_default_branch")
		require.True(t, ok)
		assert.Equal(t, "main", defaultBranch)
		timestamp, ok := resolved.Value("timestamp")
		require.True(t, ok)
		_, parseErr := time.Parse(domain.TimestampLayout, timestamp)
		assert.NoError(t, parseErr, "timestamp should follow the documented layout")
	})

	t.Run("should extract a value through the registered strategy", func(t *testing.T) {
		t.Parallel()

		// given
		spyForge := &testdoubles.SpyForge{
			FileContents: map[string]*domain.FileContent{
				"package.json": {Content: `{"version": "1.4.2"}`, SHA: "abc"},
			},
		}
		spyStrategy := &testdoubles.SpyStrategy{
			StrategyKind: domain.StrategyRegex,
			Result:       strPtr("1.4.2"),
		}
		resolver := buildResolver(spyForge, spyStrategy)

		// when
		resolved, err := resolver.Resolve(
			context.Background(), repo, "main",
			[]domain.PlaceholderDefinition{versionDefinition()},
		)

		// then
		require.NoError(t, err)
		value, ok := resolved.Value("version")
		require.True(t, ok)
		assert.Equal(t, "1.4.2", value)
		require.Len(t, spyStrategy.ExtractCalls, 1)
		assert.Equal(t, `{"version": "1.4.2"}`, spyStrategy.ExtractCalls[0].Document)
	})

	t.Run("should let a user definition override a built-in", func(t *testing.T) {
		t.Parallel()

		// given
		spyForge := &testdoubles.SpyForge{
			FileContents: map[string]*domain.FileContent{
				"NAME": {Content: "custom", SHA: "abc"},
			},
		}
		spyStrategy := &testdoubles.SpyStrategy{
			StrategyKind: domain.StrategyRegex,
			Result:       strPtr("custom"),
		}
		resolver := buildResolver(spyForge, spyStrategy)
		def := domain.PlaceholderDefinition{
			Name:           "repo_name",
			SourceFilePath: "NAME",
			Strategy:       domain.StrategyRegex,
			Config:         domain.StrategyConfig{Pattern: `(.+)`},
		}

		// when
		resolved, err := resolver.Resolve(
			context.Background(), repo, "main",
			[]domain.PlaceholderDefinition{def},
		)

		// then
		require.NoError(t, err)
		value, ok := resolved.Value("repo_name")
		require.True(t, ok)
		assert.Equal(t, "custom", value)
	})

	t.Run("should fetch at the branch hint before the current branch", func(t *testing.T) {
		t.Parallel()

		// given
		spyForge := &testdoubles.SpyForge{
			FileContents: map[string]*domain.FileContent{
				"package.json": {Content: "{}", SHA: "abc"},
			},
		}
		spyStrategy := &testdoubles.SpyStrategy{
			StrategyKind: domain.StrategyRegex,
			Result:       strPtr("x"),
		}
		resolver := buildResolver(spyForge, spyStrategy)
		def := versionDefinition()
		def.BranchHint = "release"

		// when
		_, err := resolver.Resolve(
			context.Background(), repo, "work",
			[]domain.PlaceholderDefinition{def},
		)

		// then
		require.NoError(t, err)
		require.Len(t, spyForge.FetchCalls, 1)
		assert.Equal(t, "release", spyForge.FetchCalls[0].Ref)
	})

	t.Run("should fall back to the current branch without a hint", func(t *testing.T) {
		t.Parallel()

		// given
		spyForge := &testdoubles.SpyForge{
			FileContents: map[string]*domain.FileContent{
				"package.json": {Content: "{}", SHA: "abc"},
			},
		}
		spyStrategy := &testdoubles.SpyStrategy{
			StrategyKind: domain.StrategyRegex,
			Result:       strPtr("x"),
		}
		resolver := buildResolver(spyForge, spyStrategy)

		// when
		_, err := resolver.Resolve(
			context.Background(), repo, "work",
			[]domain.PlaceholderDefinition{versionDefinition()},
		)

		// then
		require.NoError(t, err)
		require.Len(t, spyForge.FetchCalls, 1)
		assert.Equal(t, "work", spyForge.FetchCalls[0].Ref)
	})

	t.Run("should record null when the extraction finds nothing", func(t *testing.T) {
		t.Parallel()

		// given
		spyForge := &testdoubles.SpyForge{
			FileContents: map[string]*domain.FileContent{
				"package.json": {Content: "{}", SHA: "abc"},
			},
		}
		spyStrategy := &testdoubles.SpyStrategy{
			StrategyKind: domain.StrategyRegex,
			Err:          domain.NewExtractionNotFound("no match"),
		}
		resolver := buildResolver(spyForge, spyStrategy)

		// when
		resolved, err := resolver.Resolve(
			context.Background(), repo, "main",
			[]domain.PlaceholderDefinition{versionDefinition()},
		)

		// then
		require.NoError(t, err, "a value the document does not hold is not fatal")
		value, ok := resolved.Value("version")
		require.True(t, ok, "the placeholder name must still be known")
		assert.Empty(t, value, "null substitutes as the empty string")
	})

	t.Run("should record null when the extraction yields an explicit null", func(t *testing.T) {
		t.Parallel()

		// given
		spyForge := &testdoubles.SpyForge{
			FileContents: map[string]*domain.FileContent{
				"package.json": {Content: `{"version": null}`, SHA: "abc"},
			},
		}
		spyStrategy := &testdoubles.SpyStrategy{
			StrategyKind: domain.StrategyRegex,
			Result:       nil,
		}
		resolver := buildResolver(spyForge, spyStrategy)

		// when
		resolved, err := resolver.Resolve(
			context.Background(), repo, "main",
			[]domain.PlaceholderDefinition{versionDefinition()},
		)

		// then
		require.NoError(t, err)
		value, ok := resolved.Value("version")
		require.True(t, ok)
		assert.Empty(t, value)
	})

	t.Run("should abort with a hard failure when the source file is missing", func(t *testing.T) {
		t.Parallel()

		// given — the spy reports not-found for any unconfigured path
		spyStrategy := &testdoubles.SpyStrategy{StrategyKind: domain.StrategyRegex}
		resolver := buildResolver(&testdoubles.SpyForge{}, spyStrategy)

		// when
		resolved, err := resolver.Resolve(
			context.Background(), repo, "main",
			[]domain.PlaceholderDefinition{versionDefinition()},
		)

		// then
		require.Error(t, err)
		assert.Nil(t, resolved)
		hard, ok := domain.AsHardFailure(err)
		require.True(t, ok)
		assert.Equal(t, "version", hard.Placeholder)
		assert.Empty(t, spyStrategy.ExtractCalls, "extraction never runs without the document")
	})

	t.Run("should abort with a hard failure when the fetch is denied", func(t *testing.T) {
		t.Parallel()

		// given
		spyForge := &testdoubles.SpyForge{
			FetchErrs: map[string]error{
				"package.json": domain.NewGatewayError(
					domain.GatewayPermissionDenied, "fetch", errors.New("403"),
				),
			},
		}
		resolver := buildResolver(spyForge, &testdoubles.SpyStrategy{StrategyKind: domain.StrategyRegex})

		// when
		_, err := resolver.Resolve(
			context.Background(), repo, "main",
			[]domain.PlaceholderDefinition{versionDefinition()},
		)

		// then
		require.Error(t, err)
		hard, ok := domain.AsHardFailure(err)
		require.True(t, ok)
		assert.Equal(t, "version", hard.Placeholder)
	})

	t.Run("should abort with a hard failure on a malformed document", func(t *testing.T) {
		t.Parallel()

		// given
		spyForge := &testdoubles.SpyForge{
			FileContents: map[string]*domain.FileContent{
				"package.json": {Content: "{not json", SHA: "abc"},
			},
		}
		spyStrategy := &testdoubles.SpyStrategy{
			StrategyKind: domain.StrategyRegex,
			Err:          domain.NewMalformedDocument("unexpected end of input"),
		}
		resolver := buildResolver(spyForge, spyStrategy)

		// when
		_, err := resolver.Resolve(
			context.Background(), repo, "main",
			[]domain.PlaceholderDefinition{versionDefinition()},
		)

		// then
		require.Error(t, err)
		hard, ok := domain.AsHardFailure(err)
		require.True(t, ok)
		assert.Equal(t, "version", hard.Placeholder)
	})

	t.Run("should abort with a hard failure for an unregistered strategy", func(t *testing.T) {
		t.Parallel()

		// given — registry without the regex strategy
		spyForge := &testdoubles.SpyForge{
			FileContents: map[string]*domain.FileContent{
				"package.json": {Content: "{}", SHA: "abc"},
			},
		}
		resolver := buildResolver(spyForge)

		// when
		_, err := resolver.Resolve(
			context.Background(), repo, "main",
			[]domain.PlaceholderDefinition{versionDefinition()},
		)

		// then
		require.Error(t, err)
		hard, ok := domain.AsHardFailure(err)
		require.True(t, ok)
		assert.Equal(t, "version", hard.Placeholder)
		assert.Contains(t, hard.Error(), "no extraction strategy registered")
	})

	t.Run("should resolve definitions in declaration order", func(t *testing.T) {
		t.Parallel()

		// given
		spyForge := &testdoubles.SpyForge{
			FileContents: map[string]*domain.FileContent{
				"a.txt": {Content: "first", SHA: "a"},
				"b.txt": {Content: "second", SHA: "b"},
			},
		}
		spyStrategy := &testdoubles.SpyStrategy{
			StrategyKind: domain.StrategyRegex,
			Result:       strPtr("x"),
		}
		resolver := buildResolver(spyForge, spyStrategy)
		defs := []domain.PlaceholderDefinition{
			{
				Name: "first", SourceFilePath: "a.txt",
				Strategy: domain.StrategyRegex,
				Config:   domain.StrategyConfig{Pattern: "f"},
			},
			{
				Name: "second", SourceFilePath: "b.txt",
				Strategy: domain.StrategyRegex,
				Config:   domain.StrategyConfig{Pattern: "s"},
			},
		}

		// when
		_, err := resolver.Resolve(context.Background(), repo, "main", defs)

		// then
		require.NoError(t, err)
		require.Len(t, spyForge.FetchCalls, 2)
		assert.Equal(t, "a.txt", spyForge.FetchCalls[0].Path)
		assert.Equal(t, "b.txt", spyForge.FetchCalls[1].Path)
	})
}
