package yamlpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkedit/domain"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction/yamlpath"
)

func TestYAMLPathExtract(t *testing.T) {
	t.Parallel()

	strategy := yamlpath.New()

	t.Run("should report the yamlpath kind", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, domain.StrategyYAMLPath, strategy.Kind())
	})

	t.Run("should resolve the first candidate path that matches", func(t *testing.T) {
		t.Parallel()

		// given
		document := "image:\n  tag: 1.25.3\n"
		config := domain.StrategyConfig{CandidatePaths: []string{"image.tag", "appVersion"}}

		// when
		value, err := strategy.Extract(document, config)

		// then
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "1.25.3", *value)
	})

	t.Run("should fall through to a later candidate", func(t *testing.T) {
		t.Parallel()

		// given the first path resolves nothing
		document := "c: 5\n"
		config := domain.StrategyConfig{CandidatePaths: []string{"a.b", "c"}}

		// when
		value, err := strategy.Extract(document, config)

		// then
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "5", *value)
	})

	t.Run("should short-circuit on an explicit null", func(t *testing.T) {
		t.Parallel()

		// given the first candidate is present but null
		document := "primary: null\nfallback: ok\n"
		config := domain.StrategyConfig{CandidatePaths: []string{"primary", "fallback"}}

		// when
		value, err := strategy.Extract(document, config)

		// then
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("should skip a candidate that resolves to a mapping", func(t *testing.T) {
		t.Parallel()

		// given the first candidate lands on a non-scalar node
		document := "image:\n  tag: 2.0.0\nversion: 9.9.9\n"
		config := domain.StrategyConfig{CandidatePaths: []string{"image", "version"}}

		// when
		value, err := strategy.Extract(document, config)

		// then
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "9.9.9", *value)
	})

	t.Run("should resolve sequence elements by index", func(t *testing.T) {
		t.Parallel()

		// given
		document := "replicas:\n  - name: a\n  - name: b\n"
		config := domain.StrategyConfig{CandidatePaths: []string{"replicas.1.name"}}

		// when
		value, err := strategy.Extract(document, config)

		// then
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "b", *value)
	})

	t.Run("should render booleans and numbers as text", func(t *testing.T) {
		t.Parallel()

		// given
		document := "enabled: true\ncount: 3\nratio: 0.5\n"

		tests := []struct {
			name     string
			path     string
			expected string
		}{
			{name: "bool", path: "enabled", expected: "true"},
			{name: "int", path: "count", expected: "3"},
			{name: "float", path: "ratio", expected: "0.5"},
		}

		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				t.Parallel()

				// when
				value, err := strategy.Extract(document, domain.StrategyConfig{
					CandidatePaths: []string{test.path},
				})

				// then
				require.NoError(t, err)
				require.NotNil(t, value)
				assert.Equal(t, test.expected, *value)
			})
		}
	})

	t.Run("should report not-found when no candidate resolves", func(t *testing.T) {
		t.Parallel()

		// given
		document := "other: value\n"
		config := domain.StrategyConfig{CandidatePaths: []string{"a.b", "c"}}

		// when
		value, err := strategy.Extract(document, config)

		// then
		assert.Nil(t, value)
		assert.True(t, domain.IsExtractionNotFound(err))
	})

	t.Run("should report malformed-document for invalid YAML", func(t *testing.T) {
		t.Parallel()

		// given
		config := domain.StrategyConfig{CandidatePaths: []string{"a"}}

		// when
		value, err := strategy.Extract("a: [unclosed\n", config)

		// then
		assert.Nil(t, value)
		assert.True(t, domain.IsMalformedDocument(err))
	})
}
