package hclattr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkedit/domain"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction/hclattr"
)

const moduleDocument = `
module "network" {
  source  = "registry.example.com/acme/network/aws"
  version = "4.1.0"
}

module "storage" {
  source  = "registry.example.com/acme/storage/aws"
  version = "2.0.5"
}
`

func TestHCLAttrExtract(t *testing.T) {
	t.Parallel()

	strategy := hclattr.New()

	t.Run("should report the hclattr kind", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, domain.StrategyHCLAttr, strategy.Kind())
	})

	t.Run("should extract an attribute from a labeled block", func(t *testing.T) {
		t.Parallel()

		// given
		config := domain.StrategyConfig{
			BlockType:   "module",
			BlockLabels: []string{"storage"},
			Attribute:   "version",
		}

		// when
		value, err := strategy.Extract(moduleDocument, config)

		// then
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "2.0.5", *value)
	})

	t.Run("should extract a root-level attribute", func(t *testing.T) {
		t.Parallel()

		// given
		document := `environment = "production"` + "\n"
		config := domain.StrategyConfig{Attribute: "environment"}

		// when
		value, err := strategy.Extract(document, config)

		// then
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "production", *value)
	})

	t.Run("should render number and bool attributes as text", func(t *testing.T) {
		t.Parallel()

		// given
		document := "count = 3\nenabled = true\n"

		tests := []struct {
			name      string
			attribute string
			expected  string
		}{
			{name: "number", attribute: "count", expected: "3"},
			{name: "bool", attribute: "enabled", expected: "true"},
		}

		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				t.Parallel()

				// when
				value, err := strategy.Extract(document, domain.StrategyConfig{
					Attribute: test.attribute,
				})

				// then
				require.NoError(t, err)
				require.NotNil(t, value)
				assert.Equal(t, test.expected, *value)
			})
		}
	})

	t.Run("should return null for an explicit null attribute", func(t *testing.T) {
		t.Parallel()

		// given
		document := "retired = null\n"
		config := domain.StrategyConfig{Attribute: "retired"}

		// when
		value, err := strategy.Extract(document, config)

		// then
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("should report not-found for a missing block", func(t *testing.T) {
		t.Parallel()

		// given
		config := domain.StrategyConfig{
			BlockType:   "module",
			BlockLabels: []string{"does-not-exist"},
			Attribute:   "version",
		}

		// when
		value, err := strategy.Extract(moduleDocument, config)

		// then
		assert.Nil(t, value)
		assert.True(t, domain.IsExtractionNotFound(err))
	})

	t.Run("should report not-found for a missing attribute", func(t *testing.T) {
		t.Parallel()

		// given
		config := domain.StrategyConfig{
			BlockType:   "module",
			BlockLabels: []string{"network"},
			Attribute:   "providers",
		}

		// when
		value, err := strategy.Extract(moduleDocument, config)

		// then
		assert.Nil(t, value)
		assert.True(t, domain.IsExtractionNotFound(err))
	})

	t.Run("should report not-found for a non-literal expression", func(t *testing.T) {
		t.Parallel()

		// given an attribute that references a variable
		document := "region = var.region\n"
		config := domain.StrategyConfig{Attribute: "region"}

		// when
		value, err := strategy.Extract(document, config)

		// then
		assert.Nil(t, value)
		assert.True(t, domain.IsExtractionNotFound(err))
	})

	t.Run("should report not-found for a composite value", func(t *testing.T) {
		t.Parallel()

		// given
		document := `zones = ["a", "b"]` + "\n"
		config := domain.StrategyConfig{Attribute: "zones"}

		// when
		value, err := strategy.Extract(document, config)

		// then
		assert.Nil(t, value)
		assert.True(t, domain.IsExtractionNotFound(err))
	})

	t.Run("should report malformed-document for invalid HCL", func(t *testing.T) {
		t.Parallel()

		// given
		config := domain.StrategyConfig{Attribute: "version"}

		// when
		value, err := strategy.Extract("module \"broken {\n", config)

		// then
		assert.Nil(t, value)
		assert.True(t, domain.IsMalformedDocument(err))
	})
}
