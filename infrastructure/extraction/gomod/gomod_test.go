package gomod_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkedit/domain"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction/gomod"
)

const modFileDocument = `module github.com/acme/service

go 1.22.4

require (
	github.com/sirupsen/logrus v1.9.3
	gopkg.in/yaml.v3 v3.0.1 // indirect
)
`

func TestGoModExtract(t *testing.T) {
	t.Parallel()

	strategy := gomod.New()

	t.Run("should report the gomod kind", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, domain.StrategyGoMod, strategy.Kind())
	})

	t.Run("should extract the go directive when no module is named", func(t *testing.T) {
		t.Parallel()

		// given
		config := domain.StrategyConfig{}

		// when
		value, err := strategy.Extract(modFileDocument, config)

		// then
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "1.22.4", *value)
	})

	t.Run("should extract a required module version", func(t *testing.T) {
		t.Parallel()

		// given
		config := domain.StrategyConfig{Module: "github.com/sirupsen/logrus"}

		// when
		value, err := strategy.Extract(modFileDocument, config)

		// then
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "v1.9.3", *value)
	})

	t.Run("should extract an indirect requirement", func(t *testing.T) {
		t.Parallel()

		// given
		config := domain.StrategyConfig{Module: "gopkg.in/yaml.v3"}

		// when
		value, err := strategy.Extract(modFileDocument, config)

		// then
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "v3.0.1", *value)
	})

	t.Run("should report not-found for an unrequired module", func(t *testing.T) {
		t.Parallel()

		// given
		config := domain.StrategyConfig{Module: "github.com/spf13/cobra"}

		// when
		value, err := strategy.Extract(modFileDocument, config)

		// then
		assert.Nil(t, value)
		assert.True(t, domain.IsExtractionNotFound(err))
	})

	t.Run("should report not-found when the go directive is absent", func(t *testing.T) {
		t.Parallel()

		// given
		document := "module github.com/acme/bare\n"
		config := domain.StrategyConfig{}

		// when
		value, err := strategy.Extract(document, config)

		// then
		assert.Nil(t, value)
		assert.True(t, domain.IsExtractionNotFound(err))
	})

	t.Run("should report malformed-document for an invalid go.mod", func(t *testing.T) {
		t.Parallel()

		// given
		config := domain.StrategyConfig{}

		// when
		value, err := strategy.Extract("require (\nbroken\n", config)

		// then
		assert.Nil(t, value)
		assert.True(t, domain.IsMalformedDocument(err))
	})
}
