package extraction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkedit/domain"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction"
	testdoubles "github.com/rios0rios0/bulkedit/test"
)

func TestStrategyRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should register and retrieve a strategy by kind", func(t *testing.T) {
		t.Parallel()

		// given
		reg := extraction.NewRegistry()
		stub := &testdoubles.SpyStrategy{StrategyKind: domain.StrategyRegex}
		reg.Register(stub)

		// when
		s, err := reg.Get(domain.StrategyRegex)

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyRegex, s.Kind())
	})

	t.Run("should return an error for an unknown kind", func(t *testing.T) {
		t.Parallel()

		// given
		reg := extraction.NewRegistry()

		// when
		s, err := reg.Get("nonexistent")

		// then
		assert.Nil(t, s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no extraction strategy registered")
	})

	t.Run("should list registered strategy kinds", func(t *testing.T) {
		t.Parallel()

		// given
		reg := extraction.NewRegistry()
		reg.Register(&testdoubles.SpyStrategy{StrategyKind: domain.StrategyRegex})
		reg.Register(&testdoubles.SpyStrategy{StrategyKind: domain.StrategyJSONPath})

		// when
		kinds := reg.Kinds()

		// then
		assert.Len(t, kinds, 2)
		assert.ElementsMatch(
			t,
			[]domain.ExtractionStrategyKind{domain.StrategyRegex, domain.StrategyJSONPath},
			kinds,
		)
	})

	t.Run("should return an empty list for an empty registry", func(t *testing.T) {
		t.Parallel()

		// given
		reg := extraction.NewRegistry()

		// when
		kinds := reg.Kinds()

		// then
		assert.Empty(t, kinds)
	})

	t.Run("should overwrite a strategy with the same kind", func(t *testing.T) {
		t.Parallel()

		// given
		reg := extraction.NewRegistry()
		first := &testdoubles.SpyStrategy{StrategyKind: domain.StrategyRegex}
		second := &testdoubles.SpyStrategy{StrategyKind: domain.StrategyRegex}
		reg.Register(first)
		reg.Register(second)

		// when
		s, err := reg.Get(domain.StrategyRegex)

		// then
		require.NoError(t, err)
		assert.Same(t, second, s)
		assert.Len(t, reg.Kinds(), 1)
	})
}
