package forge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkedit/domain"
	"github.com/rios0rios0/bulkedit/infrastructure/forge"
	testdoubles "github.com/rios0rios0/bulkedit/test"
)

func TestForgeRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should register and retrieve a forge by name", func(t *testing.T) {
		t.Parallel()

		// given
		reg := forge.NewRegistry()
		factory := func(_ string) domain.Forge {
			return &testdoubles.SpyForge{ForgeName: "test-forge"}
		}
		reg.Register("test-forge", factory)

		// when
		fg, err := reg.Get("test-forge", "fake-token")

		// then
		require.NoError(t, err)
		assert.NotNil(t, fg)
		assert.Equal(t, "test-forge", fg.Name())
	})

	t.Run("should return error for unknown forge", func(t *testing.T) {
		t.Parallel()

		// given
		reg := forge.NewRegistry()

		// when
		fg, err := reg.Get("nonexistent", "token")

		// then
		require.Error(t, err)
		assert.Nil(t, fg)
		assert.Contains(t, err.Error(), "unknown forge")
	})

	t.Run("should list registered forge names", func(t *testing.T) {
		t.Parallel()

		// given
		reg := forge.NewRegistry()
		reg.Register("github", func(_ string) domain.Forge {
			return &testdoubles.SpyForge{ForgeName: "github"}
		})
		reg.Register("gitlab", func(_ string) domain.Forge {
			return &testdoubles.SpyForge{ForgeName: "gitlab"}
		})

		// when
		names := reg.Names()

		// then
		assert.Len(t, names, 2)
		assert.ElementsMatch(t, []string{"github", "gitlab"}, names)
	})

	t.Run("should pass token to factory function", func(t *testing.T) {
		t.Parallel()

		// given
		var receivedToken string
		reg := forge.NewRegistry()
		reg.Register("custom", func(token string) domain.Forge {
			receivedToken = token
			return &testdoubles.SpyForge{ForgeName: "custom"}
		})

		// when
		_, err := reg.Get("custom", "my-secret-token")

		// then
		require.NoError(t, err)
		assert.Equal(t, "my-secret-token", receivedToken)
	})

	t.Run("should return empty names for empty registry", func(t *testing.T) {
		t.Parallel()

		// given
		reg := forge.NewRegistry()

		// when
		names := reg.Names()

		// then
		assert.Empty(t, names)
	})
}
