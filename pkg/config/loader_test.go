package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/sprout/pkg/config"
)

// Each test uses its own struct type because parsed configs are cached
// per type for the process lifetime.

func TestLoad_Success(t *testing.T) {
	type cfg struct {
		Name string `env:"TEST_LOAD_SUCCESS_NAME"`
	}
	t.Setenv("TEST_LOAD_SUCCESS_NAME", "sprout")

	var c cfg
	require.NoError(t, config.Load(&c))
	assert.Equal(t, "sprout", c.Name)
}

func TestLoad_DefaultValues(t *testing.T) {
	type cfg struct {
		Addr string `env:"TEST_LOAD_DEFAULT_ADDR" envDefault:":8080"`
	}

	var c cfg
	require.NoError(t, config.Load(&c))
	assert.Equal(t, ":8080", c.Addr)
}

func TestLoad_MissingRequired(t *testing.T) {
	type cfg struct {
		Secret string `env:"TEST_LOAD_MISSING_SECRET,required"`
	}

	var c cfg
	err := config.Load(&c)
	require.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_Singleton(t *testing.T) {
	type cfg struct {
		Value string `env:"TEST_LOAD_SINGLETON_VALUE"`
	}
	t.Setenv("TEST_LOAD_SINGLETON_VALUE", "first")

	var first cfg
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "first", first.Value)

	// Later environment changes do not affect the cached value.
	t.Setenv("TEST_LOAD_SINGLETON_VALUE", "second")
	var second cfg
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	type cfg struct {
		Value string `env:"TEST_LOAD_NIL_VALUE"`
	}

	var p *cfg
	err := config.Load(p)
	require.ErrorIs(t, err, config.ErrNilPointer)
}

func TestLoadEnv_CustomPath(t *testing.T) {
	type cfg struct {
		Catalog string `env:"TEST_LOADENV_CATALOG_PATH"`
	}

	require.NoError(t, config.LoadEnv("testdata/custom.env"))

	var c cfg
	require.NoError(t, config.Load(&c))
	assert.Equal(t, "configs/prices.yaml", c.Catalog)
}

func TestLoadEnv_OverrideOrder(t *testing.T) {
	type cfg struct {
		Env string `env:"TEST_LOADENV_ENVIRONMENT"`
	}

	require.NoError(t, config.LoadEnv("testdata/custom.env", "testdata/override.env"))

	var c cfg
	require.NoError(t, config.Load(&c))
	assert.Equal(t, "sandbox", c.Env)
}

func TestLoadEnv_NonExistentPath(t *testing.T) {
	err := config.LoadEnv("testdata/does_not_exist.env")
	require.ErrorIs(t, err, config.ErrLoadingEnvFiles)
}

func TestMustLoadEnv_Panics(t *testing.T) {
	assert.Panics(t, func() {
		config.MustLoadEnv("testdata/does_not_exist.env")
	})
}
