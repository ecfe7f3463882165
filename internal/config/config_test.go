package config

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags(t *testing.T) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine
	t.Cleanup(func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	})
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
}

func TestParse_Defaults(t *testing.T) {
	resetFlags(t)
	os.Args = []string{"storefront"}

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.RunAddress)
	assert.Equal(t, "", cfg.DatabaseURI)
	assert.Equal(t, "", cfg.CatalogAddress)
	assert.Equal(t, "storefront-secret", cfg.AuthSecret)
}

func TestParse_Flags(t *testing.T) {
	resetFlags(t)
	os.Args = []string{"storefront", "-a", ":9090", "-d", "postgres://localhost/store", "-c", "catalog:8081"}

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.RunAddress)
	assert.Equal(t, "postgres://localhost/store", cfg.DatabaseURI)
	assert.Equal(t, "catalog:8081", cfg.CatalogAddress)
}

func TestParse_EnvOverridesFlags(t *testing.T) {
	resetFlags(t)
	os.Args = []string{"storefront", "-a", ":9090"}

	t.Setenv("RUN_ADDRESS", ":7070")
	t.Setenv("AUTH_SECRET", "env-secret")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.RunAddress)
	assert.Equal(t, "env-secret", cfg.AuthSecret)
}
