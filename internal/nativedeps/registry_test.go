package nativedeps

import (
	"testing"

	"github.com/railwayapp/slipway/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustManifest(t *testing.T, content string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.ParseRequirements("requirements.txt", []byte(content))
	require.NoError(t, err)
	return m
}

func TestResolveNumericPlottingStack(t *testing.T) {
	m := mustManifest(t, `fastapi==0.104.1
uvicorn==0.24.0
numpy==1.26.4
matplotlib==3.8.2
psycopg2==2.9.9
sqlalchemy==2.0.23
`)

	res := NewRegistry().Resolve(m)

	assert.Equal(t, []string{
		"build-essential", "gfortran", "libfreetype6-dev",
		"libopenblas-dev", "libpng-dev", "libpq-dev", "pkg-config",
	}, res.BuildPackages)

	assert.Equal(t, []string{
		"libfreetype6", "libgfortran5", "libopenblas0", "libpng16-16", "libpq5",
	}, res.RuntimePackages)

	assert.Empty(t, res.Unknown)
}

func TestResolvePureStackNeedsNoToolchain(t *testing.T) {
	m := mustManifest(t, "fastapi==0.104.1\nsqlalchemy==2.0.23\npydantic==2.5.0\n")

	res := NewRegistry().Resolve(m)
	assert.Empty(t, res.BuildPackages)
	assert.Empty(t, res.RuntimePackages)
}

func TestResolveUnknownSurfaces(t *testing.T) {
	m := mustManifest(t, "some-obscure-wheel==1.0.0\n")

	res := NewRegistry().Resolve(m)
	require.Len(t, res.Unknown, 1)
	assert.Equal(t, "some-obscure-wheel", res.Unknown[0].Name)
}

func TestResolveDeterministic(t *testing.T) {
	content := "numpy==1.26.4\nmatplotlib==3.8.2\npillow==10.1.0\n"
	registry := NewRegistry()

	first := registry.Resolve(mustManifest(t, content))
	second := registry.Resolve(mustManifest(t, content))

	assert.Equal(t, first.BuildPackages, second.BuildPackages)
	assert.Equal(t, first.RuntimePackages, second.RuntimePackages)
}

func TestCrossCheckFlagsMissingRuntimeLibrary(t *testing.T) {
	m := mustManifest(t, "psycopg2==2.9.9\nnumpy==1.26.4\n")
	registry := NewRegistry()

	// Runtime set missing libpq5: builds fine, crashes at import time
	violations := registry.CrossCheck(m, []string{"libopenblas0", "libgfortran5"})
	require.Len(t, violations, 1)
	assert.Equal(t, "psycopg2", violations[0].Requirement.Name)
	assert.Equal(t, []string{"libpq5"}, violations[0].Missing)
}

func TestCrossCheckPassesWithFullRuntimeSet(t *testing.T) {
	m := mustManifest(t, "psycopg2==2.9.9\nnumpy==1.26.4\n")
	registry := NewRegistry()

	violations := registry.CrossCheck(m, []string{"libopenblas0", "libgfortran5", "libpq5"})
	assert.Empty(t, violations)
}

func TestToolchainPackage(t *testing.T) {
	assert.True(t, ToolchainPackage("build-essential"))
	assert.True(t, ToolchainPackage("gcc"))
	assert.True(t, ToolchainPackage("libpq-dev"))
	assert.True(t, ToolchainPackage("pkg-config"))

	assert.False(t, ToolchainPackage("libpq5"))
	assert.False(t, ToolchainPackage("libopenblas0"))
	assert.False(t, ToolchainPackage("curl"))
}
