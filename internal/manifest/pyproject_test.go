package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pyprojectFixture = `
[project]
name = "warehouse"
version = "2.0.0"
requires-python = ">=3.11"
dependencies = [
    "fastapi==0.104.1",
    "sqlalchemy==2.0.23",
    "numpy>=1.26",
]

[project.optional-dependencies]
dev = ["pytest==7.4.3"]
`

func TestManifestFromPyProject(t *testing.T) {
	m, err := ManifestFromPyProject("pyproject.toml", []byte(pyprojectFixture))
	require.NoError(t, err)

	require.Equal(t, 3, m.Len())
	assert.True(t, m.Has("fastapi"))
	assert.True(t, m.Has("numpy"))
	assert.False(t, m.Has("pytest")) // optional deps are not the runtime manifest
	assert.False(t, m.Pinned())
}

func TestManifestFromPyProjectNoDependencies(t *testing.T) {
	_, err := ManifestFromPyProject("pyproject.toml", []byte("[project]\nname = \"empty\"\n"))
	assert.ErrorIs(t, err, ErrEmptyManifest)
}
