package discovery

import (
	"context"
	"testing"

	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/filesystems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainPy = `from fastapi import FastAPI

app = FastAPI(title="Warehouse Inventory System")

@app.get("/")
def index():
    return {"status": "ok"}
`

func TestDiscoverFastAPIService(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("requirements.txt", []byte("fastapi==0.104.1\nuvicorn==0.24.0\n"))
	mfs.AddFile("main.py", []byte(mainPy))
	mfs.AddFile("models.py", []byte("class Product:\n    pass\n"))
	mfs.AddFile(".env", []byte("DEBUG=true\n"))

	spec, err := NewAppDiscovery(mfs).Discover(context.Background(), ".")
	require.NoError(t, err)

	assert.Equal(t, "requirements.txt", spec.ManifestPath)
	assert.Equal(t, types.ManifestRequirements, spec.ManifestKind)
	assert.Equal(t, "main:app", spec.AppImport)
	assert.Equal(t, "fastapi", spec.Framework)
	assert.Equal(t, []string{".env"}, spec.EnvFiles)
}

func TestDiscoverProcfileOverridesStartCommand(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("requirements.txt", []byte("fastapi==0.104.1\n"))
	mfs.AddFile("main.py", []byte(mainPy))
	mfs.AddFile("Procfile", []byte("web: uvicorn api:application --host 0.0.0.0 --port 9000\n"))

	spec, err := NewAppDiscovery(mfs).Discover(context.Background(), ".")
	require.NoError(t, err)

	// Procfile outranks the scanned module for both command and import path
	assert.Equal(t, []string{"uvicorn", "api:application", "--host", "0.0.0.0", "--port", "9000"}, spec.StartCommand)
	assert.Equal(t, "api:application", spec.AppImport)
	assert.Equal(t, 9000, spec.Port)
}

func TestDiscoverExistingDockerfileRecorded(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("requirements.txt", []byte("fastapi==0.104.1\n"))
	mfs.AddFile("Dockerfile", []byte("FROM python:3.11-slim\n"))

	spec, err := NewAppDiscovery(mfs).Discover(context.Background(), ".")
	require.NoError(t, err)

	assert.Equal(t, "Dockerfile", spec.DockerfilePath)
}

func TestDiscoverNothingFound(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("README.md", []byte("# not a python service\n"))

	_, err := NewAppDiscovery(mfs).Discover(context.Background(), ".")
	assert.ErrorIs(t, err, ErrNoApplication)
}

func TestDiscoverPrefersShallowManifest(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("requirements.txt", []byte("fastapi==0.104.1\n"))
	mfs.AddFile("vendor/pkg/requirements.txt", []byte("other==1.0\n"))
	mfs.AddFile("main.py", []byte(mainPy))

	spec, err := NewAppDiscovery(mfs).Discover(context.Background(), ".")
	require.NoError(t, err)

	assert.Equal(t, "requirements.txt", spec.ManifestPath)
}

func TestDiscoverSkipsVendoredTrees(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile(".venv/lib/requirements.txt", []byte("vendored==1.0\n"))
	mfs.AddFile("__pycache__/junk.py", []byte(""))

	_, err := NewAppDiscovery(mfs).Discover(context.Background(), ".")
	assert.ErrorIs(t, err, ErrNoApplication)
}
