package plan

import (
	"context"
	"testing"

	"github.com/railwayapp/slipway/internal/filesystems"
	"github.com/railwayapp/slipway/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineEndToEnd(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("requirements.txt", []byte(warehouseRequirements))
	mfs.AddFile("main.py", []byte("from fastapi import FastAPI\n\napp = FastAPI()\n"))
	mfs.AddFile(".env", []byte("TZ=Europe/Moscow\nSECRET_KEY=warehouse-secret-key-2024-course-project\n"))

	pipeline := NewPipeline(mfs, DefaultConfig(), nil)
	assert.Equal(t, StatusPending, pipeline.Status())

	result, err := pipeline.Run(context.Background(), ".")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, pipeline.Status())

	assert.Equal(t, "main:app", result.App.AppImport)
	assert.Equal(t, 5, result.Manifest.Len())
	require.NotNil(t, result.Plan)
	assert.NotEmpty(t, result.Plan.Build.CacheKey)

	// Sensitive vars are extracted but never baked
	require.Len(t, result.Env, 2)
	for _, v := range result.Env {
		if v.Name == "SECRET_KEY" {
			assert.True(t, v.Sensitive)
		}
	}
}

func TestPipelineCacheKeysTrackSourceEdits(t *testing.T) {
	buildFS := func(mainPy string) *filesystems.MemoryFS {
		mfs := filesystems.NewMemoryFS()
		mfs.AddFile("requirements.txt", []byte(warehouseRequirements))
		mfs.AddFile("main.py", []byte(mainPy))
		return mfs
	}

	first, err := NewPipeline(buildFS("app = FastAPI()\n"), DefaultConfig(), nil).Run(context.Background(), ".")
	require.NoError(t, err)
	same, err := NewPipeline(buildFS("app = FastAPI()\n"), DefaultConfig(), nil).Run(context.Background(), ".")
	require.NoError(t, err)

	assert.Equal(t, first.Plan.Build.CacheKey, same.Plan.Build.CacheKey)
	assert.Equal(t, first.Plan.Runtime.CacheKey, same.Plan.Runtime.CacheKey)

	// A source-only edit must invalidate both stages: the build stage copies
	// the tree and the runtime stage receives it by promotion
	edited, err := NewPipeline(buildFS("app = FastAPI()\n\n@app.get(\"/\")\ndef index():\n    return {}\n"), DefaultConfig(), nil).Run(context.Background(), ".")
	require.NoError(t, err)

	assert.NotEqual(t, first.Plan.Build.CacheKey, edited.Plan.Build.CacheKey)
	assert.NotEqual(t, first.Plan.Runtime.CacheKey, edited.Plan.Runtime.CacheKey)
}

func TestPipelineFingerprintIgnoresToolOutput(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("requirements.txt", []byte(warehouseRequirements))
	mfs.AddFile("main.py", []byte("app = FastAPI()\n"))

	first, err := NewPipeline(mfs, DefaultConfig(), nil).Run(context.Background(), ".")
	require.NoError(t, err)

	// Rendered companions are excluded from the source artifact, so writing
	// them must not churn the keys on the next invocation
	mfs.AddFile("Dockerfile", []byte("FROM python:3.11-slim AS builder\n"))
	mfs.AddFile(".dockerignore", []byte(".git\n"))
	mfs.AddFile("slipway.lock", []byte("version: 1\n"))

	second, err := NewPipeline(mfs, DefaultConfig(), nil).Run(context.Background(), ".")
	require.NoError(t, err)

	assert.Equal(t, first.Plan.Build.CacheKey, second.Plan.Build.CacheKey)
}

func TestPipelineFailsWithoutManifest(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("main.py", []byte("app = FastAPI()\n"))

	pipeline := NewPipeline(mfs, DefaultConfig(), nil)
	_, err := pipeline.Run(context.Background(), ".")

	require.Error(t, err)
	assert.ErrorIs(t, err, manifest.ErrManifestNotFound)
	assert.Equal(t, StatusFailed, pipeline.Status())
}

func TestPipelineFailFastOnBrokenManifest(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("requirements.txt", []byte("numpy==1.26.4\nnumpy==1.25.0\n"))
	mfs.AddFile("main.py", []byte("app = FastAPI()\n"))

	pipeline := NewPipeline(mfs, DefaultConfig(), nil)
	result, err := pipeline.Run(context.Background(), ".")

	require.Error(t, err)
	assert.Nil(t, result) // no partial result on failure
	assert.Equal(t, StatusFailed, pipeline.Status())
}
