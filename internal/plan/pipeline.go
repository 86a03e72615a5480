package plan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/railwayapp/slipway/internal/discovery"
	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/environment"
	"github.com/railwayapp/slipway/internal/filesystems"
	"github.com/railwayapp/slipway/internal/manifest"
	"github.com/railwayapp/slipway/internal/nativedeps"
)

// Status tracks a pipeline invocation. There are no intermediate or retry
// states: a failure anywhere halts the run with nothing produced.
type Status string

const (
	StatusPending  Status = "pending"
	StatusBuilding Status = "building"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
)

// Result bundles everything a single invocation produced
type Result struct {
	App      *types.AppSpec
	Manifest *manifest.Manifest
	Env      []environment.Var
	Plan     *Plan
}

// Pipeline runs discover → manifest → plan as one fail-fast batch
type Pipeline struct {
	filesystem filesystems.FileSystem
	planner    *Planner
	status     Status
}

func NewPipeline(filesystem filesystems.FileSystem, config Config, registry *nativedeps.Registry) *Pipeline {
	return &Pipeline{
		filesystem: filesystem,
		planner:    NewPlanner(config, registry),
		status:     StatusPending,
	}
}

// Status returns the state of the last (or current) invocation
func (p *Pipeline) Status() Status {
	return p.status
}

// Run executes the pipeline against the given source root. On any error the
// pipeline is marked failed and no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, rootPath string) (*Result, error) {
	p.status = StatusBuilding

	result, err := p.run(ctx, rootPath)
	if err != nil {
		p.status = StatusFailed
		return nil, err
	}

	p.status = StatusReady
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, rootPath string) (*Result, error) {
	appDiscovery := discovery.NewAppDiscovery(p.filesystem)
	app, err := appDiscovery.Discover(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("application discovery failed: %w", err)
	}

	m, err := ReadManifest(p.filesystem, app)
	if err != nil {
		return nil, err
	}

	app.SourceFingerprint, err = sourceFingerprint(p.filesystem, app.Root)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting source tree: %w", err)
	}

	env, err := environment.Extract(p.filesystem, app.EnvFiles)
	if err != nil {
		return nil, fmt.Errorf("environment extraction failed: %w", err)
	}

	buildPlan, err := p.planner.Plan(app, m, env)
	if err != nil {
		return nil, fmt.Errorf("planning failed: %w", err)
	}

	return &Result{App: app, Manifest: m, Env: env, Plan: buildPlan}, nil
}

// ReadManifest loads the dependency manifest in the format the discovered
// spec declares
func ReadManifest(filesystem filesystems.FileSystem, app *types.AppSpec) (*manifest.Manifest, error) {
	if app.ManifestPath == "" {
		return nil, fmt.Errorf("%w: no requirements.txt or pyproject.toml under %s",
			manifest.ErrManifestNotFound, app.Root)
	}

	switch app.ManifestKind {
	case types.ManifestPyProject:
		content, err := filesystem.ReadFile(app.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", manifest.ErrManifestNotFound, app.ManifestPath)
		}
		return manifest.ManifestFromPyProject(app.ManifestPath, content)
	default:
		return manifest.ParseRequirementsFile(filesystem, app.ManifestPath)
	}
}

// Trees and files that never reach the copy-source artifact; mirrors the
// rendered .dockerignore so tool output doesn't churn the fingerprint
var (
	fingerprintSkipDirs = map[string]bool{
		".git": true, ".venv": true, "venv": true, "__pycache__": true,
		".mypy_cache": true, ".pytest_cache": true, "node_modules": true,
	}
	fingerprintSkipFiles = map[string]bool{
		"Dockerfile": true, ".dockerignore": true, "compose.yaml": true,
		manifest.LockFileName: true,
	}
)

// sourceFingerprint digests the source tree that the build stage copies:
// every staged file's relative path and size. A source-only edit therefore
// changes the stage keys even when the manifest is untouched.
func sourceFingerprint(filesystem filesystems.FileSystem, root string) (string, error) {
	h := sha256.New()

	err := filesystem.Walk(root, func(path string, info filesystems.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := filesystem.Base(path)
		if info.IsDir() {
			if fingerprintSkipDirs[name] {
				return filesystems.SkipDir
			}
			return nil
		}
		if fingerprintSkipFiles[name] || strings.HasPrefix(name, ".env") {
			return nil
		}

		rel, relErr := filesystem.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		fmt.Fprintf(h, "%s=%d\n", rel, info.Size())
		return nil
	})
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
