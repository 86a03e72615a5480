package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/railwayapp/slipway/internal/discovery/signals"
	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/filesystems"
	"golang.org/x/sync/errgroup"
)

// ErrNoApplication indicates no signal recognized a deployable Python
// application under the scanned root
var ErrNoApplication = errors.New("no application found")

// Signal observes directory entries during the walk and afterwards emits
// AppSpec fragments with a confidence score for triangulation
type Signal interface {
	// ObserveEntry is called for each entry encountered during the walk
	ObserveEntry(ctx context.Context, rootPath string, entry filesystems.DirEntry) error

	// Fragments is called once after the walk to produce partial specs
	Fragments(ctx context.Context) ([]types.Fragment, error)

	// Reset clears accumulated state before a new walk
	Reset()
}

// AppDiscovery triangulates an AppSpec from multiple signals
type AppDiscovery struct {
	signals    []Signal
	filesystem filesystems.FileSystem
}

// MaxWalkDepth bounds the directory walk; manifests deeper than this are
// treated as belonging to vendored or unrelated trees
const MaxWalkDepth = 4

var skipDirs = map[string]bool{
	".git": true, ".hg": true, "node_modules": true, "__pycache__": true,
	".venv": true, "venv": true, ".tox": true, ".mypy_cache": true,
	"dist": true, "build": true, ".eggs": true,
}

func NewAppDiscovery(filesystem filesystems.FileSystem, sigs ...Signal) *AppDiscovery {
	if len(sigs) == 0 {
		sigs = DefaultSignals(filesystem)
	}
	return &AppDiscovery{signals: sigs, filesystem: filesystem}
}

func DefaultSignals(filesystem filesystems.FileSystem) []Signal {
	return []Signal{
		signals.NewRequirementsSignal(filesystem),
		signals.NewPyProjectSignal(filesystem),
		signals.NewASGISignal(filesystem),
		signals.NewProcfileSignal(filesystem),
		signals.NewDockerComposeSignal(filesystem),
		signals.NewDockerfileSignal(filesystem),
		signals.NewSkaffoldSignal(filesystem),
		signals.NewDotenvSignal(filesystem),
	}
}

// Discover walks the source tree, feeds every entry to every signal, then
// gathers fragments concurrently and merges them into a single AppSpec
func (d *AppDiscovery) Discover(ctx context.Context, rootPath string) (*types.AppSpec, error) {
	for _, sig := range d.signals {
		sig.Reset()
	}

	if err := d.walk(ctx, rootPath, 0); err != nil {
		return nil, fmt.Errorf("filesystem walk failed: %w", err)
	}

	var (
		mu        sync.Mutex
		fragments []types.Fragment
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, sig := range d.signals {
		g.Go(func() error {
			frags, err := sig.Fragments(gctx)
			if err != nil {
				// A broken config file should not sink the whole discovery
				return nil
			}
			mu.Lock()
			fragments = append(fragments, frags...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(fragments) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoApplication, rootPath)
	}

	spec := merge(fragments)
	if spec.Root == "" {
		spec.Root = rootPath
	}
	if spec.Name == "" {
		spec.Name = d.filesystem.Base(spec.Root)
	}
	return spec, nil
}

func (d *AppDiscovery) walk(ctx context.Context, dir string, depth int) error {
	if depth > MaxWalkDepth {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var subdirs []string
	for entry, err := range d.filesystem.ReadDir(dir) {
		if err != nil {
			return err
		}

		for _, sig := range d.signals {
			if err := sig.ObserveEntry(ctx, dir, entry); err != nil {
				return err
			}
		}

		if entry.IsDir() && !skipDirs[entry.Name()] && !strings.HasPrefix(entry.Name(), ".") {
			subdirs = append(subdirs, d.filesystem.Join(dir, entry.Name()))
		}
	}

	sort.Strings(subdirs)
	for _, sub := range subdirs {
		if err := d.walk(ctx, sub, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// merge resolves field conflicts by confidence: for each AppSpec field the
// highest-confidence fragment that sets it wins; config refs accumulate
func merge(fragments []types.Fragment) *types.AppSpec {
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].Confidence > fragments[j].Confidence
	})

	out := &types.AppSpec{}
	for _, frag := range fragments {
		s := frag.Spec
		if out.Name == "" {
			out.Name = s.Name
		}
		if out.Root == "" {
			out.Root = s.Root
		}
		if out.ManifestPath == "" && s.ManifestPath != "" {
			out.ManifestPath = s.ManifestPath
			out.ManifestKind = s.ManifestKind
		}
		if out.AppImport == "" {
			out.AppImport = s.AppImport
		}
		if out.Framework == "" {
			out.Framework = s.Framework
		}
		if out.Port == 0 {
			out.Port = s.Port
		}
		if out.StartCommand == nil {
			out.StartCommand = s.StartCommand
		}
		if out.Image == "" {
			out.Image = s.Image
		}
		if out.PythonVersion == "" {
			out.PythonVersion = s.PythonVersion
		}
		if out.DockerfilePath == "" {
			out.DockerfilePath = s.DockerfilePath
		}
		out.EnvFiles = append(out.EnvFiles, s.EnvFiles...)
		out.Configs = append(out.Configs, s.Configs...)
	}
	return out
}
