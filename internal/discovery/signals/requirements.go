package signals

import (
	"context"
	"strings"

	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/filesystems"
)

// RequirementsSignal finds pip requirements files. The dependency manifest
// is the pipeline's primary input, so this signal anchors the app root.
type RequirementsSignal struct {
	filesystem filesystems.FileSystem
	paths      []string          // all found requirements files
	dirs       map[string]string // path -> containing directory
}

func NewRequirementsSignal(filesystem filesystems.FileSystem) *RequirementsSignal {
	return &RequirementsSignal{filesystem: filesystem}
}

func (r *RequirementsSignal) Confidence() int {
	return 80
}

func (r *RequirementsSignal) Reset() {
	r.paths = nil
	r.dirs = make(map[string]string)
}

func (r *RequirementsSignal) ObserveEntry(ctx context.Context, rootPath string, entry filesystems.DirEntry) error {
	if entry.IsDir() {
		return nil
	}

	name := strings.ToLower(entry.Name())
	if name != "requirements.txt" {
		return nil
	}

	path := r.filesystem.Join(rootPath, entry.Name())
	r.paths = append(r.paths, path)
	r.dirs[path] = rootPath
	return nil
}

func (r *RequirementsSignal) Fragments(ctx context.Context) ([]types.Fragment, error) {
	if len(r.paths) == 0 {
		return nil, nil
	}

	// Prefer the shallowest manifest: the service root, not a vendored tree
	best := r.paths[0]
	for _, p := range r.paths[1:] {
		if strings.Count(p, "/") < strings.Count(best, "/") {
			best = p
		}
	}

	root := r.dirs[best]
	return []types.Fragment{{
		Confidence: r.Confidence(),
		Spec: types.AppSpec{
			Name:         r.filesystem.Base(root),
			Root:         root,
			ManifestPath: best,
			ManifestKind: types.ManifestRequirements,
			Configs: []types.ConfigRef{
				{Type: "requirements", Path: best},
			},
		},
	}}, nil
}
