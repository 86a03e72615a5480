package signals

import (
	"context"
	"strings"

	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/filesystems"
)

// DotenvSignal collects .env files next to the app; the environment package
// decides later which variables are safe to bake into the image
type DotenvSignal struct {
	filesystem filesystems.FileSystem
	paths      []string
	dirs       map[string]string
}

func NewDotenvSignal(filesystem filesystems.FileSystem) *DotenvSignal {
	return &DotenvSignal{filesystem: filesystem}
}

func (d *DotenvSignal) Confidence() int {
	return 40
}

func (d *DotenvSignal) Reset() {
	d.paths = nil
	d.dirs = make(map[string]string)
}

func (d *DotenvSignal) ObserveEntry(ctx context.Context, rootPath string, entry filesystems.DirEntry) error {
	if entry.IsDir() {
		return nil
	}

	name := strings.ToLower(entry.Name())
	if name == ".env" || strings.HasPrefix(name, ".env.") {
		// Example files document variables without real values; skip them
		if strings.HasSuffix(name, ".example") || strings.HasSuffix(name, ".sample") {
			return nil
		}
		path := d.filesystem.Join(rootPath, entry.Name())
		d.paths = append(d.paths, path)
		d.dirs[path] = rootPath
	}
	return nil
}

func (d *DotenvSignal) Fragments(ctx context.Context) ([]types.Fragment, error) {
	if len(d.paths) == 0 {
		return nil, nil
	}

	var configs []types.ConfigRef
	for _, path := range d.paths {
		configs = append(configs, types.ConfigRef{Type: "dotenv", Path: path})
	}

	return []types.Fragment{{
		Confidence: d.Confidence(),
		Spec: types.AppSpec{
			Root:     d.dirs[d.paths[0]],
			EnvFiles: d.paths,
			Configs:  configs,
		},
	}}, nil
}
