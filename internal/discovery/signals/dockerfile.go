package signals

import (
	"context"
	"strings"

	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/filesystems"
)

// DockerfileSignal records an existing descriptor in the tree so verify can
// check it and render can refuse to clobber it without --force
type DockerfileSignal struct {
	filesystem filesystems.FileSystem
	paths      []string
	dirs       map[string]string
}

func NewDockerfileSignal(filesystem filesystems.FileSystem) *DockerfileSignal {
	return &DockerfileSignal{filesystem: filesystem}
}

func (d *DockerfileSignal) Confidence() int {
	return 60
}

func (d *DockerfileSignal) Reset() {
	d.paths = nil
	d.dirs = make(map[string]string)
}

func (d *DockerfileSignal) ObserveEntry(ctx context.Context, rootPath string, entry filesystems.DirEntry) error {
	if !entry.IsDir() && strings.EqualFold(entry.Name(), "Dockerfile") {
		path := d.filesystem.Join(rootPath, entry.Name())
		d.paths = append(d.paths, path)
		d.dirs[path] = rootPath
	}
	return nil
}

func (d *DockerfileSignal) Fragments(ctx context.Context) ([]types.Fragment, error) {
	var fragments []types.Fragment
	for _, path := range d.paths {
		fragments = append(fragments, types.Fragment{
			Confidence: d.Confidence(),
			Spec: types.AppSpec{
				Root:           d.dirs[path],
				DockerfilePath: path,
				Configs:        []types.ConfigRef{{Type: "dockerfile", Path: path}},
			},
		})
	}
	return fragments, nil
}
