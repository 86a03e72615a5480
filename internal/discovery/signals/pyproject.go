package signals

import (
	"context"
	"strings"

	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/filesystems"
	"github.com/railwayapp/slipway/internal/manifest"
)

// PyProjectSignal finds pyproject.toml files and reads project metadata.
// It only claims the manifest role when [project].dependencies is populated;
// a requirements.txt in the same tree outranks it.
type PyProjectSignal struct {
	filesystem filesystems.FileSystem
	paths      []string
	dirs       map[string]string
}

func NewPyProjectSignal(filesystem filesystems.FileSystem) *PyProjectSignal {
	return &PyProjectSignal{filesystem: filesystem}
}

func (p *PyProjectSignal) Confidence() int {
	return 75
}

func (p *PyProjectSignal) Reset() {
	p.paths = nil
	p.dirs = make(map[string]string)
}

func (p *PyProjectSignal) ObserveEntry(ctx context.Context, rootPath string, entry filesystems.DirEntry) error {
	if !entry.IsDir() && strings.EqualFold(entry.Name(), "pyproject.toml") {
		path := p.filesystem.Join(rootPath, entry.Name())
		p.paths = append(p.paths, path)
		p.dirs[path] = rootPath
	}
	return nil
}

func (p *PyProjectSignal) Fragments(ctx context.Context) ([]types.Fragment, error) {
	var fragments []types.Fragment
	for _, path := range p.paths {
		project, err := manifest.ParsePyProjectFile(p.filesystem, path)
		if err != nil {
			continue // broken configs don't contribute
		}

		spec := types.AppSpec{
			Root:    p.dirs[path],
			Configs: []types.ConfigRef{{Type: "pyproject", Path: path}},
		}
		if project.Project.Name != "" {
			spec.Name = project.Project.Name
		}
		if version := pythonVersionFromRequires(project.Project.RequiresPython); version != "" {
			spec.PythonVersion = version
		}
		if len(project.Project.Dependencies) > 0 {
			spec.ManifestPath = path
			spec.ManifestKind = types.ManifestPyProject
		}

		fragments = append(fragments, types.Fragment{Spec: spec, Confidence: p.Confidence()})
	}
	return fragments, nil
}

// pythonVersionFromRequires extracts an interpreter version from a
// requires-python constraint like ">=3.11" or "~=3.10.0"
func pythonVersionFromRequires(requires string) string {
	requires = strings.TrimSpace(requires)
	for _, op := range []string{">=", "~=", "=="} {
		if strings.HasPrefix(requires, op) {
			version := strings.TrimSpace(strings.TrimPrefix(requires, op))
			parts := strings.Split(version, ".")
			if len(parts) >= 2 {
				return parts[0] + "." + parts[1]
			}
			return version
		}
	}
	return ""
}
