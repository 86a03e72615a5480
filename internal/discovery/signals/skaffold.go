package signals

import (
	"context"
	"strings"

	"github.com/GoogleContainerTools/skaffold/pkg/skaffold/schema/latest"
	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/filesystems"
	"gopkg.in/yaml.v3"
)

// SkaffoldSignal seeds the plan's image name from skaffold.yaml build
// artifacts when the project already uses skaffold for its dev loop
type SkaffoldSignal struct {
	filesystem filesystems.FileSystem
	paths      []string
	dirs       map[string]string
}

func NewSkaffoldSignal(filesystem filesystems.FileSystem) *SkaffoldSignal {
	return &SkaffoldSignal{filesystem: filesystem}
}

func (s *SkaffoldSignal) Confidence() int {
	return 65
}

func (s *SkaffoldSignal) Reset() {
	s.paths = nil
	s.dirs = make(map[string]string)
}

func (s *SkaffoldSignal) ObserveEntry(ctx context.Context, rootPath string, entry filesystems.DirEntry) error {
	if !entry.IsDir() && (strings.EqualFold(entry.Name(), "skaffold.yaml") || strings.EqualFold(entry.Name(), "skaffold.yml")) {
		path := s.filesystem.Join(rootPath, entry.Name())
		s.paths = append(s.paths, path)
		s.dirs[path] = rootPath
	}
	return nil
}

func (s *SkaffoldSignal) Fragments(ctx context.Context) ([]types.Fragment, error) {
	var fragments []types.Fragment

	for _, path := range s.paths {
		content, err := s.filesystem.ReadFile(path)
		if err != nil {
			continue
		}

		var config latest.SkaffoldConfig
		if err := yaml.Unmarshal(content, &config); err != nil {
			continue
		}

		for _, artifact := range config.Build.Artifacts {
			if artifact.ImageName == "" {
				continue
			}
			root := s.dirs[path]
			if artifact.Workspace != "" {
				root = s.filesystem.Join(root, artifact.Workspace)
			}
			fragments = append(fragments, types.Fragment{
				Confidence: s.Confidence(),
				Spec: types.AppSpec{
					Root:    root,
					Image:   artifact.ImageName,
					Configs: []types.ConfigRef{{Type: "skaffold", Path: path}},
				},
			})
			break
		}
	}

	return fragments, nil
}
