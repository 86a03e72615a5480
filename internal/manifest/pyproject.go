package manifest

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/railwayapp/slipway/internal/filesystems"
)

// PyProject mirrors the subset of pyproject.toml the pipeline consumes
type PyProject struct {
	Project struct {
		Name                 string              `toml:"name"`
		Version              string              `toml:"version"`
		RequiresPython       string              `toml:"requires-python"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
}

// ParsePyProjectFile reads and parses a pyproject.toml from the given filesystem
func ParsePyProjectFile(filesystem filesystems.FileSystem, path string) (*PyProject, error) {
	content, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
	}

	var project PyProject
	if err := toml.Unmarshal(content, &project); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &project, nil
}

// ManifestFromPyProject converts [project].dependencies into a Manifest
func ManifestFromPyProject(path string, content []byte) (*Manifest, error) {
	var project PyProject
	if err := toml.Unmarshal(content, &project); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var reqs []Requirement
	for _, spec := range project.Project.Dependencies {
		req, err := ParseRequirement(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		reqs = append(reqs, req)
	}

	return New(path, content, reqs)
}
