package signals

import (
	"context"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	composeTypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/filesystems"
)

var composeFileNames = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// DockerComposeSignal reads declared ports, command, and env for the
// source-built service out of a compose file. Compose declarations are
// explicit deployment intent, so they outrank derived defaults.
type DockerComposeSignal struct {
	filesystem filesystems.FileSystem
	paths      []string
	dirs       map[string]string
}

func NewDockerComposeSignal(filesystem filesystems.FileSystem) *DockerComposeSignal {
	return &DockerComposeSignal{filesystem: filesystem}
}

func (d *DockerComposeSignal) Confidence() int {
	return 85
}

func (d *DockerComposeSignal) Reset() {
	d.paths = nil
	d.dirs = make(map[string]string)
}

func (d *DockerComposeSignal) ObserveEntry(ctx context.Context, rootPath string, entry filesystems.DirEntry) error {
	if entry.IsDir() {
		return nil
	}
	for _, name := range composeFileNames {
		if strings.EqualFold(entry.Name(), name) {
			path := d.filesystem.Join(rootPath, entry.Name())
			d.paths = append(d.paths, path)
			d.dirs[path] = rootPath
			break
		}
	}
	return nil
}

func (d *DockerComposeSignal) Fragments(ctx context.Context) ([]types.Fragment, error) {
	var fragments []types.Fragment

	for _, composePath := range d.paths {
		content, err := d.filesystem.ReadFile(composePath)
		if err != nil {
			continue
		}

		rootPath := d.dirs[composePath]
		configDetails := composeTypes.ConfigDetails{
			WorkingDir: rootPath,
			ConfigFiles: []composeTypes.ConfigFile{
				{Filename: composePath, Content: content},
			},
		}

		project, err := loader.LoadWithContext(ctx, configDetails, func(options *loader.Options) {
			options.SetProjectName(d.filesystem.Base(rootPath), true)
			options.SkipValidation = true
			options.SkipConsistencyCheck = true
		})
		if err != nil {
			continue // broken compose files don't contribute
		}

		for name, service := range project.Services {
			// Only the service built from this source tree describes our app
			if service.Build == nil {
				continue
			}

			spec := types.AppSpec{
				Name:    name,
				Root:    rootPath,
				Configs: []types.ConfigRef{{Type: "docker-compose", Path: composePath}},
			}
			if len(service.Ports) > 0 {
				spec.Port = int(service.Ports[0].Target)
			}
			if len(service.Command) > 0 {
				spec.StartCommand = service.Command
			}
			if service.Image != "" {
				spec.Image = service.Image
			}

			fragments = append(fragments, types.Fragment{Spec: spec, Confidence: d.Confidence()})
			break
		}
	}

	return fragments, nil
}
