package signals

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/filesystems"
)

// ProcfileSignal reads a Procfile's web process line. An explicit process
// declaration outranks the planner's derived start command.
type ProcfileSignal struct {
	filesystem filesystems.FileSystem
	paths      []string
	dirs       map[string]string
}

func NewProcfileSignal(filesystem filesystems.FileSystem) *ProcfileSignal {
	return &ProcfileSignal{filesystem: filesystem}
}

func (p *ProcfileSignal) Confidence() int {
	return 90
}

func (p *ProcfileSignal) Reset() {
	p.paths = nil
	p.dirs = make(map[string]string)
}

func (p *ProcfileSignal) ObserveEntry(ctx context.Context, rootPath string, entry filesystems.DirEntry) error {
	if !entry.IsDir() && strings.EqualFold(entry.Name(), "Procfile") {
		path := p.filesystem.Join(rootPath, entry.Name())
		p.paths = append(p.paths, path)
		p.dirs[path] = rootPath
	}
	return nil
}

func (p *ProcfileSignal) Fragments(ctx context.Context) ([]types.Fragment, error) {
	var fragments []types.Fragment

	for _, path := range p.paths {
		content, err := p.filesystem.ReadFile(path)
		if err != nil {
			continue
		}

		command := webProcess(string(content))
		if len(command) == 0 {
			continue
		}

		spec := types.AppSpec{
			Root:         p.dirs[path],
			StartCommand: command,
			Configs:      []types.ConfigRef{{Type: "procfile", Path: path}},
		}
		if port := portFromCommand(command); port != 0 {
			spec.Port = port
		}
		if imp := importPathFromCommand(command); imp != "" {
			spec.AppImport = imp
		}

		fragments = append(fragments, types.Fragment{Spec: spec, Confidence: p.Confidence()})
	}

	return fragments, nil
}

// webProcess extracts the "web:" process command from Procfile content
func webProcess(content string) []string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, command, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(name) != "web" {
			continue
		}
		return strings.Fields(command)
	}
	return nil
}

// portFromCommand picks up an explicit --port argument
func portFromCommand(command []string) int {
	for i, arg := range command {
		if arg == "--port" && i+1 < len(command) {
			if port, err := strconv.Atoi(command[i+1]); err == nil {
				return port
			}
		}
		if value, ok := strings.CutPrefix(arg, "--port="); ok {
			if port, err := strconv.Atoi(value); err == nil {
				return port
			}
		}
	}
	return 0
}

// importPathFromCommand finds a module:attr argument in a server invocation
func importPathFromCommand(command []string) string {
	for _, arg := range command[1:] {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if strings.Count(arg, ":") == 1 && !strings.Contains(arg, "/") {
			return arg
		}
	}
	return ""
}
