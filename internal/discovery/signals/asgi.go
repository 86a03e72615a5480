package signals

import (
	"context"
	"regexp"
	"strings"

	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/filesystems"
)

// asgiConstructors maps framework constructor names to framework identifiers
var asgiConstructors = map[string]string{
	"FastAPI":   "fastapi",
	"Starlette": "starlette",
	"Quart":     "quart",
	"Litestar":  "litestar",
}

var appAssignRe = regexp.MustCompile(`(?m)^(\w+)\s*(?::\s*\w+\s*)?=\s*(\w+)\s*\(`)

// ASGISignal scans top-level Python modules for an ASGI application object
// and derives the import path the start command will name, e.g. "main:app"
type ASGISignal struct {
	filesystem filesystems.FileSystem
	pyFiles    []string          // candidate module files
	dirs       map[string]string // file -> containing directory
}

func NewASGISignal(filesystem filesystems.FileSystem) *ASGISignal {
	return &ASGISignal{filesystem: filesystem}
}

func (a *ASGISignal) Confidence() int {
	return 70
}

func (a *ASGISignal) Reset() {
	a.pyFiles = nil
	a.dirs = make(map[string]string)
}

func (a *ASGISignal) ObserveEntry(ctx context.Context, rootPath string, entry filesystems.DirEntry) error {
	if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".py") {
		return nil
	}
	path := a.filesystem.Join(rootPath, entry.Name())
	a.pyFiles = append(a.pyFiles, path)
	a.dirs[path] = rootPath
	return nil
}

func (a *ASGISignal) Fragments(ctx context.Context) ([]types.Fragment, error) {
	var fragments []types.Fragment

	for _, path := range a.orderedFiles() {
		content, err := a.filesystem.ReadFile(path)
		if err != nil {
			continue
		}

		attr, framework := findAppObject(string(content))
		if attr == "" {
			continue
		}

		module := strings.TrimSuffix(a.filesystem.Base(path), ".py")
		fragments = append(fragments, types.Fragment{
			Confidence: a.Confidence(),
			Spec: types.AppSpec{
				Root:      a.dirs[path],
				AppImport: module + ":" + attr,
				Framework: framework,
				Configs:   []types.ConfigRef{{Type: "asgi", Path: path}},
			},
		})

		// First hit wins; files are ordered so main.py and app.py come first
		break
	}

	return fragments, nil
}

// orderedFiles puts conventional entrypoint modules ahead of the rest
func (a *ASGISignal) orderedFiles() []string {
	rank := func(path string) int {
		switch a.filesystem.Base(path) {
		case "main.py":
			return 0
		case "app.py":
			return 1
		case "asgi.py":
			return 2
		default:
			return 3
		}
	}

	ordered := make([]string, len(a.pyFiles))
	copy(ordered, a.pyFiles)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && rank(ordered[j]) < rank(ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered
}

// findAppObject looks for `<name> = <Constructor>(` at module scope and
// returns the attribute name plus the detected framework
func findAppObject(source string) (attr, framework string) {
	for _, match := range appAssignRe.FindAllStringSubmatch(source, -1) {
		if fw, ok := asgiConstructors[match[2]]; ok {
			return match[1], fw
		}
	}
	return "", ""
}
