package environment

import (
	"fmt"
	"sort"

	"github.com/joho/godotenv"
	"github.com/railwayapp/slipway/internal/filesystems"
)

// Var is an environment variable destined for the runtime image
type Var struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Sensitive bool   `json:"sensitive"`
	Source    string `json:"source"`
}

// Extract parses the given dotenv files and classifies each variable.
// Sensitive variables are returned too; the planner excludes them from the
// image and reports them so the operator injects them at deploy time.
func Extract(filesystem filesystems.FileSystem, envFiles []string) ([]Var, error) {
	byName := make(map[string]Var)

	for _, path := range envFiles {
		content, err := filesystem.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		env, err := godotenv.Unmarshal(string(content))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		for name, value := range env {
			byName[name] = Var{
				Name:      name,
				Value:     value,
				Sensitive: Sensitive(name, value),
				Source:    path,
			}
		}
	}

	vars := make([]Var, 0, len(byName))
	for _, v := range byName {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars, nil
}

// Bakeable filters to variables safe to write into the image
func Bakeable(vars []Var) []Var {
	var out []Var
	for _, v := range vars {
		if !v.Sensitive {
			out = append(out, v)
		}
	}
	return out
}
