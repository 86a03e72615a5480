package render

import (
	"fmt"

	"github.com/railwayapp/slipway/internal/plan"
	"gopkg.in/yaml.v3"
)

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Build       string   `yaml:"build,omitempty"`
	Image       string   `yaml:"image,omitempty"`
	Ports       []string `yaml:"ports,omitempty"`
	Environment []string `yaml:"environment,omitempty"`
	Restart     string   `yaml:"restart,omitempty"`
}

// Compose renders a minimal compose file for running the produced image
// locally. Sensitive variables are referenced, not inlined, so the operator
// supplies them from the host environment.
func Compose(p *plan.Plan) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nothing to render")
	}

	service := composeService{
		Build:   ".",
		Image:   p.App.Image,
		Ports:   []string{fmt.Sprintf("%d:%d", p.Port, p.Port)},
		Restart: "unless-stopped",
	}

	for _, step := range p.Runtime.Steps {
		if step.Kind != plan.StepSetEnv {
			continue
		}
		for _, v := range step.Env {
			service.Environment = append(service.Environment, fmt.Sprintf("%s=%s", v.Name, v.Value))
		}
	}

	name := p.App.Name
	if name == "" {
		name = "app"
	}

	out := composeFile{Services: map[string]composeService{name: service}}
	return yaml.Marshal(out)
}
