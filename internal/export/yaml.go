package export

import (
	"github.com/railwayapp/slipway/internal/plan"
	"gopkg.in/yaml.v3"
)

type YAMLExporter struct{}

func (e *YAMLExporter) Name() string {
	return "yaml"
}

func (e *YAMLExporter) Export(p *plan.Plan) ([]byte, error) {
	return yaml.Marshal(p)
}

func NewYAMLExporter() Exporter {
	return &YAMLExporter{}
}
