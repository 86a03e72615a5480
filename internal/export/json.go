package export

import (
	"encoding/json"

	"github.com/railwayapp/slipway/internal/plan"
)

type JSONExporter struct{}

func (e *JSONExporter) Name() string {
	return "json"
}

func (e *JSONExporter) Export(p *plan.Plan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func NewJSONExporter() Exporter {
	return &JSONExporter{}
}
