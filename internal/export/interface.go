package export

import "github.com/railwayapp/slipway/internal/plan"

// Exporter serializes a build plan for machine consumption
type Exporter interface {
	// Export converts a plan to the target format
	Export(p *plan.Plan) ([]byte, error)

	// Name returns the exporter name (e.g. "json", "yaml")
	Name() string
}

// ByName returns the exporter for a format name, or nil if unknown
func ByName(name string) Exporter {
	switch name {
	case "json":
		return NewJSONExporter()
	case "yaml", "yml":
		return NewYAMLExporter()
	}
	return nil
}
