package render

import (
	"fmt"
	"strings"

	"github.com/railwayapp/slipway/internal/plan"
)

// Dockerfile renders a Plan into multi-stage Dockerfile text. Rendering is
// deterministic: equal plans produce byte-identical output.
func Dockerfile(p *plan.Plan) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nothing to render")
	}

	var b strings.Builder
	if err := renderStage(&b, p.Build); err != nil {
		return nil, err
	}
	b.WriteString("\n")
	if err := renderStage(&b, p.Runtime); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func renderStage(b *strings.Builder, stage plan.StageSpec) error {
	fmt.Fprintf(b, "FROM %s AS %s\n", stage.BaseImage, stage.Name)

	for _, step := range stage.Steps {
		switch step.Kind {
		case plan.StepInstallOS:
			b.WriteString("\nRUN apt-get update && apt-get install -y --no-install-recommends \\\n")
			for _, pkg := range step.Packages {
				fmt.Fprintf(b, "    %s \\\n", pkg)
			}
			b.WriteString("    && rm -rf /var/lib/apt/lists/*\n")

		case plan.StepWorkdir:
			fmt.Fprintf(b, "\nWORKDIR %s\n", step.Dest)

		case plan.StepCopyManifest:
			fmt.Fprintf(b, "\nCOPY %s %s\n", step.Source, step.Dest)

		case plan.StepInstallDeps:
			fmt.Fprintf(b, "RUN pip install --no-cache-dir --prefix=%s -r %s\n", step.Dest, step.Source)

		case plan.StepCopySource:
			fmt.Fprintf(b, "\nCOPY %s %s\n", step.Source, step.Dest)

		case plan.StepPromote:
			fmt.Fprintf(b, "COPY --from=%s %s %s\n", step.From, step.Source, step.Dest)

		case plan.StepSetEnv:
			b.WriteString("\n")
			for _, v := range step.Env {
				fmt.Fprintf(b, "ENV %s=%s\n", v.Name, quoteEnvValue(v.Value))
			}

		case plan.StepExpose:
			fmt.Fprintf(b, "\nEXPOSE %d\n", step.Port)

		case plan.StepStart:
			fmt.Fprintf(b, "CMD [%s]\n", quoteExecForm(step.Command))

		default:
			return fmt.Errorf("unknown step kind %q in stage %s", step.Kind, stage.Name)
		}
	}
	return nil
}

func quoteExecForm(command []string) string {
	quoted := make([]string, len(command))
	for i, arg := range command {
		quoted[i] = fmt.Sprintf("%q", arg)
	}
	return strings.Join(quoted, ", ")
}

func quoteEnvValue(value string) string {
	if strings.ContainsAny(value, " \t\"'$") {
		return fmt.Sprintf("%q", value)
	}
	return value
}
