package verify

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
	"github.com/railwayapp/slipway/internal/manifest"
	"github.com/railwayapp/slipway/internal/nativedeps"
)

// stage is the verifier's view of one FROM block
type stage struct {
	name        string
	baseImage   string
	packages    []string // apt-get installed packages
	promotions  []string // COPY --from sources
	exposed     bool
	startCmd    []string
	hasStartCmd bool
}

// Verifier statically checks a Dockerfile against the build/runtime
// separation invariants. The manifest is optional; without it only the
// structural checks run.
type Verifier struct {
	registry *nativedeps.Registry
}

func NewVerifier(registry *nativedeps.Registry) *Verifier {
	if registry == nil {
		registry = nativedeps.NewRegistry()
	}
	return &Verifier{registry: registry}
}

// Verify parses the descriptor and returns all findings, structural and
// manifest-derived. A parse failure is itself fatal.
func (v *Verifier) Verify(dockerfile []byte, m *manifest.Manifest) ([]Finding, error) {
	ast, err := parser.Parse(bytes.NewReader(dockerfile))
	if err != nil {
		return nil, fmt.Errorf("parsing descriptor: %w", err)
	}

	stages := collectStages(ast)
	var findings []Finding

	if len(stages) < 2 {
		findings = append(findings, errorf(CodeSingleStage,
			"descriptor has %d stage(s); the pipeline requires a discarded build stage and a minimal runtime stage", len(stages)))
		return findings, nil
	}

	final := stages[len(stages)-1]
	findings = append(findings, v.checkRuntimeStage(final)...)

	if m != nil {
		findings = append(findings, v.checkCrossStage(final, m)...)
		for _, req := range m.Unpinned() {
			findings = append(findings, warnf(CodeUnpinnedRequirement,
				"requirement %q has no exact pin; the installed closure is not reproducible", req.Raw))
		}
	}

	return findings, nil
}

// checkRuntimeStage enforces the structural invariants of the final stage
func (v *Verifier) checkRuntimeStage(final stage) []Finding {
	var findings []Finding

	for _, pkg := range final.packages {
		if nativedeps.ToolchainPackage(pkg) {
			findings = append(findings, errorf(CodeToolchainInRuntime,
				"runtime stage installs build toolchain package %q; compilers and headers belong in the build stage only", pkg))
		}
	}

	if len(final.promotions) == 0 {
		findings = append(findings, errorf(CodeNoPromotion,
			"runtime stage receives no promoted artifacts; it would run without the installed dependency tree"))
	}

	if !final.exposed {
		findings = append(findings, errorf(CodeNoExpose,
			"runtime stage declares no exposed port"))
	}

	switch {
	case !final.hasStartCmd:
		findings = append(findings, errorf(CodeNoStartCommand,
			"runtime stage declares no start command"))
	case !asgiStart(final.startCmd):
		findings = append(findings, warnf(CodeNotASGIStart,
			"start command %v does not look like an ASGI server invocation", final.startCmd))
	}

	return findings
}

// checkCrossStage runs the build/runtime counterpart check: every
// native-extension requirement's runtime shared libraries must be installed
// in the final stage. A miss here builds fine and crashes at container start.
func (v *Verifier) checkCrossStage(final stage, m *manifest.Manifest) []Finding {
	var findings []Finding
	for _, violation := range v.registry.CrossCheck(m, final.packages) {
		findings = append(findings, errorf(CodeMissingRuntimeLibrary,
			"%s; the container would exit with a link error at startup", violation))
	}
	return findings
}

// collectStages walks the AST and summarizes each FROM block
func collectStages(ast *parser.Result) []stage {
	var stages []stage
	var current *stage

	for _, node := range ast.AST.Children {
		instruction := strings.ToUpper(node.Value)

		if instruction == "FROM" {
			stages = append(stages, stage{})
			current = &stages[len(stages)-1]
			args := nodeArgs(node)
			if len(args) > 0 {
				current.baseImage = args[0]
			}
			for i := 0; i+1 < len(args); i++ {
				if strings.EqualFold(args[i], "AS") {
					current.name = args[i+1]
				}
			}
			continue
		}
		if current == nil {
			continue
		}

		switch instruction {
		case "RUN":
			current.packages = append(current.packages, aptPackages(nodeArgs(node))...)
		case "COPY":
			for _, flag := range node.Flags {
				if strings.HasPrefix(flag, "--from=") {
					current.promotions = append(current.promotions, strings.TrimPrefix(flag, "--from="))
				}
			}
		case "EXPOSE":
			current.exposed = true
		case "CMD", "ENTRYPOINT":
			current.startCmd = nodeArgs(node)
			current.hasStartCmd = true
		}
	}

	return stages
}

func nodeArgs(node *parser.Node) []string {
	var args []string
	for n := node.Next; n != nil; n = n.Next {
		args = append(args, n.Value)
	}
	return args
}

// aptPackages extracts package names from `apt-get install` invocations
// inside a RUN command, including &&-chained segments
func aptPackages(args []string) []string {
	fields := strings.Fields(strings.Join(args, " "))

	var pkgs []string
	for i := 0; i < len(fields); i++ {
		if fields[i] != "apt-get" && fields[i] != "apt" {
			continue
		}

		// Scan this apt-get segment for "install" and collect its operands
		installing := false
		for j := i + 1; j < len(fields); j++ {
			token := fields[j]
			if token == "&&" || token == ";" || token == "||" {
				i = j
				break
			}
			if token == "install" {
				installing = true
				continue
			}
			if !installing || strings.HasPrefix(token, "-") || token == "\\" {
				continue
			}
			pkgs = append(pkgs, token)
		}
	}
	return pkgs
}

// asgiStart recognizes the conventional ASGI server invocations
func asgiStart(command []string) bool {
	if len(command) == 0 {
		return false
	}
	switch command[0] {
	case "uvicorn", "hypercorn", "daphne", "granian":
		return true
	case "gunicorn":
		return strings.Contains(strings.Join(command, " "), "uvicorn.workers")
	case "python", "python3":
		return len(command) > 2 && command[1] == "-m" && asgiStart(command[2:])
	}
	return false
}
