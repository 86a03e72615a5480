package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/environment"
	"github.com/railwayapp/slipway/internal/layercache"
	"github.com/railwayapp/slipway/internal/manifest"
	"github.com/railwayapp/slipway/internal/nativedeps"
)

// Filesystem locations inside the image
const (
	// DepPrefix is where pip installs the dependency tree in the build
	// stage; promoting it onto /usr/local makes it importable without
	// PYTHONPATH tricks
	DepPrefix = "/opt/deps"

	// DepTarget is where the promoted dependency tree lands
	DepTarget = "/usr/local"

	// AppDir holds the staged application source in both stages
	AppDir = "/app"
)

// Config carries planner defaults and overrides from CLI/config file
type Config struct {
	PythonVersion string // interpreter version for the base image
	BaseImage     string // overrides the derived python:<ver>-slim image
	Port          int    // overrides the exposed port

	// ExtraBuildPackages and ExtraRuntimePackages extend the resolved OS
	// package sets for dependencies the registry doesn't know
	ExtraBuildPackages   []string
	ExtraRuntimePackages []string
}

// DefaultConfig matches the conventional uvicorn deployment
func DefaultConfig() Config {
	return Config{
		PythonVersion: "3.11",
		Port:          8000,
	}
}

// Planner turns a discovered app + parsed manifest into a two-stage Plan
type Planner struct {
	config   Config
	registry *nativedeps.Registry
}

func NewPlanner(config Config, registry *nativedeps.Registry) *Planner {
	if registry == nil {
		registry = nativedeps.NewRegistry()
	}
	return &Planner{config: config, registry: registry}
}

// Plan assembles the build and runtime stages. The manifest is read-only
// here: the planner derives from it and never alters it.
func (p *Planner) Plan(app *types.AppSpec, m *manifest.Manifest, env []environment.Var) (*Plan, error) {
	if app == nil {
		return nil, fmt.Errorf("no application spec")
	}
	if m == nil {
		return nil, fmt.Errorf("no dependency manifest for %s", app.Name)
	}

	resolution := p.registry.Resolve(m)
	buildPkgs := mergePackages(resolution.BuildPackages, p.config.ExtraBuildPackages)
	runtimePkgs := mergePackages(resolution.RuntimePackages, p.config.ExtraRuntimePackages)

	port := p.config.Port
	if app.Port != 0 {
		port = app.Port
	}

	start := p.startCommand(app, port)
	baseImage := p.baseImage(app)

	out := &Plan{
		App:          app,
		Port:         port,
		StartCommand: start,
	}

	out.Build = p.buildStage(baseImage, buildPkgs, m)
	out.Runtime = p.runtimeStage(baseImage, runtimePkgs, env, port, start)

	out.Build.CacheKey = stageKey(out.Build, m, app.SourceFingerprint)
	out.Runtime.CacheKey = stageKey(out.Runtime, m, app.SourceFingerprint)

	p.collectWarnings(out, m, resolution, env)
	return out, nil
}

func (p *Planner) buildStage(baseImage string, osPackages []string, m *manifest.Manifest) StageSpec {
	stage := StageSpec{
		Name:      BuildStageName,
		BaseImage: baseImage,
	}

	if len(osPackages) > 0 {
		stage.Steps = append(stage.Steps, Step{Kind: StepInstallOS, Packages: osPackages})
	}
	stage.Steps = append(stage.Steps,
		Step{Kind: StepWorkdir, Dest: AppDir},
		// Manifest first: dependency layers cache independently of source edits
		Step{Kind: StepCopyManifest, Source: manifestBase(m), Dest: "./"},
		Step{Kind: StepInstallDeps, Source: manifestBase(m), Dest: DepPrefix},
		Step{Kind: StepCopySource, Source: ".", Dest: "."},
	)
	return stage
}

func (p *Planner) runtimeStage(baseImage string, osPackages []string, env []environment.Var, port int, start []string) StageSpec {
	stage := StageSpec{
		Name:      RuntimeStageName,
		BaseImage: baseImage,
	}

	if len(osPackages) > 0 {
		stage.Steps = append(stage.Steps, Step{Kind: StepInstallOS, Packages: osPackages})
	}
	stage.Steps = append(stage.Steps,
		Step{Kind: StepPromote, From: BuildStageName, Source: DepPrefix, Dest: DepTarget},
		Step{Kind: StepWorkdir, Dest: AppDir},
		Step{Kind: StepPromote, From: BuildStageName, Source: AppDir, Dest: AppDir},
	)
	if baked := environment.Bakeable(env); len(baked) > 0 {
		stage.Steps = append(stage.Steps, Step{Kind: StepSetEnv, Env: baked})
	}
	stage.Steps = append(stage.Steps,
		Step{Kind: StepExpose, Port: port},
		Step{Kind: StepStart, Command: start},
	)
	return stage
}

func (p *Planner) baseImage(app *types.AppSpec) string {
	if p.config.BaseImage != "" {
		return p.config.BaseImage
	}
	version := p.config.PythonVersion
	if app.PythonVersion != "" {
		version = app.PythonVersion
	}
	return fmt.Sprintf("python:%s-slim", version)
}

func (p *Planner) startCommand(app *types.AppSpec, port int) []string {
	if len(app.StartCommand) > 0 {
		return app.StartCommand
	}

	appImport := app.AppImport
	if appImport == "" {
		appImport = "main:app"
	}
	return []string{"uvicorn", appImport, "--host", "0.0.0.0", "--port", strconv.Itoa(port)}
}

func (p *Planner) collectWarnings(out *Plan, m *manifest.Manifest, res nativedeps.Resolution, env []environment.Var) {
	for _, req := range res.Unknown {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("no native-library mapping for %q; if it compiles C extensions, add its packages via config", req.Name))
	}
	for _, req := range m.Unpinned() {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("requirement %q is not pinned; rebuilds may resolve a different version", req.Raw))
	}
	for _, v := range env {
		if v.Sensitive {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("env var %s looks sensitive; excluded from the image, inject it at deploy time", v.Name))
		}
	}
}

// stageKey hashes everything that determines the stage's filesystem output:
// base image, package set, manifest bytes, and the staged source tree. Both
// stages carry the source input; the runtime stage receives it by promotion.
func stageKey(stage StageSpec, m *manifest.Manifest, sourceFingerprint string) layercache.Key {
	inputs := map[string]string{
		"stage":    stage.Name,
		"base":     stage.BaseImage,
		"packages": strings.Join(stage.OSPackages(), " "),
		"manifest": m.SHA256(),
		"source":   sourceFingerprint,
	}
	for _, promo := range stage.Promotions() {
		inputs["promote:"+promo.Source] = promo.From + "->" + promo.Dest
	}
	return layercache.Compute(inputs)
}

func mergePackages(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(extra))
	for _, pkg := range base {
		seen[pkg] = true
		out = append(out, pkg)
	}
	for _, pkg := range extra {
		if !seen[pkg] {
			seen[pkg] = true
			out = append(out, pkg)
		}
	}
	return out
}

func manifestBase(m *manifest.Manifest) string {
	path := m.Path()
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
