package plan

import (
	"github.com/railwayapp/slipway/internal/discovery/types"
	"github.com/railwayapp/slipway/internal/environment"
	"github.com/railwayapp/slipway/internal/layercache"
)

// Stage names referenced by promotions
const (
	BuildStageName   = "builder"
	RuntimeStageName = "runtime"
)

// StepKind identifies what a stage step does
type StepKind string

const (
	StepInstallOS    StepKind = "install-os"    // install OS packages
	StepWorkdir      StepKind = "workdir"       // set working directory
	StepCopyManifest StepKind = "copy-manifest" // stage the dependency manifest
	StepInstallDeps  StepKind = "install-deps"  // resolve the manifest into the dependency tree
	StepCopySource   StepKind = "copy-source"   // stage the application source tree
	StepPromote      StepKind = "promote"       // copy an artifact from another stage
	StepSetEnv       StepKind = "set-env"       // bake environment variables
	StepExpose       StepKind = "expose"        // declare the network port
	StepStart        StepKind = "start"         // declare the start command
)

// Step is one ordered operation inside a stage
type Step struct {
	Kind StepKind `json:"kind"`

	Packages []string `json:"packages,omitempty"`
	Source   string   `json:"source,omitempty"`
	Dest     string   `json:"dest,omitempty"`

	// From names the stage an artifact is promoted out of
	From string `json:"from,omitempty"`

	Command []string          `json:"command,omitempty"`
	Env     []environment.Var `json:"env,omitempty"`
	Port    int               `json:"port,omitempty"`
}

// StageSpec is one stage of the pipeline: a base image plus ordered steps
type StageSpec struct {
	Name      string         `json:"name"`
	BaseImage string         `json:"baseImage"`
	Steps     []Step         `json:"steps"`
	CacheKey  layercache.Key `json:"cacheKey,omitempty"`
}

// OSPackages returns the union of packages installed by the stage
func (s StageSpec) OSPackages() []string {
	var pkgs []string
	for _, step := range s.Steps {
		if step.Kind == StepInstallOS {
			pkgs = append(pkgs, step.Packages...)
		}
	}
	return pkgs
}

// Promotions returns the artifact copies received from other stages
func (s StageSpec) Promotions() []Step {
	var out []Step
	for _, step := range s.Steps {
		if step.Kind == StepPromote {
			out = append(out, step)
		}
	}
	return out
}

// Plan is the complete two-stage build descriptor: an ephemeral build stage
// whose artifacts are promoted into a minimal runtime stage
type Plan struct {
	App *types.AppSpec `json:"app"`

	Build   StageSpec `json:"build"`
	Runtime StageSpec `json:"runtime"`

	Port         int      `json:"port"`
	StartCommand []string `json:"startCommand"`

	// Warnings are findings that don't invalidate the plan: unknown
	// distributions, unpinned requirements, excluded sensitive variables
	Warnings []string `json:"warnings,omitempty"`
}
