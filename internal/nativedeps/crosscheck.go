package nativedeps

import (
	"fmt"
	"strings"

	"github.com/railwayapp/slipway/internal/manifest"
)

// Violation records one native-extension requirement whose runtime
// shared-library counterparts are missing from the runtime package set.
// A missing counterpart here means a build that succeeds but an image that
// crashes on startup with a link error.
type Violation struct {
	Requirement manifest.Requirement
	Missing     []string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s requires runtime packages not declared in the runtime stage: %s",
		v.Requirement.Name, strings.Join(v.Missing, ", "))
}

// CrossCheck verifies that every native-extension requirement in the
// manifest has its runtime shared-library counterparts present in
// runtimePackages. This is the static form of the pipeline's principal
// correctness invariant.
func (r *Registry) CrossCheck(m *manifest.Manifest, runtimePackages []string) []Violation {
	have := make(map[string]bool, len(runtimePackages))
	for _, pkg := range runtimePackages {
		have[pkg] = true
	}

	var violations []Violation
	for _, req := range m.Requirements() {
		mapping, ok := r.Lookup(req.Name)
		if !ok {
			continue
		}

		var missing []string
		for _, pkg := range mapping.RuntimePackages {
			if !have[pkg] {
				missing = append(missing, pkg)
			}
		}
		if len(missing) > 0 {
			violations = append(violations, Violation{Requirement: req, Missing: missing})
		}
	}

	return violations
}

// ToolchainPackage reports whether an OS package name belongs in a build
// stage only: compilers, dev/header packages, and build helpers that must
// never survive into the runtime image.
func ToolchainPackage(pkg string) bool {
	switch pkg {
	case "build-essential", "gcc", "g++", "cpp", "make", "cmake", "gfortran",
		"clang", "pkg-config", "autoconf", "automake", "libtool", "rustc", "cargo":
		return true
	}
	return strings.HasSuffix(pkg, "-dev")
}
