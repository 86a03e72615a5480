package nativedeps

import (
	"sort"

	"github.com/railwayapp/slipway/internal/manifest"
)

// Mapping describes the OS packages a native-extension distribution needs,
// split by stage: compilers and headers at build time, shared libraries at
// run time. A distribution registered with empty sets is known to need no OS
// packages at all (pure wheels, or bundled libraries).
type Mapping struct {
	// BuildPackages are dev/header packages required to compile the extension
	BuildPackages []string

	// RuntimePackages are the shared-library counterparts that must survive
	// into the runtime stage
	RuntimePackages []string
}

// Toolchain is the base compiler set installed in every build stage that has
// at least one native-extension requirement
var Toolchain = []string{"build-essential"}

// Registry maps normalized distribution names to their OS package mappings
type Registry struct {
	mappings map[string]Mapping
}

// NewRegistry returns a registry preloaded with the well-known
// native-extension distributions (Debian package names)
func NewRegistry() *Registry {
	r := &Registry{mappings: make(map[string]Mapping)}

	r.Register("numpy", Mapping{
		BuildPackages:   []string{"gfortran", "libopenblas-dev"},
		RuntimePackages: []string{"libopenblas0", "libgfortran5"},
	})
	r.Register("scipy", Mapping{
		BuildPackages:   []string{"gfortran", "libopenblas-dev", "liblapack-dev"},
		RuntimePackages: []string{"libopenblas0", "liblapack3", "libgfortran5"},
	})
	r.Register("pandas", Mapping{
		BuildPackages: []string{}, // C extensions compile with the base toolchain alone
	})
	r.Register("matplotlib", Mapping{
		BuildPackages:   []string{"libfreetype6-dev", "libpng-dev", "pkg-config"},
		RuntimePackages: []string{"libfreetype6", "libpng16-16"},
	})
	r.Register("pillow", Mapping{
		BuildPackages:   []string{"libjpeg62-turbo-dev", "zlib1g-dev", "libfreetype6-dev"},
		RuntimePackages: []string{"libjpeg62-turbo", "zlib1g", "libfreetype6"},
	})
	r.Register("psycopg2", Mapping{
		BuildPackages:   []string{"libpq-dev"},
		RuntimePackages: []string{"libpq5"},
	})
	r.Register("psycopg2-binary", Mapping{
		// Bundles its own libpq; safer to carry the runtime lib anyway
		RuntimePackages: []string{"libpq5"},
	})
	r.Register("asyncpg", Mapping{
		BuildPackages: []string{},
	})
	r.Register("mysqlclient", Mapping{
		BuildPackages:   []string{"default-libmysqlclient-dev", "pkg-config"},
		RuntimePackages: []string{"libmariadb3"},
	})
	r.Register("cryptography", Mapping{
		BuildPackages:   []string{"libssl-dev", "libffi-dev"},
		RuntimePackages: []string{"libssl3", "libffi8"},
	})
	r.Register("lxml", Mapping{
		BuildPackages:   []string{"libxml2-dev", "libxslt1-dev"},
		RuntimePackages: []string{"libxml2", "libxslt1.1"},
	})
	r.Register("uvloop", Mapping{
		BuildPackages: []string{}, // vendors libuv
	})
	r.Register("httptools", Mapping{
		BuildPackages: []string{},
	})
	r.Register("pysqlite3", Mapping{
		BuildPackages:   []string{"libsqlite3-dev"},
		RuntimePackages: []string{"libsqlite3-0"},
	})
	// Pure-Python distributions common in this stack, registered so the
	// resolver can tell "known pure" apart from "unknown"
	r.Register("sqlalchemy", Mapping{})
	r.Register("fastapi", Mapping{})
	r.Register("starlette", Mapping{})
	r.Register("uvicorn", Mapping{})
	r.Register("gunicorn", Mapping{})
	r.Register("jinja2", Mapping{})
	r.Register("pydantic", Mapping{})
	r.Register("python-jose", Mapping{})
	r.Register("passlib", Mapping{})
	r.Register("pytz", Mapping{})
	r.Register("python-multipart", Mapping{})

	return r
}

// Register adds or replaces a mapping for the given distribution name
func (r *Registry) Register(name string, m Mapping) {
	r.mappings[manifest.NormalizeName(name)] = m
}

// Lookup returns the mapping for a distribution, if known
func (r *Registry) Lookup(name string) (Mapping, bool) {
	m, ok := r.mappings[manifest.NormalizeName(name)]
	return m, ok
}

// Resolution is the OS package closure derived from a manifest
type Resolution struct {
	// BuildPackages is the sorted union of toolchain + dev packages
	BuildPackages []string

	// RuntimePackages is the sorted union of runtime shared-library packages
	RuntimePackages []string

	// Native lists requirements that matched a mapping with OS packages
	Native []manifest.Requirement

	// Unknown lists requirements absent from the registry; they may be pure
	// wheels, so they surface as warnings rather than errors
	Unknown []manifest.Requirement
}

// Resolve computes the per-stage OS package sets for a manifest.
// The result is deterministic: identical manifests yield identical closures.
func (r *Registry) Resolve(m *manifest.Manifest) Resolution {
	buildSet := make(map[string]bool)
	runtimeSet := make(map[string]bool)
	var res Resolution

	needsToolchain := false
	for _, req := range m.Requirements() {
		mapping, ok := r.Lookup(req.Name)
		if !ok {
			res.Unknown = append(res.Unknown, req)
			continue
		}
		if mapping.BuildPackages != nil || len(mapping.RuntimePackages) > 0 {
			needsToolchain = needsToolchain || mapping.BuildPackages != nil
			res.Native = append(res.Native, req)
		}
		for _, pkg := range mapping.BuildPackages {
			buildSet[pkg] = true
		}
		for _, pkg := range mapping.RuntimePackages {
			runtimeSet[pkg] = true
		}
	}

	if needsToolchain {
		for _, pkg := range Toolchain {
			buildSet[pkg] = true
		}
	}

	res.BuildPackages = sortedKeys(buildSet)
	res.RuntimePackages = sortedKeys(runtimeSet)
	return res
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
