package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrManifestNotFound indicates no dependency manifest exists at the expected path
	ErrManifestNotFound = errors.New("dependency manifest not found")

	// ErrEmptyManifest indicates the manifest parsed to zero requirements
	ErrEmptyManifest = errors.New("dependency manifest is empty")
)

// Constraint is a single version constraint, e.g. ">=1.26" or "==2.0.1"
type Constraint struct {
	Op      string `json:"op"`
	Version string `json:"version"`
}

// Requirement is one parsed dependency specifier line
type Requirement struct {
	// Name is the normalized distribution name (lowercase, runs of -_. collapsed to -)
	Name string `json:"name"`

	// Raw is the specifier as written in the manifest
	Raw string `json:"raw"`

	Extras      []string     `json:"extras,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty"`

	// Marker is the environment marker after ';', kept verbatim
	Marker string `json:"marker,omitempty"`
}

// Pinned reports whether the requirement carries an exact == pin
func (r Requirement) Pinned() bool {
	for _, c := range r.Constraints {
		if c.Op == "==" {
			return true
		}
	}
	return false
}

// PinnedVersion returns the exact version if the requirement is pinned
func (r Requirement) PinnedVersion() (string, bool) {
	for _, c := range r.Constraints {
		if c.Op == "==" {
			return c.Version, true
		}
	}
	return "", false
}

// String reassembles the specifier from its parsed parts
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	for i, c := range r.Constraints {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(c.Op + c.Version)
	}
	if r.Marker != "" {
		b.WriteString("; " + r.Marker)
	}
	return b.String()
}

// Manifest is the ordered, immutable set of declared dependencies.
// It is read once at pipeline start and never mutated afterwards.
type Manifest struct {
	path string
	reqs []Requirement
	raw  []byte
}

// New builds a Manifest from already-parsed requirements.
// Duplicate names with conflicting exact pins are rejected.
func New(path string, raw []byte, reqs []Requirement) (*Manifest, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyManifest, path)
	}

	pins := make(map[string]string)
	for _, req := range reqs {
		version, ok := req.PinnedVersion()
		if !ok {
			continue
		}
		if prev, seen := pins[req.Name]; seen && prev != version {
			return nil, fmt.Errorf("unsatisfiable manifest: %s pinned to both %s and %s", req.Name, prev, version)
		}
		pins[req.Name] = version
	}

	return &Manifest{path: path, raw: raw, reqs: reqs}, nil
}

// Path returns where the manifest was read from
func (m *Manifest) Path() string {
	return m.path
}

// Requirements returns the declared requirements in manifest order
func (m *Manifest) Requirements() []Requirement {
	out := make([]Requirement, len(m.reqs))
	copy(out, m.reqs)
	return out
}

// Len returns the number of declared requirements
func (m *Manifest) Len() int {
	return len(m.reqs)
}

// Has reports whether the named distribution is declared
func (m *Manifest) Has(name string) bool {
	_, ok := m.Lookup(name)
	return ok
}

// Lookup finds a requirement by normalized distribution name
func (m *Manifest) Lookup(name string) (Requirement, bool) {
	normalized := NormalizeName(name)
	for _, req := range m.reqs {
		if req.Name == normalized {
			return req, true
		}
	}
	return Requirement{}, false
}

// Pinned reports whether every requirement carries an exact pin
func (m *Manifest) Pinned() bool {
	for _, req := range m.reqs {
		if !req.Pinned() {
			return false
		}
	}
	return true
}

// Unpinned returns the requirements that lack an exact pin
func (m *Manifest) Unpinned() []Requirement {
	var out []Requirement
	for _, req := range m.reqs {
		if !req.Pinned() {
			out = append(out, req)
		}
	}
	return out
}

// SHA256 returns the hex digest of the manifest bytes as read
func (m *Manifest) SHA256() string {
	sum := sha256.Sum256(m.raw)
	return hex.EncodeToString(sum[:])
}

// NormalizeName normalizes a distribution name per the packaging convention:
// lowercase, with runs of '-', '_' and '.' collapsed to a single '-'
func NormalizeName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	dash := false
	for _, r := range lower {
		if r == '-' || r == '_' || r == '.' {
			if !dash {
				b.WriteRune('-')
				dash = true
			}
			continue
		}
		dash = false
		b.WriteRune(r)
	}
	return b.String()
}
