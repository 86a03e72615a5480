package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LockFileName is the canonical lockfile name next to the manifest
const LockFileName = "slipway.lock"

// LockfileVersion is the current lockfile schema version
const LockfileVersion = 1

// LockedRequirement records one requirement as resolved at lock time
type LockedRequirement struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version,omitempty"`
	Specifier string `yaml:"specifier"`
	Pinned    bool   `yaml:"pinned"`
}

// Lockfile is the reproducible snapshot of a dependency manifest.
// Pins are authoritative; unpinned ranges are recorded as declared and
// surfaced as warnings downstream, never silently re-resolved.
type Lockfile struct {
	Version      int                 `yaml:"version"`
	ManifestPath string              `yaml:"manifest"`
	ManifestSHA  string              `yaml:"manifestSha256"`
	Requirements []LockedRequirement `yaml:"requirements"`
}

// Lock snapshots the manifest into a Lockfile
func Lock(m *Manifest) *Lockfile {
	lf := &Lockfile{
		Version:      LockfileVersion,
		ManifestPath: m.Path(),
		ManifestSHA:  m.SHA256(),
	}
	for _, req := range m.Requirements() {
		locked := LockedRequirement{
			Name:      req.Name,
			Specifier: req.String(),
			Pinned:    req.Pinned(),
		}
		if version, ok := req.PinnedVersion(); ok {
			locked.Version = version
		}
		lf.Requirements = append(lf.Requirements, locked)
	}
	return lf
}

// Matches reports whether the lockfile was produced from the given manifest
func (lf *Lockfile) Matches(m *Manifest) bool {
	return lf.ManifestSHA == m.SHA256()
}

// Write serializes the lockfile to the given path
func (lf *Lockfile) Write(path string) error {
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lockfile: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing lockfile %s: %w", path, err)
	}
	return nil
}

// ReadLockfile parses a lockfile from disk
func ReadLockfile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile %s: %w", path, err)
	}

	var lf Lockfile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing lockfile %s: %w", path, err)
	}
	if lf.Version != LockfileVersion {
		return nil, fmt.Errorf("unsupported lockfile version %d in %s", lf.Version, path)
	}
	return &lf, nil
}
