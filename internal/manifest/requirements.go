package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/railwayapp/slipway/internal/filesystems"
)

var constraintOps = []string{"===", "==", "~=", "!=", ">=", "<=", ">", "<"}

// ParseRequirementsFile reads and parses a pip requirements file from the
// given filesystem
func ParseRequirementsFile(filesystem filesystems.FileSystem, path string) (*Manifest, error) {
	content, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
	}
	return ParseRequirements(path, content)
}

// ParseRequirements parses requirements file content: one requirement
// specifier per line, '#' comments, blank lines, and pip option lines
// (-r/-c/--flag) skipped
func ParseRequirements(path string, content []byte) (*Manifest, error) {
	var reqs []Requirement

	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Nested requirement files and pip options are out of scope for the manifest
		if strings.HasPrefix(line, "-") {
			continue
		}
		// Strip trailing comments
		if idx := strings.Index(line, " #"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		req, err := ParseRequirement(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return New(path, content, reqs)
}

// ParseRequirement parses a single requirement specifier, e.g.
// "uvicorn[standard]>=0.23,<1.0 ; python_version >= '3.11'"
func ParseRequirement(spec string) (Requirement, error) {
	req := Requirement{Raw: spec}

	rest := spec
	if idx := strings.Index(rest, ";"); idx >= 0 {
		req.Marker = strings.TrimSpace(rest[idx+1:])
		rest = strings.TrimSpace(rest[:idx])
	}

	// URL requirements (name @ url) keep the name, drop the location
	if idx := strings.Index(rest, "@"); idx >= 0 {
		rest = strings.TrimSpace(rest[:idx])
	}

	// Split off the constraint list at the first operator
	nameEnd := len(rest)
	for i := range rest {
		if strings.ContainsRune("=<>!~", rune(rest[i])) {
			nameEnd = i
			break
		}
	}

	namePart := strings.TrimSpace(rest[:nameEnd])
	constraintPart := strings.TrimSpace(rest[nameEnd:])

	if idx := strings.Index(namePart, "["); idx >= 0 {
		close := strings.Index(namePart, "]")
		if close < idx {
			return Requirement{}, fmt.Errorf("malformed extras in %q", spec)
		}
		for _, extra := range strings.Split(namePart[idx+1:close], ",") {
			extra = strings.TrimSpace(extra)
			if extra != "" {
				req.Extras = append(req.Extras, extra)
			}
		}
		namePart = namePart[:idx]
	}

	req.Name = NormalizeName(namePart)
	if req.Name == "" {
		return Requirement{}, fmt.Errorf("missing distribution name in %q", spec)
	}

	if constraintPart != "" {
		for _, clause := range strings.Split(constraintPart, ",") {
			clause = strings.TrimSpace(clause)
			if clause == "" {
				continue
			}
			constraint, err := parseConstraint(clause)
			if err != nil {
				return Requirement{}, fmt.Errorf("%w in %q", err, spec)
			}
			req.Constraints = append(req.Constraints, constraint)
		}
	}

	return req, nil
}

func parseConstraint(clause string) (Constraint, error) {
	for _, op := range constraintOps {
		if strings.HasPrefix(clause, op) {
			version := strings.TrimSpace(strings.TrimPrefix(clause, op))
			if version == "" {
				return Constraint{}, fmt.Errorf("constraint %q missing version", clause)
			}
			if op == "===" {
				op = "=="
			}
			return Constraint{Op: op, Version: version}, nil
		}
	}
	return Constraint{}, fmt.Errorf("unrecognized constraint %q", clause)
}
