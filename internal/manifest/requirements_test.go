package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want Requirement
	}{
		{
			name: "pinned",
			spec: "numpy==1.26.4",
			want: Requirement{
				Name:        "numpy",
				Constraints: []Constraint{{Op: "==", Version: "1.26.4"}},
			},
		},
		{
			name: "extras and range",
			spec: "uvicorn[standard]>=0.23,<1.0",
			want: Requirement{
				Name:   "uvicorn",
				Extras: []string{"standard"},
				Constraints: []Constraint{
					{Op: ">=", Version: "0.23"},
					{Op: "<", Version: "1.0"},
				},
			},
		},
		{
			name: "environment marker",
			spec: "uvloop>=0.17 ; sys_platform != 'win32'",
			want: Requirement{
				Name:        "uvloop",
				Constraints: []Constraint{{Op: ">=", Version: "0.17"}},
				Marker:      "sys_platform != 'win32'",
			},
		},
		{
			name: "name normalization",
			spec: "Psycopg2_Binary==2.9.9",
			want: Requirement{
				Name:        "psycopg2-binary",
				Constraints: []Constraint{{Op: "==", Version: "2.9.9"}},
			},
		},
		{
			name: "bare name",
			spec: "fastapi",
			want: Requirement{Name: "fastapi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequirement(tt.spec)
			require.NoError(t, err)

			assert.Equal(t, tt.want.Name, got.Name)
			assert.Equal(t, tt.want.Extras, got.Extras)
			assert.Equal(t, tt.want.Constraints, got.Constraints)
			assert.Equal(t, tt.want.Marker, got.Marker)
		})
	}
}

func TestParseRequirementErrors(t *testing.T) {
	for _, spec := range []string{"", "==1.0", "numpy=="} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseRequirement(spec)
			assert.Error(t, err)
		})
	}
}

func TestParseRequirements(t *testing.T) {
	content := []byte(`# service dependencies
fastapi==0.104.1
uvicorn[standard]==0.24.0

sqlalchemy==2.0.23  # ORM
-r requirements-dev.txt
--no-binary :all:
numpy==1.26.4
`)

	m, err := ParseRequirements("requirements.txt", content)
	require.NoError(t, err)

	require.Equal(t, 4, m.Len())
	assert.True(t, m.Pinned())

	names := make([]string, 0, m.Len())
	for _, req := range m.Requirements() {
		names = append(names, req.Name)
	}
	assert.Equal(t, []string{"fastapi", "uvicorn", "sqlalchemy", "numpy"}, names)

	req, ok := m.Lookup("SQLAlchemy")
	require.True(t, ok)
	version, pinned := req.PinnedVersion()
	assert.True(t, pinned)
	assert.Equal(t, "2.0.23", version)
}

func TestParseRequirementsEmpty(t *testing.T) {
	_, err := ParseRequirements("requirements.txt", []byte("# nothing here\n"))
	assert.ErrorIs(t, err, ErrEmptyManifest)
}

func TestManifestConflictingPins(t *testing.T) {
	_, err := ParseRequirements("requirements.txt", []byte("numpy==1.26.4\nnumpy==1.25.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsatisfiable")
}

func TestManifestImmutable(t *testing.T) {
	m, err := ParseRequirements("requirements.txt", []byte("numpy==1.26.4\n"))
	require.NoError(t, err)

	reqs := m.Requirements()
	reqs[0].Name = "mutated"

	again, ok := m.Lookup("numpy")
	require.True(t, ok)
	assert.Equal(t, "numpy", again.Name)
}

func TestManifestSHA256Deterministic(t *testing.T) {
	content := []byte("numpy==1.26.4\nmatplotlib==3.8.2\n")

	a, err := ParseRequirements("requirements.txt", content)
	require.NoError(t, err)
	b, err := ParseRequirements("requirements.txt", content)
	require.NoError(t, err)

	assert.Equal(t, a.SHA256(), b.SHA256())

	c, err := ParseRequirements("requirements.txt", []byte("numpy==1.26.4\n"))
	require.NoError(t, err)
	assert.NotEqual(t, a.SHA256(), c.SHA256())
}

func TestUnpinned(t *testing.T) {
	m, err := ParseRequirements("requirements.txt", []byte("fastapi>=0.100\nnumpy==1.26.4\n"))
	require.NoError(t, err)

	assert.False(t, m.Pinned())
	unpinned := m.Unpinned()
	require.Len(t, unpinned, 1)
	assert.Equal(t, "fastapi", unpinned[0].Name)
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Django":          "django",
		"python_jose":     "python-jose",
		"zope.interface":  "zope-interface",
		"A__Weird..Name":  "a-weird-name",
		" spaced ":        "spaced",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeName(in))
	}
}
