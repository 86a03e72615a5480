package environment

import (
	"testing"

	"github.com/railwayapp/slipway/internal/filesystems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	fs := filesystems.NewMemoryFS()
	fs.AddFile(".env", []byte("LOG_LEVEL=info\nDATABASE_URL=postgres://user:pw@db/warehouse\nWORKERS=4\n"))

	vars, err := Extract(fs, []string{".env"})
	require.NoError(t, err)
	require.Len(t, vars, 3)

	// Sorted by name
	assert.Equal(t, "DATABASE_URL", vars[0].Name)
	assert.Equal(t, "LOG_LEVEL", vars[1].Name)
	assert.Equal(t, "WORKERS", vars[2].Name)

	assert.True(t, vars[0].Sensitive)
	assert.False(t, vars[1].Sensitive)
	assert.Equal(t, ".env", vars[1].Source)
	assert.Equal(t, "info", vars[1].Value)
}

func TestExtractLaterFileWins(t *testing.T) {
	fs := filesystems.NewMemoryFS()
	fs.AddFile(".env", []byte("LOG_LEVEL=info\n"))
	fs.AddFile(".env.production", []byte("LOG_LEVEL=warning\n"))

	vars, err := Extract(fs, []string{".env", ".env.production"})
	require.NoError(t, err)
	require.Len(t, vars, 1)

	assert.Equal(t, "warning", vars[0].Value)
	assert.Equal(t, ".env.production", vars[0].Source)
}

func TestExtractMissingFile(t *testing.T) {
	fs := filesystems.NewMemoryFS()

	_, err := Extract(fs, []string{".env"})
	assert.Error(t, err)
}

func TestBakeable(t *testing.T) {
	vars := []Var{
		{Name: "LOG_LEVEL", Value: "info"},
		{Name: "SECRET_KEY", Value: "shh", Sensitive: true},
		{Name: "WORKERS", Value: "4"},
	}

	baked := Bakeable(vars)
	require.Len(t, baked, 2)
	assert.Equal(t, "LOG_LEVEL", baked[0].Name)
	assert.Equal(t, "WORKERS", baked[1].Name)
}

func TestSensitiveByName(t *testing.T) {
	sensitive := []string{
		"SECRET_KEY", "API_KEY", "JWT_SECRET", "DB_PASSWORD",
		"AWS_ACCESS_KEY_ID", "OAUTH_CLIENT_SECRET", "DATABASE_URL", "REDIS_URL",
	}
	for _, name := range sensitive {
		assert.True(t, Sensitive(name, "x"), name)
	}

	plain := []string{"LOG_LEVEL", "WORKERS", "APP_NAME", "DEBUG", "TIMEZONE"}
	for _, name := range plain {
		assert.False(t, Sensitive(name, "x"), name)
	}
}

func TestSensitiveByValue(t *testing.T) {
	// Hex digest under an innocent name
	assert.True(t, Sensitive("CACHE_BUST", "9f86d081884c7d659a2feaa0c55ad015"))
	// Random base64-ish value
	assert.True(t, Sensitive("SESSION_ID", "dGhpc0lzQVJhbmRvbTEyM0tleQ=="))

	// Prose and short values stay bakeable
	assert.False(t, Sensitive("GREETING", "hello world, nice to meet you"))
	assert.False(t, Sensitive("PORT", "8000"))
	assert.False(t, Sensitive("APP_TITLE", "warehouse"))
}
