package slipway

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/railwayapp/slipway/internal/filesystems"
	"github.com/railwayapp/slipway/internal/manifest"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockCommandWritesIntoSourceRoot(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"requirements.txt": "fastapi==0.104.1\nnumpy>=1.26\n",
		"main.py":          "app = FastAPI()\n",
	})

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	require.NoError(t, runLock(cmd, dir))

	lockfile, err := manifest.ReadLockfile(filepath.Join(dir, manifest.LockFileName))
	require.NoError(t, err)
	require.Len(t, lockfile.Requirements, 2)
	assert.True(t, lockfile.Requirements[0].Pinned)
	assert.False(t, lockfile.Requirements[1].Pinned)
}

func TestRootOfResolvesTargets(t *testing.T) {
	dir := writeTree(t, map[string]string{"requirements.txt": "fastapi==0.104.1\n"})
	filesystem := filesystems.NewLocalFS()

	assert.Equal(t, dir, rootOf(filesystem, dir))
	assert.Equal(t, dir, rootOf(filesystem, filepath.Join(dir, "requirements.txt")))
}
