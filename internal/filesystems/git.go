package filesystems

import (
	"fmt"
	"iter"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// GitFS implements FileSystem for git repositories, cloned shallowly into a
// temporary directory on first use
type GitFS struct {
	repoURL   string
	ref       string
	localPath string
	localFS   *LocalFS
	mu        sync.RWMutex // protects clone operations
	cloned    bool
}

// NewGitFS creates a new GitFS instance and clones the repository
func NewGitFS(repoURL, ref string) (*GitFS, error) {
	if ref == "" {
		ref = "main"
	}

	tempDir, err := os.MkdirTemp("", "slipway-git-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	gfs := &GitFS{
		repoURL:   repoURL,
		ref:       ref,
		localPath: tempDir,
		localFS:   NewLocalFS(),
	}

	if err := gfs.clone(); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	return gfs, nil
}

func (gfs *GitFS) clone() error {
	gfs.mu.Lock()
	defer gfs.mu.Unlock()

	if gfs.cloned {
		return nil
	}

	cmd := exec.Command("git", "clone", "--depth", "1", "--branch", gfs.ref, gfs.repoURL, gfs.localPath)
	if err := cmd.Run(); err != nil {
		// Branch clone failed; fall back to the default branch and try a checkout
		cmd = exec.Command("git", "clone", "--depth", "1", gfs.repoURL, gfs.localPath)
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("failed to clone repository %s: %w", gfs.repoURL, err)
		}

		cmd = exec.Command("git", "checkout", gfs.ref)
		cmd.Dir = gfs.localPath
		_ = cmd.Run() // ref may not exist; keep the default branch
	}

	gfs.cloned = true
	return nil
}

// Cleanup removes the temporary clone
func (gfs *GitFS) Cleanup() error {
	if gfs.localPath != "" {
		return os.RemoveAll(gfs.localPath)
	}
	return nil
}

// LocalPath returns the on-disk location of the clone
func (gfs *GitFS) LocalPath() string {
	return gfs.localPath
}

func (gfs *GitFS) ReadFile(name string) ([]byte, error) {
	return gfs.localFS.ReadFile(gfs.resolve(name))
}

func (gfs *GitFS) Stat(name string) (FileInfo, error) {
	return gfs.localFS.Stat(gfs.resolve(name))
}

func (gfs *GitFS) ReadDir(name string) iter.Seq2[DirEntry, error] {
	return gfs.localFS.ReadDir(gfs.resolve(name))
}

func (gfs *GitFS) Walk(root string, fn WalkFunc) error {
	fullRoot := gfs.resolve(root)

	// Report clone-relative paths to the caller
	return gfs.localFS.Walk(fullRoot, func(path string, info FileInfo, err error) error {
		if strings.HasPrefix(path, gfs.localPath) {
			rel := strings.TrimPrefix(path, gfs.localPath)
			rel = strings.TrimPrefix(rel, string(filepath.Separator))
			if rel == "" {
				rel = "."
			}
			return fn(rel, info, err)
		}
		return fn(path, info, err)
	})
}

func (gfs *GitFS) Join(elem ...string) string {
	return gfs.localFS.Join(elem...)
}

func (gfs *GitFS) Base(path string) string {
	return gfs.localFS.Base(path)
}

func (gfs *GitFS) Dir(path string) string {
	return gfs.localFS.Dir(path)
}

func (gfs *GitFS) Rel(basepath, targpath string) (string, error) {
	return gfs.localFS.Rel(basepath, targpath)
}

func (gfs *GitFS) resolve(name string) string {
	if name == "." || name == "" {
		return gfs.localPath
	}
	if filepath.IsAbs(name) && strings.HasPrefix(name, gfs.localPath) {
		return name
	}
	return gfs.localFS.Join(gfs.localPath, name)
}
