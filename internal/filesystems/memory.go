package filesystems

import (
	"fmt"
	"io/fs"
	"iter"
	"path"
	"sort"
	"strings"
	"time"
)

// MemoryFS implements FileSystem for in-memory fixtures in tests
type MemoryFS struct {
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemoryFS creates a new MemoryFS instance
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// AddFile adds a file to the memory filesystem, creating parent directories
func (mfs *MemoryFS) AddFile(name string, content []byte) {
	mfs.files[path.Clean(name)] = content
	dir := path.Dir(name)
	for dir != "." && dir != "/" {
		mfs.dirs[dir] = true
		dir = path.Dir(dir)
	}
}

// AddDir adds a directory to the memory filesystem
func (mfs *MemoryFS) AddDir(name string) {
	mfs.dirs[path.Clean(name)] = true
	dir := path.Dir(name)
	for dir != "." && dir != "/" {
		mfs.dirs[dir] = true
		dir = path.Dir(dir)
	}
}

func (mfs *MemoryFS) ReadFile(name string) ([]byte, error) {
	content, exists := mfs.files[path.Clean(name)]
	if !exists {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	return content, nil
}

func (mfs *MemoryFS) Stat(name string) (FileInfo, error) {
	cleanName := path.Clean(name)
	if content, ok := mfs.files[cleanName]; ok {
		return &memoryFileInfo{name: path.Base(cleanName), size: int64(len(content))}, nil
	}
	if cleanName == "." || mfs.dirs[cleanName] {
		return &memoryFileInfo{name: path.Base(cleanName), isDir: true}, nil
	}
	return nil, fmt.Errorf("not found: %s", name)
}

func (mfs *MemoryFS) ReadDir(name string) iter.Seq2[DirEntry, error] {
	return func(yield func(DirEntry, error) bool) {
		cleanName := path.Clean(name)

		if cleanName != "." && !mfs.dirs[cleanName] {
			yield(nil, fmt.Errorf("directory not found: %s", name))
			return
		}

		prefix := cleanName
		if prefix != "." {
			prefix += "/"
		}

		// Collect direct children of the directory
		seen := make(map[string]bool)
		var entries []string

		collect := func(p string) {
			remainder := p
			if cleanName != "." {
				if !strings.HasPrefix(p, prefix) {
					return
				}
				remainder = strings.TrimPrefix(p, prefix)
			} else if strings.Contains(p, "/") {
				remainder = strings.SplitN(p, "/", 2)[0]
			}
			if remainder == "" {
				return
			}
			child := strings.SplitN(remainder, "/", 2)[0]
			if !seen[child] {
				entries = append(entries, child)
				seen[child] = true
			}
		}

		for filePath := range mfs.files {
			collect(filePath)
		}
		for dirPath := range mfs.dirs {
			collect(dirPath)
		}

		sort.Strings(entries)

		for _, entry := range entries {
			fullPath := entry
			if cleanName != "." {
				fullPath = path.Join(cleanName, entry)
			}

			_, isFile := mfs.files[fullPath]
			dirEntry := &memoryDirEntry{
				name:     entry,
				isDir:    !isFile,
				mfs:      mfs,
				fullPath: fullPath,
			}

			if !yield(dirEntry, nil) {
				return
			}
		}
	}
}

func (mfs *MemoryFS) Walk(root string, fn WalkFunc) error {
	cleanRoot := path.Clean(root)

	info, err := mfs.Stat(cleanRoot)
	if err != nil {
		return fn(root, nil, err)
	}
	if err := fn(cleanRoot, info, nil); err != nil {
		if err == SkipDir {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}

	for entry, err := range mfs.ReadDir(cleanRoot) {
		if err != nil {
			return err
		}
		childPath := entry.Name()
		if cleanRoot != "." {
			childPath = path.Join(cleanRoot, entry.Name())
		}
		if entry.IsDir() {
			if err := mfs.Walk(childPath, fn); err != nil {
				return err
			}
			continue
		}
		childInfo, statErr := mfs.Stat(childPath)
		if err := fn(childPath, childInfo, statErr); err != nil {
			if err == SkipDir {
				continue
			}
			return err
		}
	}
	return nil
}

func (mfs *MemoryFS) Join(elem ...string) string {
	return path.Join(elem...)
}

func (mfs *MemoryFS) Base(p string) string {
	return path.Base(p)
}

func (mfs *MemoryFS) Dir(p string) string {
	return path.Dir(p)
}

func (mfs *MemoryFS) Rel(basepath, targpath string) (string, error) {
	base := path.Clean(basepath)
	targ := path.Clean(targpath)
	if base == targ {
		return ".", nil
	}
	if base == "." {
		return targ, nil
	}
	if strings.HasPrefix(targ, base+"/") {
		return strings.TrimPrefix(targ, base+"/"), nil
	}
	return "", fmt.Errorf("cannot make %s relative to %s", targpath, basepath)
}

type memoryDirEntry struct {
	name     string
	isDir    bool
	mfs      *MemoryFS
	fullPath string
}

func (e *memoryDirEntry) Name() string { return e.name }
func (e *memoryDirEntry) IsDir() bool  { return e.isDir }

func (e *memoryDirEntry) Type() fs.FileMode {
	if e.isDir {
		return fs.ModeDir
	}
	return 0
}

func (e *memoryDirEntry) Info() (FileInfo, error) {
	return e.mfs.Stat(e.fullPath)
}

type memoryFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (i *memoryFileInfo) Name() string { return i.name }
func (i *memoryFileInfo) Size() int64  { return i.size }

func (i *memoryFileInfo) Mode() fs.FileMode {
	if i.isDir {
		return fs.ModeDir | 0755
	}
	return 0644
}

func (i *memoryFileInfo) ModTime() time.Time { return time.Time{} }
func (i *memoryFileInfo) IsDir() bool        { return i.isDir }
func (i *memoryFileInfo) Sys() interface{}   { return nil }
