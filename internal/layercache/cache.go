package layercache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Key is a content hash identifying one stage's input closure. Two builds
// with equal keys produce identical installed-dependency closures, which is
// what makes rebuilds idempotent.
type Key string

// Short returns the abbreviated digest used in human-readable output
func (k Key) Short() string {
	if len(k) > 12 {
		return string(k[:12])
	}
	return string(k)
}

// Compute derives a stage key from its labeled inputs. Inputs are sorted by
// label first so callers don't have to care about ordering.
func Compute(inputs map[string]string) Key {
	labels := make([]string, 0, len(inputs))
	for label := range inputs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	h := sha256.New()
	for _, label := range labels {
		fmt.Fprintf(h, "%s=%s\n", label, inputs[label])
	}
	return Key(hex.EncodeToString(h.Sum(nil)))
}

// Store is an append-only, content-addressed record of stage keys produced
// by previous invocations. Entries are never mutated, only added.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore opens (creating if needed) a store rooted at dir.
// An empty dir selects the default user cache location.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		dir = filepath.Join(cacheDir, "slipway")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Seen reports whether the key was recorded by a previous invocation
func (s *Store) Seen(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path(key))
	return err == nil
}

// Record adds the key to the store. Recording an existing key is a no-op;
// the store only ever grows.
func (s *Store) Record(key Key, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(note)+"\n"), 0644); err != nil {
		return fmt.Errorf("recording cache key: %w", err)
	}
	return nil
}

func (s *Store) path(key Key) string {
	return filepath.Join(s.dir, string(key))
}
