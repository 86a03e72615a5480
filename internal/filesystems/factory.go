package filesystems

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// NewFileSystem creates a filesystem implementation based on the given URI
// Supports:
// - plain local paths and file:///path/to/local/dir
// - git://host/owner/repo[#ref]
func NewFileSystem(uri string) (FileSystem, error) {
	// Handle local paths without scheme
	if !strings.Contains(uri, "://") {
		if _, err := filepath.Abs(uri); err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", uri, err)
		}
		return NewLocalFS(), nil
	}

	parsedURL, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI %s: %w", uri, err)
	}

	switch parsedURL.Scheme {
	case "file":
		return NewLocalFS(), nil

	case "git":
		return parseGitURL(parsedURL)

	default:
		return nil, fmt.Errorf("unsupported scheme: %s", parsedURL.Scheme)
	}
}

// parseGitURL parses git://host/owner/repo[#ref] URLs into a GitFS clone
func parseGitURL(u *url.URL) (FileSystem, error) {
	if u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return nil, fmt.Errorf("invalid git URL, expected: git://host/owner/repo[#ref]")
	}

	repoURL := fmt.Sprintf("https://%s%s", u.Host, u.Path)
	if !strings.HasSuffix(repoURL, ".git") {
		repoURL += ".git"
	}

	return NewGitFS(repoURL, u.Fragment)
}
