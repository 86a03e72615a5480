package render

import "strings"

// dockerignoreEntries keeps ephemeral and host-only trees out of the staged
// source copy so the build stage's source artifact stays minimal
var dockerignoreEntries = []string{
	".git",
	".venv",
	"venv",
	"__pycache__",
	"*.pyc",
	".mypy_cache",
	".pytest_cache",
	".env",
	".env.*",
	"Dockerfile",
	".dockerignore",
	"slipway.lock",
}

// Dockerignore renders the .dockerignore companion file
func Dockerignore() []byte {
	return []byte(strings.Join(dockerignoreEntries, "\n") + "\n")
}
