// Generated-code artifact files.
//
// Each attempted snippet may be persisted to disk under a name that
// encodes a human-readable slug of the task, the task fingerprint, and
// the version number, wrapped into a runnable Go file.

package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const maxSlugLen = 40

// ArtifactWriter writes attempt snippets to files under a directory.
type ArtifactWriter struct {
	dir string
}

// NewArtifactWriter creates a writer rooted at dir.
func NewArtifactWriter(dir string) *ArtifactWriter {
	return &ArtifactWriter{dir: dir}
}

// Write persists one snippet as <slug>_<fingerprint>_v<version>.go and
// returns the file path.
func (w *ArtifactWriter) Write(task, fingerprint string, version int, code string) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_v%d.go", Slug(task), fingerprint, version)
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, []byte(wrapArtifact(code)), 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}

// Slug converts a task description into a short filesystem-safe name.
func Slug(task string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(task) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	return strings.Trim(b.String(), "_")
}

// wrapArtifact makes the snippet a standalone file: a package clause up
// front and a main entry point at the end if the snippet has neither.
func wrapArtifact(code string) string {
	trimmed := strings.TrimSpace(code)
	if strings.HasPrefix(trimmed, "package ") {
		return code
	}

	var b strings.Builder
	b.WriteString("package main\n\n")
	b.WriteString(trimmed)
	b.WriteString("\n")
	if !strings.Contains(trimmed, "func main(") {
		b.WriteString("\nfunc main() {}\n")
	}
	return b.String()
}
