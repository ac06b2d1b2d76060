package recorder

import (
	"os"
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"print hello", "print_hello"},
		{"Get patient with ID 'example'", "get_patient_with_id_example"},
		{"  spaces   everywhere  ", "spaces_everywhere"},
		{"", ""},
		{"UPPER", "upper"},
	}

	for _, tt := range tests {
		if got := Slug(tt.input); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSlugBounded(t *testing.T) {
	long := strings.Repeat("word ", 50)
	if got := Slug(long); len(got) > maxSlugLen+1 {
		t.Errorf("slug too long: %d chars", len(got))
	}
}

func TestWriteWrapsSnippet(t *testing.T) {
	w := NewArtifactWriter(t.TempDir())

	path, err := w.Write("print hello", "abc123def456", 2, "func main() {\n\tfmt.Println(\"hi\")\n}")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.HasSuffix(path, "print_hello_abc123def456_v2.go") {
		t.Errorf("unexpected artifact name: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	if !strings.HasPrefix(string(content), "package main\n") {
		t.Error("expected package clause prepended")
	}
	if !strings.Contains(string(content), "func main()") {
		t.Error("expected entry point preserved")
	}
}

func TestWriteKeepsExistingPackageClause(t *testing.T) {
	w := NewArtifactWriter(t.TempDir())

	code := "package main\n\nfunc main() {}\n"
	path, err := w.Write("t", "fp", 1, code)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != code {
		t.Errorf("already-wrapped code must pass through unchanged, got %q", content)
	}
}

func TestWriteAddsEntryPointGuard(t *testing.T) {
	w := NewArtifactWriter(t.TempDir())

	path, err := w.Write("t", "fp", 1, "func helper() int { return 1 }")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if !strings.Contains(string(content), "func main() {}") {
		t.Error("expected an entry point added for snippets without one")
	}
}
