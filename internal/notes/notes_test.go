package notes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderDir(t *testing.T) {
	dir := t.TempDir()
	src := "# Holiday 2024\n\n| day | place |\n|---|---|\n| 1 | beach |\n\n```go\nfmt.Println(\"hi\")\n```\n"
	if err := os.WriteFile(filepath.Join(dir, "readme.md"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	out, ok, err := NewRenderer().RenderDir(dir)
	if err != nil || !ok {
		t.Fatalf("RenderDir = %v, %v", ok, err)
	}
	html := string(out)
	for _, want := range []string{`<h1 id="holiday-2024">`, "<table>", "<td>beach</td>", "<pre"} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q:\n%s", want, html)
		}
	}
}

func TestRenderDirWithoutNote(t *testing.T) {
	_, ok, err := NewRenderer().RenderDir(t.TempDir())
	if err != nil || ok {
		t.Errorf("RenderDir = %v, %v; want false, nil", ok, err)
	}
}

func TestRenderDropsRawHTML(t *testing.T) {
	out, err := NewRenderer().Render([]byte("<script>alert(1)</script>\n\ntext"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "<script>") {
		t.Errorf("raw html was rendered: %s", out)
	}
}
