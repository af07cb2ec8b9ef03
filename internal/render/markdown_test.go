package render

import (
	"strings"
	"testing"
)

func TestMarkdownRender_HeadingsAndHTML(t *testing.T) {
	src := []byte("# Opening Theory\n\nSome text.\n\n## The Sicilian\n\nMore text.\n")

	r := NewMarkdownRenderer()
	got, err := r.Render(src)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	html := string(got.HTML)
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<h2") {
		t.Errorf("html = %q", html)
	}

	if len(got.Headings) != 2 {
		t.Fatalf("headings = %v", got.Headings)
	}
	if got.Headings[0].Level != 1 || got.Headings[0].Text != "Opening Theory" {
		t.Errorf("headings[0] = %+v", got.Headings[0])
	}
	if got.Headings[1].ID == "" {
		t.Error("auto heading ID missing")
	}
}

func TestMarkdownRender_GFMTable(t *testing.T) {
	src := []byte("| Opening | Score |\n| --- | --- |\n| Sicilian | 55% |\n")

	r := NewMarkdownRenderer()
	got, err := r.Render(src)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(got.HTML), "<table>") {
		t.Errorf("html = %q, want a table", got.HTML)
	}
}
