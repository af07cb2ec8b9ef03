package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	domainerr "gambit/internal/domain/errors"
)

func writeSource(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIngest_OrderAndFields(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "2022-06-03-why-i-play-chess.md",
		"---\ntitle: Why I Play Chess\ndate: 2022-06-03\ncategories: [chess]\n---\nbody one\n")
	writeSource(t, dir, "2022-08-20-new-blog.md",
		"---\ntitle: Creating a new blog\ndate: 2022-08-20\ncategories: [programming]\n---\nbody two\n")

	posts, warns, err := Ingest(dir)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(warns) != 0 {
		t.Errorf("warns = %v", warns)
	}
	if len(posts) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(posts))
	}
	// 发现顺序 = 路径排序
	if posts[0].Meta.Title != "Why I Play Chess" {
		t.Errorf("posts[0] = %q", posts[0].Meta.Title)
	}
	if posts[1].Meta.Title != "Creating a new blog" {
		t.Errorf("posts[1] = %q", posts[1].Meta.Title)
	}
	if posts[0].Body.ContentHash == "" || posts[0].Body.ContentHash == posts[1].Body.ContentHash {
		t.Error("content hashes should be set and distinct")
	}
}

func TestIngest_DateFromFilename(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "2021-02-03-from-filename.md", "---\ntitle: From Filename\n---\ntext\n")

	posts, _, err := Ingest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d", len(posts))
	}
	want := time.Date(2021, 2, 3, 0, 0, 0, 0, time.Local)
	if !posts[0].Meta.Date.Equal(want) {
		t.Errorf("date = %v, want %v", posts[0].Meta.Date, want)
	}
}

func TestIngest_MalformedDateSkippedWithOneWarning(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "bad-date.md", "---\ntitle: Bad Date\ndate: whenever\n---\ntext\n")

	posts, warns, err := Ingest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 0 {
		t.Fatalf("len(posts) = %d, want malformed-date post skipped", len(posts))
	}
	if len(warns) != 1 {
		t.Fatalf("warns = %v, want exactly one warning", warns)
	}
	if warns[0].Kind != domainerr.KindMalformedDate {
		t.Errorf("kind = %q, want %q", warns[0].Kind, domainerr.KindMalformedDate)
	}
}

func TestIngest_EmptyTitleSkippedWithOneWarning(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "2022-01-01-untitled.md", "---\ndate: 2022-01-01\n---\ntext\n")

	posts, warns, err := Ingest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 0 {
		t.Fatalf("len(posts) = %d, want titleless post skipped", len(posts))
	}
	if len(warns) != 1 {
		t.Fatalf("warns = %v, want exactly one warning", warns)
	}
	if warns[0].Kind != domainerr.KindMissingRequiredField {
		t.Errorf("kind = %q, want %q", warns[0].Kind, domainerr.KindMissingRequiredField)
	}
}

func TestIngest_HiddenSkipped(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "secret.md", "---\ntitle: Secret\ndate: 2022-01-01\nhidden: true\n---\ntext\n")

	posts, _, err := Ingest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 0 {
		t.Errorf("len(posts) = %d, want hidden post skipped", len(posts))
	}
}

func TestIngest_UnknownLayoutWarns(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "weird.md", "---\ntitle: Weird\ndate: 2022-01-01\nlayout: gallery\n---\ntext\n")

	posts, warns, err := Ingest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d", len(posts))
	}
	if posts[0].Meta.Layout != "post" {
		t.Errorf("layout = %q, want post", posts[0].Meta.Layout)
	}
	if len(warns) != 1 {
		t.Errorf("warns = %v", warns)
	}
}
