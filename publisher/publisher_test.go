package publisher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = "## What is ML\n\nML is ...\n\n## Examples\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n"

func TestPublish_Markdown(t *testing.T) {
	dir := t.TempDir()
	p, err := New(Config{Dir: dir}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	art, err := p.Publish(context.Background(), sample)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if art.Filename != "学习笔记.md" {
		t.Errorf("Filename = %q", art.Filename)
	}
	if art.HTMLPath != "" {
		t.Errorf("HTMLPath = %q, want empty", art.HTMLPath)
	}
	got, err := os.ReadFile(filepath.Join(dir, NoteFilename))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != sample {
		t.Errorf("file content = %q, want %q", got, sample)
	}
}

func TestPublish_EmptyNoteStillWritten(t *testing.T) {
	dir := t.TempDir()
	p, err := New(Config{Dir: dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	art, err := p.Publish(context.Background(), "")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if art.Bytes != 0 {
		t.Errorf("Bytes = %d", art.Bytes)
	}
}

func TestPublish_HTML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	p, err := New(Config{Dir: dir, HTML: true}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	art, err := p.Publish(context.Background(), sample)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if filepath.Base(art.HTMLPath) != "学习笔记.html" {
		t.Errorf("HTMLPath = %q", art.HTMLPath)
	}
	page, err := os.ReadFile(art.HTMLPath)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	for _, want := range []string{`<meta charset="utf-8">`, "<h2>What is ML</h2>", "<table>"} {
		if !strings.Contains(string(page), want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestRenderHTML_Empty(t *testing.T) {
	page, err := RenderHTML("")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(page, "<title>学习笔记</title>") || strings.Contains(page, "<h2>") {
		t.Errorf("page = %q", page)
	}
}

func TestPublish_EmptyNoteWithHTML(t *testing.T) {
	dir := t.TempDir()
	p, err := New(Config{Dir: dir, HTML: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	art, err := p.Publish(context.Background(), "")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if art.HTMLPath != filepath.Join(dir, "学习笔记.html") {
		t.Errorf("HTMLPath = %q", art.HTMLPath)
	}
	if _, err := os.Stat(art.HTMLPath); err != nil {
		t.Errorf("html not written: %v", err)
	}
}

func TestContentDisposition(t *testing.T) {
	got := ContentDisposition(NoteFilename)
	if !strings.HasPrefix(got, `attachment; filename="notes.md"`) {
		t.Errorf("ContentDisposition = %q", got)
	}
	if !strings.Contains(got, "filename*=UTF-8''%E5%AD%A6%E4%B9%A0%E7%AC%94%E8%AE%B0.md") {
		t.Errorf("ContentDisposition = %q", got)
	}
}
