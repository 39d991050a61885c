package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zhaddad/aeromind/internal/vectordb"
)

const opsHandbook = `# Airport Operations

Schiphol handles both narrow-body and wide-body traffic.

## Stand Facts

- Stand A1 is a code C contact stand
- Stand B1 accepts wide-body aircraft

## Towing Procedures

Aircraft towed between the apron and remote stands must hold short
of taxiway Quebec until cleared by ground control.
`

func writeKnowledgeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "ops-handbook.md"), opsHandbook)
	mustWrite(t, filepath.Join(dir, "notes.txt"), "not markdown")
	mustWrite(t, filepath.Join(dir, ".hidden", "secret.md"), "# Hidden")
	mustWrite(t, filepath.Join(dir, "archive", "old.md"), "# Old\n\nOutdated.")
	return dir
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkFilters(t *testing.T) {
	dir := writeKnowledgeDir(t)

	files, err := Walk(WalkConfig{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.RelPath)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 markdown files, got %v", paths)
	}
	for _, f := range files {
		if f.ContentHash == "" || f.Size == 0 {
			t.Errorf("missing hash or size: %+v", f)
		}
	}

	files, err = Walk(WalkConfig{RootDir: dir, Exclude: []string{"archive/**"}})
	if err != nil {
		t.Fatalf("Walk with exclude: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "ops-handbook.md" {
		t.Errorf("exclude pattern not applied: %+v", files)
	}

	files, err = Walk(WalkConfig{RootDir: dir, Include: []string{"archive/**"}})
	if err != nil {
		t.Fatalf("Walk with include: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "archive/old.md" {
		t.Errorf("include pattern not applied: %+v", files)
	}
}

func TestWalkMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "big.md"), strings.Repeat("x", 200))
	mustWrite(t, filepath.Join(dir, "small.md"), "# Small")

	files, err := Walk(WalkConfig{RootDir: dir, MaxFileSize: 100})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "small.md" {
		t.Errorf("oversized file not skipped: %+v", files)
	}
}

func TestChunkMarkdown(t *testing.T) {
	chunks := ChunkMarkdown([]byte(opsHandbook))
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Heading != "Airport Operations" || chunks[0].Level != 1 {
		t.Errorf("title chunk: %+v", chunks[0])
	}
	if !strings.Contains(chunks[0].Content, "wide-body traffic") {
		t.Errorf("title body: %q", chunks[0].Content)
	}
	if chunks[1].Heading != "Stand Facts" || chunks[1].Level != 2 {
		t.Errorf("facts chunk: %+v", chunks[1])
	}
	if chunks[2].Heading != "Towing Procedures" {
		t.Errorf("procedures chunk: %+v", chunks[2])
	}
	if strings.Contains(chunks[2].Content, "## Towing") {
		t.Errorf("heading line leaked into body: %q", chunks[2].Content)
	}
}

func TestChunkMarkdownPreambleAndBareTitle(t *testing.T) {
	chunks := ChunkMarkdown([]byte("intro text\n\n# Title\n\n## Section\n\nbody\n"))
	if len(chunks) != 3 {
		t.Fatalf("chunks: %+v", chunks)
	}
	if chunks[0].Heading != "" || chunks[0].Content != "intro text" {
		t.Errorf("preamble: %+v", chunks[0])
	}
	// The bare title is kept so the topic survives, with an empty body.
	if chunks[1].Heading != "Title" || chunks[1].Content != "" {
		t.Errorf("bare title: %+v", chunks[1])
	}
}

func TestBulletLines(t *testing.T) {
	bullets := bulletLines("- one\n- two\n* three")
	if len(bullets) != 3 || bullets[2] != "three" {
		t.Errorf("bullets: %v", bullets)
	}
	if bulletLines("mostly prose\nwith more prose\n- one bullet") != nil {
		t.Error("prose-dominated section treated as bullet list")
	}
	if bulletLines("plain paragraph") != nil {
		t.Error("paragraph treated as bullet list")
	}
}

// recordingStore captures store mutations for assertions.
type recordingStore struct {
	added   []vectordb.Document
	deleted []string
}

func (r *recordingStore) AddDocuments(ctx context.Context, docs []vectordb.Document) error {
	r.added = append(r.added, docs...)
	return nil
}

func (r *recordingStore) Search(ctx context.Context, query string, limit int, filter *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	return nil, nil
}
func (r *recordingStore) DeleteBySource(ctx context.Context, source string) error {
	r.deleted = append(r.deleted, source)
	return nil
}
func (r *recordingStore) Persist(ctx context.Context, dir string) error { return nil }
func (r *recordingStore) Load(ctx context.Context, dir string) error    { return nil }
func (r *recordingStore) Count() int                                    { return len(r.added) }

func TestIngest(t *testing.T) {
	dir := writeKnowledgeDir(t)
	store := &recordingStore{}

	var seen []string
	report, err := NewIngester(store).Ingest(context.Background(), WalkConfig{RootDir: dir}, func(relPath string) {
		seen = append(seen, relPath)
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if report.Files != 2 {
		t.Errorf("files = %d", report.Files)
	}
	if report.Facts != 2 {
		t.Errorf("facts = %d", report.Facts)
	}
	if len(seen) != 2 {
		t.Errorf("progress callbacks: %v", seen)
	}
	if len(store.deleted) != 2 {
		t.Errorf("old documents not cleared per file: %v", store.deleted)
	}

	var facts, contextual int
	for _, doc := range store.added {
		switch doc.Metadata.Type {
		case vectordb.DocTypeFact:
			facts++
			if !strings.HasPrefix(doc.Content, "Stand Facts: ") {
				t.Errorf("fact missing heading prefix: %q", doc.Content)
			}
		case vectordb.DocTypeContextual:
			contextual++
		default:
			t.Errorf("document without type: %+v", doc)
		}
		if doc.Metadata.Source == "" || doc.Metadata.ContentHash == "" {
			t.Errorf("missing metadata: %+v", doc.Metadata)
		}
	}
	if facts != 2 || contextual == 0 {
		t.Errorf("facts = %d, contextual = %d", facts, contextual)
	}

	for _, doc := range store.added {
		if doc.Metadata.Source == "ops-handbook.md" && doc.Metadata.Topic != "Airport Operations" {
			t.Errorf("topic = %q", doc.Metadata.Topic)
		}
	}
}
