package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zhaddad/aeromind/internal/vectordb"
)

// Report summarizes an ingestion run.
type Report struct {
	Files    int
	Chunks   int
	Facts    int
	Skipped  int
	Duration time.Duration
}

// Ingester loads markdown files into a knowledge store.
type Ingester struct {
	store vectordb.KnowledgeStore
}

// NewIngester creates an ingester over the given store.
func NewIngester(store vectordb.KnowledgeStore) *Ingester {
	return &Ingester{store: store}
}

// Ingest walks the configured directory and loads every markdown file into
// the store. Existing documents from the same file are replaced, so re-running
// ingestion is safe. The progress callback, if non-nil, is invoked once per
// file with its relative path.
func (ing *Ingester) Ingest(ctx context.Context, config WalkConfig, progress func(relPath string)) (*Report, error) {
	start := time.Now()

	files, err := Walk(config)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(file.RelPath)
		}

		docs, facts, err := ing.documentsForFile(file)
		if err != nil {
			report.Skipped++
			continue
		}
		if len(docs) == 0 {
			report.Skipped++
			continue
		}

		if err := ing.store.DeleteBySource(ctx, file.RelPath); err != nil {
			return nil, fmt.Errorf("clearing documents for %s: %w", file.RelPath, err)
		}
		if err := ing.store.AddDocuments(ctx, docs); err != nil {
			return nil, fmt.Errorf("adding documents for %s: %w", file.RelPath, err)
		}

		report.Files++
		report.Chunks += len(docs)
		report.Facts += facts
	}

	report.Duration = time.Since(start)
	return report, nil
}

// TotalFiles counts the files an ingestion run would touch, for progress
// reporting before the run starts.
func TotalFiles(config WalkConfig) (int, error) {
	files, err := Walk(config)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// documentsForFile converts one markdown file into store documents. Sections
// whose body is a bullet list yield one fact document per bullet; narrative
// sections become a single contextual document.
func (ing *Ingester) documentsForFile(file FileInfo) ([]vectordb.Document, int, error) {
	content, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, 0, err
	}

	chunks := ChunkMarkdown(content)
	now := time.Now().UTC()

	topic := topicFor(file, chunks)
	var docs []vectordb.Document
	facts := 0
	for i, chunk := range chunks {
		if chunk.Content == "" {
			continue
		}
		meta := vectordb.DocumentMetadata{
			Source:      file.RelPath,
			Topic:       topic,
			ContentHash: file.ContentHash,
			LastUpdated: now,
		}

		if bullets := bulletLines(chunk.Content); bullets != nil {
			meta.Type = vectordb.DocTypeFact
			for j, bullet := range bullets {
				doc := vectordb.Document{
					ID:       fmt.Sprintf("%s#%d.%d", file.RelPath, i, j),
					Content:  factContent(chunk.Heading, bullet),
					Metadata: meta,
				}
				docs = append(docs, doc)
				facts++
			}
			continue
		}

		meta.Type = vectordb.DocTypeContextual
		body := chunk.Content
		if chunk.Heading != "" {
			body = chunk.Heading + "\n\n" + body
		}
		docs = append(docs, vectordb.Document{
			ID:       fmt.Sprintf("%s#%d", file.RelPath, i),
			Content:  body,
			Metadata: meta,
		})
	}
	return docs, facts, nil
}

// factContent prefixes a bullet with its section heading so the fact stands
// on its own when retrieved in isolation.
func factContent(heading, bullet string) string {
	if heading == "" {
		return bullet
	}
	return heading + ": " + bullet
}

// topicFor picks the document topic: the first level-1 heading if present,
// otherwise the file name without extension.
func topicFor(file FileInfo, chunks []Chunk) string {
	for _, chunk := range chunks {
		if chunk.Level == 1 {
			return chunk.Heading
		}
	}
	name := file.RelPath
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(strings.TrimSuffix(name, ".markdown"), ".md")
}
