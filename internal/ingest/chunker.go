package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Chunk is a heading-scoped section of a markdown document.
type Chunk struct {
	Heading string // Heading text; empty for content before the first heading.
	Level   int    // Heading level, 0 for the preamble.
	Content string // Section body without the heading line.
}

// ChunkMarkdown splits a markdown document at its headings. Content before
// the first heading becomes a level-0 preamble chunk. A section with an empty
// body is kept only when it has a heading, so document titles survive.
func ChunkMarkdown(source []byte) []Chunk {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	type boundary struct {
		heading   string
		level     int
		lineStart int // Offset of the start of the heading line.
		bodyStart int // Offset just past the heading line.
	}

	var boundaries []boundary
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Lines().Len() == 0 {
			continue
		}
		seg := heading.Lines().At(0)
		boundaries = append(boundaries, boundary{
			heading:   strings.TrimSpace(string(seg.Value(source))),
			level:     heading.Level,
			lineStart: startOfLine(source, seg.Start),
			bodyStart: endOfLine(source, seg.Stop),
		})
	}

	var chunks []Chunk
	appendChunk := func(heading string, level int, body []byte) {
		content := strings.TrimSpace(string(body))
		if content == "" && heading == "" {
			return
		}
		chunks = append(chunks, Chunk{Heading: heading, Level: level, Content: content})
	}

	if len(boundaries) == 0 {
		appendChunk("", 0, source)
		return chunks
	}

	appendChunk("", 0, source[:boundaries[0].lineStart])
	for i, b := range boundaries {
		end := len(source)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].lineStart
		}
		appendChunk(b.heading, b.level, source[b.bodyStart:end])
	}
	return chunks
}

// bulletLines returns the bullet list items of a chunk body, or nil when the
// body is not predominantly a bullet list.
func bulletLines(content string) []string {
	lines := strings.Split(content, "\n")
	var bullets []string
	other := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(trimmed, "- "); ok {
			bullets = append(bullets, strings.TrimSpace(rest))
		} else if rest, ok := strings.CutPrefix(trimmed, "* "); ok {
			bullets = append(bullets, strings.TrimSpace(rest))
		} else {
			other++
		}
	}
	if len(bullets) == 0 || other > len(bullets) {
		return nil
	}
	return bullets
}

func startOfLine(source []byte, offset int) int {
	for offset > 0 && source[offset-1] != '\n' {
		offset--
	}
	return offset
}

func endOfLine(source []byte, offset int) int {
	for offset < len(source) && source[offset] != '\n' {
		offset++
	}
	if offset < len(source) {
		offset++
	}
	return offset
}
