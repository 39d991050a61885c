// Package ingest loads markdown knowledge documents into the vector store:
// it walks a directory tree, splits files into heading-scoped chunks and
// embeds them for retrieval.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the maximum file size to ingest (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// FileInfo holds metadata about a discovered knowledge file.
type FileInfo struct {
	Path        string // Absolute path on disk.
	RelPath     string // Path relative to the knowledge root.
	Size        int64
	ContentHash string // SHA-256 hex digest of the file content.
}

// WalkConfig controls directory traversal.
type WalkConfig struct {
	RootDir     string
	Include     []string // Glob patterns; empty means all markdown files.
	Exclude     []string
	MaxFileSize int64 // 0 uses the default.
}

// Walk finds the markdown files under RootDir that pass filtering.
func Walk(config WalkConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving knowledge root: %w", err)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".markdown" {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !matchesInclude(relPath, config.Include) || matchesAny(relPath, config.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		sum := sha256.Sum256(content)

		files = append(files, FileInfo{
			Path:        path,
			RelPath:     filepath.ToSlash(relPath),
			Size:        info.Size(),
			ContentHash: hex.EncodeToString(sum[:]),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

func matchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// matchesAny uses doublestar for ** support, also trying the basename so
// bare patterns like "*.md" work at any depth.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	base := filepath.Base(relPath)
	for _, pattern := range patterns {
		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
