package vectordb

import "time"

// DocumentType categorizes a knowledge document. Facts are discrete,
// checkable statements; contextual documents are background material.
type DocumentType string

const (
	DocTypeFact       DocumentType = "fact"
	DocTypeContextual DocumentType = "contextual"
)

// Document represents a piece of knowledge to be stored and searched.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured information about a knowledge document.
type DocumentMetadata struct {
	Source      string // provenance, e.g. "ops-handbook.md#Stand Allocation"
	Type        DocumentType
	Topic       string // e.g. "capacity", "maintenance", "stands"
	Airport     string
	ContentHash string
	LastUpdated time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter allows narrowing search results by metadata fields.
type SearchFilter struct {
	Type    *DocumentType
	Topic   *string
	Airport *string
}
