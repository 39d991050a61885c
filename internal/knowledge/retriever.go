// Package knowledge retrieves supporting knowledge for reasoning steps from
// the vector store, grouped into facts and contextual material. Identical
// requests within a TTL window are served from working memory.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zhaddad/aeromind/internal/memory"
	"github.com/zhaddad/aeromind/internal/vectordb"
)

// Retrieval strategies.
const (
	RetrievalSemantic = "semantic"
	RetrievalKeyword  = "keyword"
	RetrievalHybrid   = "hybrid"
)

// DefaultMaxResults bounds retrieval when the request does not say.
const DefaultMaxResults = 8

// Item is one retrieved knowledge item.
type Item struct {
	Source      string    `json:"source"`
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	Confidence  float64   `json:"confidence"`
	RetrievedAt time.Time `json:"retrievedAt"`
}

// Request describes one retrieval.
type Request struct {
	Text          string `json:"text"`
	QueryID       string `json:"queryId"`
	RetrievalType string `json:"retrievalType"`
	MaxResults    int    `json:"maxResults"`
}

// Result groups retrieved items by type with a provenance listing.
type Result struct {
	Facts      []Item   `json:"facts"`
	Contextual []Item   `json:"contextual"`
	Sources    []string `json:"sources"`
}

// Items flattens the result, facts first.
func (r *Result) Items() []Item {
	return append(append([]Item{}, r.Facts...), r.Contextual...)
}

// Retriever answers knowledge requests against the vector store.
type Retriever struct {
	store   vectordb.KnowledgeStore
	working *memory.Store
}

// NewRetriever creates a retriever. working may be nil to disable the
// idempotence cache.
func NewRetriever(store vectordb.KnowledgeStore, working *memory.Store) *Retriever {
	return &Retriever{store: store, working: working}
}

// Retrieve answers a knowledge request. Identical (retrievalType, text)
// requests within a session are served from working memory while the cached
// entry lives.
func (r *Retriever) Retrieve(ctx context.Context, sessionID string, req Request) (*Result, error) {
	strategy := req.RetrievalType
	switch strategy {
	case RetrievalSemantic, RetrievalKeyword, RetrievalHybrid:
	case "":
		strategy = RetrievalSemantic
	default:
		return nil, fmt.Errorf("unknown retrieval type %q", req.RetrievalType)
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	cacheKey := "retrieval:" + strategy + ":" + req.Text
	if r.working != nil {
		if v, ok := r.working.Get(sessionID, cacheKey); ok {
			if cached, ok := v.(*Result); ok {
				return cached, nil
			}
		}
	}

	var (
		results []vectordb.SearchResult
		err     error
	)
	switch strategy {
	case RetrievalSemantic:
		results, err = r.store.Search(ctx, req.Text, maxResults, nil)
	case RetrievalKeyword:
		results, err = r.keywordSearch(ctx, req.Text, maxResults)
	case RetrievalHybrid:
		results, err = r.hybridSearch(ctx, req.Text, maxResults)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving knowledge: %w", err)
	}

	result := groupResults(results)
	if r.working != nil {
		r.working.Set(sessionID, cacheKey, result, memory.KnowledgeTTL)
	}
	return result, nil
}

// keywordSearch over-fetches semantically and re-ranks by query term
// overlap, so documents that literally mention the query terms win.
func (r *Retriever) keywordSearch(ctx context.Context, text string, maxResults int) ([]vectordb.SearchResult, error) {
	candidates, err := r.store.Search(ctx, text, maxResults*3, nil)
	if err != nil {
		return nil, err
	}
	terms := queryTerms(text)

	type scored struct {
		res   vectordb.SearchResult
		score float64
	}
	var hits []scored
	for _, c := range candidates {
		score := termOverlap(c.Document.Content, terms)
		if score > 0 {
			hits = append(hits, scored{res: c, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	out := make([]vectordb.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = h.res
	}
	return out, nil
}

// hybridSearch unions semantic and keyword results, preferring semantic
// order, deduplicated by document ID.
func (r *Retriever) hybridSearch(ctx context.Context, text string, maxResults int) ([]vectordb.SearchResult, error) {
	semantic, err := r.store.Search(ctx, text, maxResults, nil)
	if err != nil {
		return nil, err
	}
	keyword, err := r.keywordSearch(ctx, text, maxResults)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var merged []vectordb.SearchResult
	for _, res := range append(semantic, keyword...) {
		if seen[res.Document.ID] {
			continue
		}
		seen[res.Document.ID] = true
		merged = append(merged, res)
	}
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged, nil
}

func groupResults(results []vectordb.SearchResult) *Result {
	out := &Result{}
	now := time.Now().UTC()
	seenSources := make(map[string]bool)
	for _, res := range results {
		item := Item{
			Source:      res.Document.Metadata.Source,
			Type:        string(res.Document.Metadata.Type),
			Content:     res.Document.Content,
			Confidence:  float64(res.Similarity),
			RetrievedAt: now,
		}
		if res.Document.Metadata.Type == vectordb.DocTypeFact {
			out.Facts = append(out.Facts, item)
		} else {
			out.Contextual = append(out.Contextual, item)
		}
		if item.Source != "" && !seenSources[item.Source] {
			seenSources[item.Source] = true
			out.Sources = append(out.Sources, item.Source)
		}
	}
	return out
}

func queryTerms(text string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?\"'")
		if len(w) > 2 {
			terms = append(terms, w)
		}
	}
	return terms
}

func termOverlap(content string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
