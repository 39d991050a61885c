package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/zhaddad/aeromind/internal/memory"
	"github.com/zhaddad/aeromind/internal/vectordb"
)

// fakeStore returns canned results and counts searches.
type fakeStore struct {
	results  []vectordb.SearchResult
	searches int
}

func (f *fakeStore) AddDocuments(ctx context.Context, docs []vectordb.Document) error { return nil }

func (f *fakeStore) Search(ctx context.Context, query string, limit int, filter *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	f.searches++
	if limit < len(f.results) {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func (f *fakeStore) DeleteBySource(ctx context.Context, source string) error { return nil }
func (f *fakeStore) Persist(ctx context.Context, dir string) error           { return nil }
func (f *fakeStore) Load(ctx context.Context, dir string) error              { return nil }
func (f *fakeStore) Count() int                                              { return len(f.results) }

func doc(id, content string, typ vectordb.DocumentType, source string, sim float32) vectordb.SearchResult {
	return vectordb.SearchResult{
		Document: vectordb.Document{
			ID:      id,
			Content: content,
			Metadata: vectordb.DocumentMetadata{
				Source: source,
				Type:   typ,
				Topic:  "stands",
			},
		},
		Similarity: sim,
	}
}

func TestRetrieveGroupsByType(t *testing.T) {
	store := &fakeStore{results: []vectordb.SearchResult{
		doc("1", "Stand A1 accepts up to code C aircraft", vectordb.DocTypeFact, "handbook.md#A1", 0.9),
		doc("2", "Pier A serves Terminal 1 narrowbody traffic", vectordb.DocTypeContextual, "handbook.md#PierA", 0.8),
		doc("3", "Stand B1 is a code E stand", vectordb.DocTypeFact, "handbook.md#B1", 0.7),
	}}
	r := NewRetriever(store, nil)

	res, err := r.Retrieve(context.Background(), "sess-1", Request{Text: "stand sizes", QueryID: "q1"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(res.Facts) != 2 || len(res.Contextual) != 1 {
		t.Errorf("grouping wrong: %d facts, %d contextual", len(res.Facts), len(res.Contextual))
	}
	if len(res.Sources) != 3 {
		t.Errorf("sources: %v", res.Sources)
	}
	if res.Facts[0].Confidence != 0.9 {
		t.Errorf("similarity not carried: %v", res.Facts[0].Confidence)
	}
}

func TestRetrieveIdempotentWithinTTL(t *testing.T) {
	store := &fakeStore{results: []vectordb.SearchResult{
		doc("1", "Stand A1 accepts code C", vectordb.DocTypeFact, "handbook.md", 0.9),
	}}
	working := memory.NewStore(time.Hour)
	defer working.Close()
	r := NewRetriever(store, working)
	ctx := context.Background()

	req := Request{Text: "stand sizes", QueryID: "q1", RetrievalType: RetrievalSemantic}
	first, err := r.Retrieve(ctx, "sess-1", req)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	second, err := r.Retrieve(ctx, "sess-1", req)
	if err != nil {
		t.Fatalf("second Retrieve: %v", err)
	}
	if store.searches != 1 {
		t.Errorf("expected cached second retrieval, got %d searches", store.searches)
	}
	if second != first {
		t.Error("cached retrieval should return the identical result")
	}

	// A different query misses the cache.
	if _, err := r.Retrieve(ctx, "sess-1", Request{Text: "maintenance impact", QueryID: "q1"}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.searches != 2 {
		t.Errorf("distinct text should search again, got %d searches", store.searches)
	}

	// Other sessions do not share the cache.
	if _, err := r.Retrieve(ctx, "sess-2", req); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.searches != 3 {
		t.Errorf("other session should search, got %d searches", store.searches)
	}
}

func TestKeywordRetrievalRanksByOverlap(t *testing.T) {
	store := &fakeStore{results: []vectordb.SearchResult{
		doc("1", "General airport background information", vectordb.DocTypeContextual, "bg.md", 0.95),
		doc("2", "Maintenance on stand B1 reduces pier capacity", vectordb.DocTypeFact, "maint.md", 0.6),
	}}
	r := NewRetriever(store, nil)

	res, err := r.Retrieve(context.Background(), "sess-1", Request{
		Text:          "maintenance capacity",
		RetrievalType: RetrievalKeyword,
		MaxResults:    5,
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	items := res.Items()
	if len(items) != 1 {
		t.Fatalf("expected only the overlapping document, got %+v", items)
	}
	if items[0].Source != "maint.md" {
		t.Errorf("wrong document ranked first: %+v", items[0])
	}
}

func TestHybridRetrievalDeduplicates(t *testing.T) {
	store := &fakeStore{results: []vectordb.SearchResult{
		doc("1", "Maintenance on stand B1 reduces capacity", vectordb.DocTypeFact, "maint.md", 0.9),
		doc("2", "Stand allocation rules for capacity planning", vectordb.DocTypeContextual, "rules.md", 0.8),
	}}
	r := NewRetriever(store, nil)

	res, err := r.Retrieve(context.Background(), "sess-1", Request{
		Text:          "maintenance capacity",
		RetrievalType: RetrievalHybrid,
		MaxResults:    5,
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	items := res.Items()
	if len(items) != 2 {
		t.Errorf("hybrid should deduplicate union, got %d items", len(items))
	}
}

func TestUnknownRetrievalType(t *testing.T) {
	r := NewRetriever(&fakeStore{}, nil)
	if _, err := r.Retrieve(context.Background(), "s", Request{Text: "x", RetrievalType: "psychic"}); err == nil {
		t.Error("expected error for unknown retrieval type")
	}
}
