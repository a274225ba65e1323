package rag

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// MemoryStore is a small in-process vector store substitute scoring passages
// by character-bigram overlap with the query. It backs the knowledge tool in
// tests and local runs where no embedding service is available.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []schema.Document
}

var _ vectorstores.VectorStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AddDocuments(_ context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		m.docs = append(m.docs, doc)
		ids = append(ids, strconv.Itoa(len(m.docs)-1))
	}
	return ids, nil
}

func (m *MemoryStore) SimilaritySearch(_ context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	var opts vectorstores.Options
	for _, o := range options {
		o(&opts)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	queryGrams := bigrams(query)

	scored := make([]schema.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		score := overlap(queryGrams, bigrams(doc.PageContent))
		if score < opts.ScoreThreshold {
			continue
		}
		doc.Score = score
		scored = append(scored, doc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if numDocuments > 0 && len(scored) > numDocuments {
		scored = scored[:numDocuments]
	}
	return scored, nil
}

func bigrams(s string) map[string]struct{} {
	runes := []rune(s)
	grams := make(map[string]struct{}, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])] = struct{}{}
	}
	return grams
}

// overlap is the fraction of query bigrams present in the document.
func overlap(query, doc map[string]struct{}) float32 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for g := range query {
		if _, ok := doc[g]; ok {
			hits++
		}
	}
	return float32(hits) / float32(len(query))
}
