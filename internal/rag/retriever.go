// Package rag exposes the retrieval collaborator: similarity search over a
// knowledge base of travel guides, specified at the vector-store boundary.
package rag

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"go.uber.org/zap"
)

const (
	defaultTopK      = 3
	defaultThreshold = 0.7
)

// Retriever performs similarity search with fixed topK and score threshold.
type Retriever struct {
	store     vectorstores.VectorStore
	topK      int
	threshold float32
	logger    *zap.Logger
}

type Option func(*Retriever)

// WithTopK sets the number of passages returned.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithScoreThreshold sets the minimum similarity score, 0.0-1.0.
func WithScoreThreshold(t float32) Option {
	return func(r *Retriever) {
		r.threshold = t
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetriever creates a retriever over the given store.
func NewRetriever(store vectorstores.VectorStore, opts ...Option) *Retriever {
	r := &Retriever{
		store:     store,
		topK:      defaultTopK,
		threshold: defaultThreshold,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Retrieve returns the text of the passages most similar to query, possibly
// none.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	docs, err := r.store.SimilaritySearch(ctx, query, r.topK,
		vectorstores.WithScoreThreshold(r.threshold))
	if err != nil {
		return nil, errors.Wrap(err, "similarity search failed")
	}

	r.logger.Debug("retrieved passages",
		zap.String("query", query),
		zap.Int("count", len(docs)))

	passages := make([]string, 0, len(docs))
	for _, doc := range docs {
		passages = append(passages, doc.PageContent)
	}
	return passages, nil
}

// AddDocuments ingests passages into the underlying store.
func (r *Retriever) AddDocuments(ctx context.Context, texts []string) error {
	docs := make([]schema.Document, 0, len(texts))
	for _, t := range texts {
		docs = append(docs, schema.Document{PageContent: t})
	}
	if _, err := r.store.AddDocuments(ctx, docs); err != nil {
		return errors.Wrap(err, "add documents failed")
	}
	return nil
}
