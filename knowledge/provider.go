// Package knowledge answers "what do we know about this question" for the
// prompt builder: static workshop facts, operator-managed snippets, or both.
package knowledge

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// Snippet is one relevant piece of text returned by a Provider.
type Snippet struct {
	Title  string  `json:"title"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// Provider returns up to topK snippets relevant to query, best first.
type Provider interface {
	Search(ctx context.Context, query string, topK int) ([]Snippet, error)
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Multi merges the results of several providers. A failing provider is
// logged and skipped.
type Multi struct {
	Providers []Provider
	Log       *zap.Logger
}

func (m Multi) Search(ctx context.Context, query string, topK int) ([]Snippet, error) {
	log := m.Log
	if log == nil {
		log = zap.NewNop()
	}

	var out []Snippet
	var lastErr error
	failed := 0
	for _, p := range m.Providers {
		res, err := p.Search(ctx, query, topK)
		if err != nil {
			log.Warn("knowledge provider failed", zap.Error(err))
			lastErr = err
			failed++
			continue
		}
		out = append(out, res...)
	}
	if failed > 0 && failed == len(m.Providers) {
		return nil, lastErr
	}
	return best(out, topK), nil
}

func best(in []Snippet, topK int) []Snippet {
	sort.SliceStable(in, func(i, j int) bool { return in[i].Score > in[j].Score })
	if topK > 0 && len(in) > topK {
		in = in[:topK]
	}
	return in
}
