package scoring

import "context"

// Match is one search hit: a requirement and its similarity or
// relevance score in [0, 1].
type Match struct {
	LogicalID string  `json:"logical_id"`
	Score     float64 `json:"score"`
}

// SearchIndex is the external similarity collaborator. Duplicate and
// interpretation detection call it; the engine never implements search
// itself.
type SearchIndex interface {
	// SearchSimilar returns up to k requirements semantically close to
	// the text, best first.
	SearchSimilar(ctx context.Context, text string, k int) ([]Match, error)
	// SearchKeyword returns up to k requirements matching the text by
	// keyword, best first.
	SearchKeyword(ctx context.Context, text string, k int) ([]Match, error)
}

// NoopIndex is the default collaborator when no search backend is
// wired: it finds nothing, so duplicate and ambiguity detection fall
// back to vocabulary checks alone.
type NoopIndex struct{}

func (NoopIndex) SearchSimilar(context.Context, string, int) ([]Match, error) { return nil, nil }
func (NoopIndex) SearchKeyword(context.Context, string, int) ([]Match, error) { return nil, nil }
