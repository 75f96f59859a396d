package library

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Retrieve embeds the query and returns the k most similar chunks by cosine
// similarity. Returns nil when the user has no knowledge base.
func (s *Service) Retrieve(ctx context.Context, userID, query string, k int) ([]Chunk, error) {
	if k <= 0 {
		k = 4
	}

	chunks, err := s.repo.ListChunks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	type scored struct {
		chunk Chunk
		score float64
	}
	ranked := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		ranked = append(ranked, scored{chunk: c, score: cosine(qvec, c.Embedding)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]Chunk, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, r.chunk)
	}
	return out, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
