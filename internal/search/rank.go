// Package search implements the semantic ranking used by entry search, goal
// progress detection and summary filtering: a brute-force cosine-similarity
// scan over a user's embeddings, O(n*d) per query.
package search

import (
	"math"
	"sort"
)

// Result pairs a candidate's position in the input slice with its similarity
// to the query.
type Result struct {
	Index int
	Score float64
}

// Cosine returns dot(a,b)/(|a||b|). A zero-norm or dimension-mismatched
// operand scores 0 so it ranks last instead of producing NaN.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every candidate against the query and returns the top k results
// in non-increasing score order. Ties keep the candidates' input order. An
// empty candidate set returns an empty slice.
func Rank(query []float32, candidates [][]float32, k int) []Result {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	results := make([]Result, len(candidates))
	for i, cand := range candidates {
		results[i] = Result{Index: i, Score: Cosine(query, cand)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

// Above filters candidates whose similarity to the query strictly exceeds the
// threshold, preserving input order.
func Above(query []float32, candidates [][]float32, threshold float64) []Result {
	var results []Result
	for i, cand := range candidates {
		if score := Cosine(query, cand); score > threshold {
			results = append(results, Result{Index: i, Score: score})
		}
	}
	return results
}
