package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-5, 0}), 1e-9)
}

func TestCosineZeroNormScoresZero(t *testing.T) {
	score := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})
	assert.Equal(t, 0.0, score)
	assert.False(t, math.IsNaN(score))
}

func TestCosineDimensionMismatch(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine(nil, []float32{1}))
}

func TestRankEmptyCandidates(t *testing.T) {
	assert.Empty(t, Rank([]float32{1, 0}, nil, 3))
	assert.Empty(t, Rank([]float32{1, 0}, [][]float32{}, 3))
}

func TestRankReturnsExactlyKSorted(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},        // orthogonal
		{1, 0.1},      // close
		{1, 0},        // identical direction
		{-1, 0},       // opposite
		{0.5, 0.5},    // diagonal
	}

	got := Rank(query, candidates, 3)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.Equal(t, 2, got[0].Index)
	assert.Equal(t, 1, got[1].Index)
}

func TestRankKLargerThanCandidates(t *testing.T) {
	got := Rank([]float32{1}, [][]float32{{1}, {2}}, 10)
	assert.Len(t, got, 2)
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	query := []float32{1, 0}
	// Candidates 0 and 2 both score exactly 1.
	candidates := [][]float32{
		{2, 0},
		{0, 1},
		{3, 0},
	}
	got := Rank(query, candidates, 3)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 2, got[1].Index)
	assert.Equal(t, 1, got[2].Index)
}

func TestRankZeroVectorRanksLast(t *testing.T) {
	query := []float32{1, 1}
	candidates := [][]float32{
		{0, 0},
		{1, 1},
	}
	got := Rank(query, candidates, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, 0, got[1].Index)
}

func TestAbove(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{1, 0},     // 1.0
		{1, 1},     // ~0.707
		{0, 1},     // 0
		{1, 0.05},  // ~0.999
	}

	got := Above(query, candidates, 0.6)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 1, got[1].Index)
	assert.Equal(t, 3, got[2].Index)

	assert.Empty(t, Above(query, candidates, 1.1))
}
