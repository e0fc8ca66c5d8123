package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDBSCANGroupsCosineCloseVectors(t *testing.T) {
	// Two nearly parallel vectors plus one orthogonal outlier.
	vectors := [][]float64{
		{1, 0, 0},
		{0.98, 0.05, 0},
		{0, 0, 1},
	}

	labels := DBSCAN(vectors, Config{Eps: 0.3, MinPoints: 2})

	require.Equal(t, labels[0], labels[1])
	require.NotEqual(t, Noise, labels[0])
	require.Equal(t, Noise, labels[2])
}

func TestDBSCANAllNoiseWhenVectorsDiverge(t *testing.T) {
	vectors := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}

	labels := DBSCAN(vectors, Config{Eps: 0.3, MinPoints: 2})

	for _, label := range labels {
		require.Equal(t, Noise, label)
	}
}

func TestDBSCANLabelsAreDeterministic(t *testing.T) {
	vectors := [][]float64{
		{1, 0},
		{0.99, 0.01},
		{0, 1},
		{0.01, 0.99},
	}
	cfg := Config{Eps: 0.2, MinPoints: 2}

	first := DBSCAN(vectors, cfg)
	second := DBSCAN(vectors, cfg)

	require.Equal(t, first, second)
	require.Equal(t, 0, first[0], "first discovered cluster gets label 0")
	require.Equal(t, 1, first[2])
}

func TestCosineDistance(t *testing.T) {
	require.InDelta(t, 0, CosineDistance([]float64{1, 0}, []float64{2, 0}), 1e-9)
	require.InDelta(t, 1, CosineDistance([]float64{1, 0}, []float64{0, 1}), 1e-9)
	require.Equal(t, 1.0, CosineDistance(nil, []float64{1}))
	require.Equal(t, 1.0, CosineDistance([]float64{0, 0}, []float64{0, 0}))
}

func TestLargestBreaksTiesTowardLowestLabel(t *testing.T) {
	label, size := Largest([]int{0, 0, 1, 1, Noise})
	require.Equal(t, 0, label)
	require.Equal(t, 2, size)

	label, size = Largest([]int{Noise, Noise})
	require.Equal(t, Noise, label)
	require.Equal(t, 0, size)
}
