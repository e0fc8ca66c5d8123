// Package cluster implements density-based clustering over embedding vectors.
package cluster

import "math"

// Noise is the label assigned to points that belong to no cluster.
const Noise = -1

// Config contains the DBSCAN parameters.
type Config struct {
	// Eps is the neighbourhood radius in cosine distance.
	// Domain-tuned, not derived; exposed as configuration.
	Eps float64

	// MinPoints is the minimum neighbourhood size (the point itself
	// included) required to form a dense region.
	MinPoints int
}

// DefaultConfig returns the parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		Eps:       0.6,
		MinPoints: 2,
	}
}

// DBSCAN labels each vector with a cluster id, or Noise for unclustered
// points. Labels are assigned in ascending order as clusters are discovered,
// so output is deterministic for a fixed input ordering.
func DBSCAN(vectors [][]float64, cfg Config) []int {
	if cfg.Eps <= 0 || cfg.MinPoints <= 0 {
		cfg = DefaultConfig()
	}

	labels := make([]int, len(vectors))
	for i := range labels {
		labels[i] = Noise
	}

	visited := make([]bool, len(vectors))
	current := 0

	for i := range vectors {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbours := regionQuery(vectors, i, cfg.Eps)
		if len(neighbours) < cfg.MinPoints {
			continue
		}

		labels[i] = current
		expandCluster(vectors, neighbours, labels, visited, current, cfg)
		current++
	}

	return labels
}

func expandCluster(vectors [][]float64, seeds []int, labels []int, visited []bool, label int, cfg Config) {
	for idx := 0; idx < len(seeds); idx++ {
		point := seeds[idx]

		if !visited[point] {
			visited[point] = true
			neighbours := regionQuery(vectors, point, cfg.Eps)
			if len(neighbours) >= cfg.MinPoints {
				seeds = append(seeds, neighbours...)
			}
		}

		if labels[point] == Noise {
			labels[point] = label
		}
	}
}

func regionQuery(vectors [][]float64, point int, eps float64) []int {
	var neighbours []int
	for i := range vectors {
		if CosineDistance(vectors[point], vectors[i]) <= eps {
			neighbours = append(neighbours, i)
		}
	}
	return neighbours
}

// CosineDistance returns 1 - cosine similarity. Zero or mismatched vectors
// are treated as maximally distant.
func CosineDistance(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// Largest returns the label of the biggest non-noise cluster and its size.
// Ties break toward the lowest label. Returns (Noise, 0) when every point is
// noise.
func Largest(labels []int) (int, int) {
	counts := make(map[int]int)
	maxLabel := Noise
	for _, label := range labels {
		if label == Noise {
			continue
		}
		counts[label]++
		if label > maxLabel {
			maxLabel = label
		}
	}

	best, bestSize := Noise, 0
	for label := 0; label <= maxLabel; label++ {
		if counts[label] > bestSize {
			best, bestSize = label, counts[label]
		}
	}

	return best, bestSize
}
