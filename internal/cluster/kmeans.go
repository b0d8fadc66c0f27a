// Package cluster groups segment embeddings with k-means and derives
// human-readable labels for each group via TF-IDF keywords.
package cluster

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	// Fixed seed keeps cluster assignments reproducible across runs.
	defaultSeed   = 42
	maxIterations = 100
)

// Result holds a k-means clustering of the input vectors.
type Result struct {
	K         int
	Labels    []int       // Labels[i] is the cluster of vectors[i].
	Centroids [][]float64 // One centroid per cluster.
}

// KMeans clusters the vectors into at most k groups. k is reduced to the
// number of vectors when there are fewer samples than requested clusters.
func KMeans(vectors [][]float32, k int) (*Result, error) {
	n := len(vectors)
	if n == 0 {
		return nil, fmt.Errorf("no vectors to cluster")
	}
	if k < 1 {
		return nil, fmt.Errorf("invalid cluster count %d", k)
	}
	if k > n {
		k = n
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	if dim == 0 {
		return nil, fmt.Errorf("zero-dimensional vectors")
	}

	rng := rand.New(rand.NewPCG(defaultSeed, 0))
	centroids := seedCentroids(vectors, k, rng)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best := nearestCentroid(v, centroids)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}

		// Recompute centroids as member means.
		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := labels[i]
			counts[c]++
			for d, x := range v {
				next[c][d] += float64(x)
			}
		}
		for c := range next {
			if counts[c] == 0 {
				// Reseed an empty cluster with the point farthest from
				// its current centroid.
				next[c] = toFloat64(vectors[farthestPoint(vectors, labels, centroids)])
				continue
			}
			for d := range next[c] {
				next[c][d] /= float64(counts[c])
			}
		}
		centroids = next

		if !changed {
			break
		}
	}

	return &Result{K: k, Labels: labels, Centroids: centroids}, nil
}

// seedCentroids picks k initial centroids with k-means++ weighting: each
// subsequent centroid is sampled proportionally to its squared distance from
// the nearest already-chosen centroid.
func seedCentroids(vectors [][]float32, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, toFloat64(vectors[rng.IntN(len(vectors))]))

	dists := make([]float64, len(vectors))
	for len(centroids) < k {
		var sum float64
		for i, v := range vectors {
			d := math.MaxFloat64
			for _, c := range centroids {
				if dd := sqDist(v, c); dd < d {
					d = dd
				}
			}
			dists[i] = d
			sum += d
		}

		if sum == 0 {
			// All points coincide with existing centroids; pick uniformly.
			centroids = append(centroids, toFloat64(vectors[rng.IntN(len(vectors))]))
			continue
		}

		target := rng.Float64() * sum
		var acc float64
		pick := len(vectors) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, toFloat64(vectors[pick]))
	}
	return centroids
}

func nearestCentroid(v []float32, centroids [][]float64) int {
	best, bestDist := 0, math.MaxFloat64
	for c, centroid := range centroids {
		if d := sqDist(v, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func farthestPoint(vectors [][]float32, labels []int, centroids [][]float64) int {
	best, bestDist := 0, -1.0
	for i, v := range vectors {
		if d := sqDist(v, centroids[labels[i]]); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func sqDist(v []float32, c []float64) float64 {
	var sum float64
	for d := range v {
		diff := float64(v[d]) - c[d]
		sum += diff * diff
	}
	return sum
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
