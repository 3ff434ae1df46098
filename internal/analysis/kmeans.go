package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Clustering is the result of KMeans.
type Clustering struct {
	Labels     []int
	Centroids  [][]float64
	Sizes      []int
	Inertia    float64 // sum of squared distances to the assigned centroid
	Iterations int
}

// KMeans partitions rows into k groups ("families" of parameter sets) with
// k-means++ seeding followed by Lloyd iterations.
func KMeans(rows [][]float64, k int, seed uint64, maxIter int) (*Clustering, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	if k < 1 || k > len(rows) {
		return nil, fmt.Errorf("analysis: k=%d invalid for %d rows", k, len(rows))
	}
	dim := len(rows[0])
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("analysis: row %d has %d values, want %d", i, len(r), dim)
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	c := &Clustering{
		Labels:    make([]int, len(rows)),
		Centroids: seedCentroids(rng, rows, k),
		Sizes:     make([]int, k),
	}

	for c.Iterations = 1; c.Iterations <= maxIter; c.Iterations++ {
		changed := c.assign(rows)
		c.update(rows, dim)
		if !changed && c.Iterations > 1 {
			break
		}
	}
	c.Iterations = min(c.Iterations, maxIter)
	c.assign(rows)
	return c, nil
}

func seedCentroids(rng *rand.Rand, rows [][]float64, k int) [][]float64 {
	centroids := [][]float64{append([]float64(nil), rows[rng.IntN(len(rows))]...)}
	d2 := make([]float64, len(rows))
	for len(centroids) < k {
		total := 0.0
		for i, r := range rows {
			d2[i] = math.Inf(1)
			for _, cen := range centroids {
				d2[i] = math.Min(d2[i], sqDist(r, cen))
			}
			total += d2[i]
		}
		pick := 0
		if total > 0 {
			target := rng.Float64() * total
			for pick = 0; pick < len(rows)-1; pick++ {
				target -= d2[pick]
				if target <= 0 {
					break
				}
			}
		} else {
			pick = rng.IntN(len(rows))
		}
		centroids = append(centroids, append([]float64(nil), rows[pick]...))
	}
	return centroids
}

func (c *Clustering) assign(rows [][]float64) bool {
	changed := false
	c.Inertia = 0
	for j := range c.Sizes {
		c.Sizes[j] = 0
	}
	for i, r := range rows {
		best, bestD := 0, math.Inf(1)
		for j, cen := range c.Centroids {
			if d := sqDist(r, cen); d < bestD {
				best, bestD = j, d
			}
		}
		if c.Labels[i] != best {
			changed = true
		}
		c.Labels[i] = best
		c.Sizes[best]++
		c.Inertia += bestD
	}
	return changed
}

func (c *Clustering) update(rows [][]float64, dim int) {
	for j := range c.Centroids {
		if c.Sizes[j] == 0 {
			continue
		}
		sum := make([]float64, dim)
		for i, r := range rows {
			if c.Labels[i] == j {
				floats.Add(sum, r)
			}
		}
		floats.Scale(1/float64(c.Sizes[j]), sum)
		c.Centroids[j] = sum
	}
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
