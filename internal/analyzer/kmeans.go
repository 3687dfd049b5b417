package analyzer

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// kmeansParams controls one clustering run
type kmeansParams struct {
	K             int
	MaxIterations int
	Epsilon       float64
	Attempts      int
}

// kmeansResult is the best attempt of a clustering run. Centers that ended
// with no members keep their last position and have a zero count.
type kmeansResult struct {
	Centers [][]float64
	Counts  []int
	Labels  []int
	Inertia float64
}

// runKMeans clusters samples with randomly placed initial centers, keeping
// the attempt with the lowest inertia. The caller owns rng.
func runKMeans(samples [][]float64, p kmeansParams, rng *rand.Rand) kmeansResult {
	best := kmeansResult{Inertia: math.Inf(1)}
	if len(samples) == 0 || p.K < 1 {
		return best
	}

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	lo, hi := sampleRange(samples)

	for attempt := 0; attempt < attempts; attempt++ {
		res := kmeansAttempt(samples, p, lo, hi, rng)
		if res.Inertia < best.Inertia {
			best = res
		}
	}
	return best
}

func kmeansAttempt(samples [][]float64, p kmeansParams, lo, hi []float64, rng *rand.Rand) kmeansResult {
	dims := len(lo)
	centers := make([][]float64, p.K)
	for i := range centers {
		c := make([]float64, dims)
		for d := range c {
			c[d] = lo[d] + rng.Float64()*(hi[d]-lo[d])
		}
		centers[i] = c
	}

	labels := make([]int, len(samples))
	for iter := 0; iter < p.MaxIterations; iter++ {
		assignLabels(samples, centers, labels)
		next, counts := updateCenters(samples, labels, centers)
		reseedEmpty(samples, labels, next, counts)

		shift := 0.0
		for i := range centers {
			shift = math.Max(shift, floats.Distance(centers[i], next[i], 2))
		}
		centers = next
		if shift < p.Epsilon {
			break
		}
	}

	inertia := assignLabels(samples, centers, labels)
	centers, counts := updateCenters(samples, labels, centers)
	return kmeansResult{
		Centers: centers,
		Counts:  counts,
		Labels:  labels,
		Inertia: inertia,
	}
}

// assignLabels moves every sample to its nearest center (lowest index on
// ties) and returns the summed squared distance.
func assignLabels(samples, centers [][]float64, labels []int) float64 {
	var inertia float64
	for i, s := range samples {
		bestIdx, bestDist := 0, math.Inf(1)
		for j, c := range centers {
			if d := squaredDistance(s, c); d < bestDist {
				bestIdx, bestDist = j, d
			}
		}
		labels[i] = bestIdx
		inertia += bestDist
	}
	return inertia
}

// updateCenters returns the mean of each cluster. Empty clusters keep the
// position they had in prev.
func updateCenters(samples [][]float64, labels []int, prev [][]float64) ([][]float64, []int) {
	k := len(prev)
	sums := make([][]float64, k)
	for i := range sums {
		sums[i] = make([]float64, len(prev[i]))
	}
	counts := make([]int, k)
	for i, s := range samples {
		floats.Add(sums[labels[i]], s)
		counts[labels[i]]++
	}

	for i := range sums {
		if counts[i] == 0 {
			copy(sums[i], prev[i])
			continue
		}
		floats.Scale(1/float64(counts[i]), sums[i])
	}
	return sums, counts
}

// reseedEmpty moves each empty center onto the sample of the largest
// cluster that lies farthest from that cluster's center.
func reseedEmpty(samples [][]float64, labels []int, centers [][]float64, counts []int) {
	for j := range centers {
		if counts[j] > 0 {
			continue
		}
		largest := floats.MaxIdx(intsToFloats(counts))
		if counts[largest] < 2 {
			return
		}

		farIdx, farDist := -1, -1.0
		for i, s := range samples {
			if labels[i] != largest {
				continue
			}
			if d := squaredDistance(s, centers[largest]); d > farDist {
				farIdx, farDist = i, d
			}
		}
		copy(centers[j], samples[farIdx])
		labels[farIdx] = j
		counts[largest]--
		counts[j]++
	}
}

func sampleRange(samples [][]float64) (lo, hi []float64) {
	dims := len(samples[0])
	lo = make([]float64, dims)
	hi = make([]float64, dims)
	copy(lo, samples[0])
	copy(hi, samples[0])
	for _, s := range samples[1:] {
		for d := 0; d < dims; d++ {
			lo[d] = math.Min(lo[d], s[d])
			hi[d] = math.Max(hi[d], s[d])
		}
	}
	return lo, hi
}

// squaredDistance is the assignment hot path; floats.Distance takes a
// square root we do not need there.
func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func intsToFloats(in []int) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
