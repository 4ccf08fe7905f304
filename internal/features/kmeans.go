package features

import (
	"math"
	"math/rand"
	"sort"
)

// kmeans iteration cap; palettes converge well before this.
const kmeansMaxIter = 20

// clusterPalette runs k-means over the RGB pixels and returns the
// PaletteSize dominant colors with their pixel proportions and spatial
// centroids, ordered by descending proportion. Initialization is seeded
// from the image seed so the palette is deterministic per file.
func clusterPalette(px *pixelGrid, seed uint32) []Color {
	n := len(px.r)
	k := PaletteSize
	if n < k {
		k = n
	}
	if k == 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(int64(seed)))

	// k-means++ style seeding: first center random, the rest biased
	// toward far-away pixels.
	centers := make([][3]float64, 0, k)
	first := rng.Intn(n)
	centers = append(centers, [3]float64{px.r[first], px.g[first], px.b[first]})
	dist := make([]float64, n)
	for len(centers) < k {
		var total float64
		for i := 0; i < n; i++ {
			d := math.Inf(1)
			for _, c := range centers {
				d = math.Min(d, colorDist2(px, i, c))
			}
			dist[i] = d
			total += d
		}
		if total == 0 {
			// Degenerate image (single color): duplicate the center.
			centers = append(centers, centers[0])
			continue
		}
		target := rng.Float64() * total
		idx := 0
		for acc := 0.0; idx < n-1; idx++ {
			acc += dist[idx]
			if acc >= target {
				break
			}
		}
		centers = append(centers, [3]float64{px.r[idx], px.g[idx], px.b[idx]})
	}

	assign := make([]int, n)
	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			best, bestD := 0, math.Inf(1)
			for ci, c := range centers {
				if d := colorDist2(px, i, c); d < bestD {
					best, bestD = ci, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		sums := make([][3]float64, k)
		counts := make([]int, k)
		for i, ci := range assign {
			sums[ci][0] += px.r[i]
			sums[ci][1] += px.g[i]
			sums[ci][2] += px.b[i]
			counts[ci]++
		}
		for ci := range centers {
			if counts[ci] == 0 {
				continue
			}
			for ch := 0; ch < 3; ch++ {
				centers[ci][ch] = sums[ci][ch] / float64(counts[ci])
			}
		}
		if !changed {
			break
		}
	}

	// Collect proportions and spatial centroids.
	counts := make([]int, k)
	var xs, ys = make([]float64, k), make([]float64, k)
	for i, ci := range assign {
		counts[ci]++
		xs[ci] += px.xs[i]
		ys[ci] += px.ys[i]
	}

	palette := make([]Color, 0, PaletteSize)
	for ci, c := range centers {
		col := Color{
			RGB: [3]uint8{
				uint8(clamp01(c[0]) * 255),
				uint8(clamp01(c[1]) * 255),
				uint8(clamp01(c[2]) * 255),
			},
			Proportion: float64(counts[ci]) / float64(n),
		}
		if counts[ci] > 0 {
			col.Centroid = [2]float64{xs[ci] / float64(counts[ci]), ys[ci] / float64(counts[ci])}
		} else {
			col.Centroid = [2]float64{0.5, 0.5}
		}
		palette = append(palette, col)
	}

	sort.SliceStable(palette, func(i, j int) bool {
		return palette[i].Proportion > palette[j].Proportion
	})

	// Pad degenerate palettes (tiny images) up to PaletteSize by
	// repeating the dominant color so downstream voice derivation always
	// sees a full record.
	for len(palette) < PaletteSize {
		palette = append(palette, palette[0])
	}
	return palette
}

func colorDist2(px *pixelGrid, i int, c [3]float64) float64 {
	dr := px.r[i] - c[0]
	dg := px.g[i] - c[1]
	db := px.b[i] - c[2]
	return dr*dr + dg*dg + db*db
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
