// Package features extracts the visual features that drive the music
// mapping: brightness, contrast, edge density, texture energy and a
// dominant-color palette with spatial information.
package features

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	apperrors "github.com/newrealmco/image2sound/internal/errors"
)

// PaletteSize is the number of dominant colors extracted per image.
const PaletteSize = 5

// analysisMaxDim bounds the working resolution; larger images are
// downsampled before analysis so clustering stays fast.
const analysisMaxDim = 128

// edgeThreshold is the normalized gradient magnitude above which a pixel
// counts as an edge.
const edgeThreshold = 0.25

// Color is one dominant palette entry.
type Color struct {
	RGB        [3]uint8
	Proportion float64    // fraction of pixels in this cluster, 0-1
	Centroid   [2]float64 // mean pixel position, normalized 0-1 (x, y)
}

// Features is the fixed record handed to the mapping stage.
type Features struct {
	Brightness      float64 // mean luma, 0-1
	Contrast        float64 // luma standard deviation, 0-1
	EdgeDensity     float64 // fraction of edge pixels, 0-1
	TextureEnergy   float64 // mean normalized gradient magnitude, 0-1
	PaletteVariance float64 // variance of palette colors around their mean
	Palette         []Color // PaletteSize colors, descending proportion
	Seed            uint32  // deterministic seed derived from the file bytes
}

// Extract loads an image file and computes its feature record. The seed
// is derived from the raw file bytes, so the same file always produces
// the same composition.
func Extract(path string) (*Features, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, apperrors.ErrFileNotFound)
		}
		return nil, fmt.Errorf("read image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, apperrors.ErrUnsupportedImage)
	}

	sum := sha256.Sum256(data)
	seed := binary.BigEndian.Uint32(sum[:4])
	return ExtractImage(img, seed), nil
}

// ExtractImage computes the feature record for an already decoded image.
// Exposed separately so tests and the batch demo can analyze in-memory
// images.
func ExtractImage(img image.Image, seed uint32) *Features {
	px := samplePixels(img)

	luma := make([]float64, len(px.r))
	var lumaSum float64
	for i := range luma {
		luma[i] = 0.299*px.r[i] + 0.587*px.g[i] + 0.114*px.b[i]
		lumaSum += luma[i]
	}
	brightness := lumaSum / float64(len(luma))

	var varSum float64
	for _, l := range luma {
		d := l - brightness
		varSum += d * d
	}
	contrast := math.Sqrt(varSum / float64(len(luma)))

	edgeDensity, textureEnergy := gradientStats(luma, px.w, px.h)

	palette := clusterPalette(px, seed)

	return &Features{
		Brightness:      brightness,
		Contrast:        contrast,
		EdgeDensity:     edgeDensity,
		TextureEnergy:   textureEnergy,
		PaletteVariance: paletteVariance(palette),
		Palette:         palette,
		Seed:            seed,
	}
}

// pixelGrid is the downsampled working copy of the image, channels in
// 0-1 floats plus the grid dimensions.
type pixelGrid struct {
	r, g, b []float64
	xs, ys  []float64 // normalized pixel positions
	w, h    int
}

// samplePixels downsamples the image to at most analysisMaxDim on the
// longer side using nearest-neighbor (adequate for statistics).
func samplePixels(img image.Image) *pixelGrid {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	w, h := srcW, srcH
	if w > h && w > analysisMaxDim {
		h = h * analysisMaxDim / w
		w = analysisMaxDim
	} else if h > analysisMaxDim {
		w = w * analysisMaxDim / h
		h = analysisMaxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	grid := &pixelGrid{
		r:  make([]float64, w*h),
		g:  make([]float64, w*h),
		b:  make([]float64, w*h),
		xs: make([]float64, w*h),
		ys: make([]float64, w*h),
		w:  w,
		h:  h,
	}
	for y := 0; y < h; y++ {
		srcY := bounds.Min.Y + y*srcH/h
		for x := 0; x < w; x++ {
			srcX := bounds.Min.X + x*srcW/w
			r, g, b, _ := img.At(srcX, srcY).RGBA()
			i := y*w + x
			grid.r[i] = float64(r) / 65535.0
			grid.g[i] = float64(g) / 65535.0
			grid.b[i] = float64(b) / 65535.0
			grid.xs[i] = float64(x) / float64(w)
			grid.ys[i] = float64(y) / float64(h)
		}
	}
	return grid
}

// gradientStats computes edge density (fraction of pixels whose Sobel
// gradient magnitude exceeds the threshold) and texture energy (mean
// normalized magnitude).
func gradientStats(luma []float64, w, h int) (edgeDensity, textureEnergy float64) {
	if w < 3 || h < 3 {
		return 0, 0
	}
	at := func(x, y int) float64 { return luma[y*w+x] }

	edges := 0
	var magSum float64
	count := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			// Max Sobel response is 4 per axis; normalize to 0-1.
			mag := math.Hypot(gx, gy) / (4 * math.Sqrt2)
			if mag > 1 {
				mag = 1
			}
			magSum += mag
			if mag > edgeThreshold {
				edges++
			}
			count++
		}
	}
	return float64(edges) / float64(count), magSum / float64(count)
}

// paletteVariance measures how spread the palette colors are around
// their mean, normalized to 0-1.
func paletteVariance(palette []Color) float64 {
	if len(palette) == 0 {
		return 0
	}
	var mean [3]float64
	for _, c := range palette {
		for ch := 0; ch < 3; ch++ {
			mean[ch] += float64(c.RGB[ch]) / 255.0
		}
	}
	for ch := range mean {
		mean[ch] /= float64(len(palette))
	}
	var v float64
	for _, c := range palette {
		for ch := 0; ch < 3; ch++ {
			d := float64(c.RGB[ch])/255.0 - mean[ch]
			v += d * d
		}
	}
	return v / float64(len(palette)*3)
}
