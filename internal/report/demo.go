package report

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
)

// demoSize is the edge length of generated demo images.
const demoSize = 200

// CreateDemoImages writes a set of synthetic images with distinct visual
// characteristics into dir and returns their paths. Used by the batch
// demo when no input images are supplied.
func CreateDemoImages(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create demo dir: %w", err)
	}

	demos := []struct {
		name string
		fill func(x, y int) color.RGBA
	}{
		{"bright_gradient", func(x, y int) color.RGBA {
			return color.RGBA{uint8(255 * x / demoSize), uint8(255 * y / demoSize), 200, 255}
		}},
		{"dark_moody", func(x, y int) color.RGBA {
			return color.RGBA{
				uint8(50 + 30*x/demoSize),
				uint8(20 + 40*y/demoSize),
				uint8(80 + 20*(x+y)/(2*demoSize)),
				255,
			}
		}},
		{"geometric_contrast", func(x, y int) color.RGBA {
			if (x/40+y/40)%2 == 0 {
				return color.RGBA{255, 255, 255, 255}
			}
			return color.RGBA{0, 0, 0, 255}
		}},
		{"warm_sunset", func(x, y int) color.RGBA {
			return color.RGBA{
				uint8(255 * (2*demoSize - y) / (2 * demoSize)),
				uint8(150 * (3*demoSize/2 - y) / (3 * demoSize / 2)),
				uint8(50 + 100*y/demoSize),
				255,
			}
		}},
		{"cool_ocean", func(x, y int) color.RGBA {
			return color.RGBA{
				uint8(30 + 50*y/demoSize),
				uint8(100 + 100*x/demoSize),
				uint8(180 + 50*(demoSize-y)/demoSize),
				255,
			}
		}},
	}

	paths := make([]string, 0, len(demos))
	for _, d := range demos {
		img := image.NewRGBA(image.Rect(0, 0, demoSize, demoSize))
		for y := 0; y < demoSize; y++ {
			for x := 0; x < demoSize; x++ {
				img.Set(x, y, d.fill(x, y))
			}
		}

		path := filepath.Join(dir, d.name+".jpg")
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
			f.Close()
			return nil, fmt.Errorf("encode %s: %w", path, err)
		}
		f.Close()
		paths = append(paths, path)
	}
	return paths, nil
}
