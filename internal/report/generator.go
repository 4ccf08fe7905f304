// Package report runs the batch demo: it renders a set of images across
// all styles and emits a CSV metadata table plus an HTML index of the
// results.
package report

import (
	"encoding/csv"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/newrealmco/image2sound/internal/mapping"
	"github.com/newrealmco/image2sound/internal/pipeline"
)

// Entry holds the metadata for one rendered image/style pair
type Entry struct {
	Image     string
	Style     string
	Root      string
	Mode      string
	Tempo     float64
	Intensity float64
	Voices    int
	Notes     int
	Seconds   float64
	WavPath   string
	Err       string
}

// Generator runs batch renders and writes the report artifacts
type Generator struct {
	outDir   string
	duration float64
}

// NewGenerator creates a batch report generator writing into outDir
func NewGenerator(outDir string, duration float64) *Generator {
	return &Generator{outDir: outDir, duration: duration}
}

// Run renders every image with every style and writes metadata.csv and
// index.html into the output directory. Individual render failures are
// recorded per entry, not fatal for the batch.
func (g *Generator) Run(imagePaths []string) ([]Entry, error) {
	if err := os.MkdirAll(g.outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var entries []Entry
	for _, imgPath := range imagePaths {
		for _, style := range mapping.Styles {
			entries = append(entries, g.renderOne(imgPath, style))
		}
	}

	if err := g.writeCSV(entries); err != nil {
		return entries, err
	}
	if err := g.writeHTML(entries); err != nil {
		return entries, err
	}
	return entries, nil
}

// renderOne processes a single image/style combination
func (g *Generator) renderOne(imgPath string, style mapping.Style) Entry {
	base := strings.TrimSuffix(filepath.Base(imgPath), filepath.Ext(imgPath))
	wavName := safeFilename(fmt.Sprintf("%s_%s.wav", base, style))
	entry := Entry{
		Image:   filepath.Base(imgPath),
		Style:   string(style),
		WavPath: wavName,
	}

	cfg := pipeline.DefaultConfig()
	cfg.InputPath = imgPath
	cfg.OutputPath = filepath.Join(g.outDir, wavName)
	cfg.Style = string(style)
	cfg.Duration = g.duration
	cfg.UseCache = false

	result, err := pipeline.NewOrchestrator(os.Stdout, false).Execute(cfg)
	if err != nil {
		entry.Err = err.Error()
		return entry
	}

	entry.Root = result.Root
	entry.Mode = result.Mode
	entry.Tempo = result.Tempo
	entry.Intensity = result.Intensity
	entry.Voices = result.Voices
	entry.Notes = result.Notes
	entry.Seconds = result.AudioSecs
	return entry
}

// writeCSV emits metadata.csv for downstream analysis
func (g *Generator) writeCSV(entries []Entry) error {
	f, err := os.Create(filepath.Join(g.outDir, "metadata.csv"))
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"image", "style", "root", "mode", "tempo", "intensity", "voices", "notes", "seconds", "wav", "error"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Image, e.Style, e.Root, e.Mode,
			fmt.Sprintf("%.0f", e.Tempo),
			fmt.Sprintf("%.3f", e.Intensity),
			fmt.Sprintf("%d", e.Voices),
			fmt.Sprintf("%d", e.Notes),
			fmt.Sprintf("%.2f", e.Seconds),
			e.WavPath, e.Err,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeHTML emits a small index page with audio players per render
func (g *Generator) writeHTML(entries []Entry) error {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n<title>image2sound batch demo</title>\n")
	sb.WriteString("<style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:6px 10px}</style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(fmt.Sprintf("<h1>image2sound batch demo</h1>\n<p>Generated %s</p>\n", time.Now().Format(time.RFC1123)))
	sb.WriteString("<table>\n<tr><th>Image</th><th>Style</th><th>Key</th><th>Tempo</th><th>Voices</th><th>Notes</th><th>Audio</th></tr>\n")

	for _, e := range entries {
		if e.Err != "" {
			sb.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td colspan=\"5\">failed: %s</td></tr>\n",
				html.EscapeString(e.Image), html.EscapeString(e.Style), html.EscapeString(e.Err)))
			continue
		}
		sb.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%s %s</td><td>%.0f</td><td>%d</td><td>%d</td>",
			html.EscapeString(e.Image), html.EscapeString(e.Style),
			html.EscapeString(e.Root), html.EscapeString(e.Mode), e.Tempo, e.Voices, e.Notes))
		sb.WriteString(fmt.Sprintf("<td><audio controls src=\"%s\"></audio></td></tr>\n", html.EscapeString(e.WavPath)))
	}

	sb.WriteString("</table>\n</body>\n</html>\n")
	return os.WriteFile(filepath.Join(g.outDir, "index.html"), []byte(sb.String()), 0644)
}

// safeFilename replaces characters that are awkward in filenames
func safeFilename(name string) string {
	r := strings.NewReplacer("/", "-", " ", "_", "#", "sharp", "'", "")
	return r.Replace(name)
}
