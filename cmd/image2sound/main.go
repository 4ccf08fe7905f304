package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/newrealmco/image2sound/internal/cache"
	"github.com/newrealmco/image2sound/internal/mapping"
	"github.com/newrealmco/image2sound/internal/pipeline"
	"github.com/newrealmco/image2sound/internal/report"
	"github.com/newrealmco/image2sound/internal/server"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "image2sound",
	Short: "Turn images into music",
	Long: `image2sound analyzes an image's colors, brightness and texture and
composes a short multi-voice piece of music from them.

Pipeline: image → feature extraction → musical mapping → composition → WAV`,
	Version: version,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a single image to a WAV file",
	Long: `Render one image to audio.

Examples:
  image2sound render --input photo.jpg
  image2sound render -i photo.jpg -o piece.wav --style cinematic --duration 30
  image2sound render -i photo.jpg --seed 42 --dump`,
	RunE: runRender,
}

var batchCmd = &cobra.Command{
	Use:   "batch [images...]",
	Short: "Render a batch of images across all styles",
	Long: `Render every given image with every style and write a report with
a metadata CSV and an HTML index of the results. With no arguments a
set of built-in demo images is generated and used.

Examples:
  image2sound batch
  image2sound batch --out demo_output photos/*.jpg`,
	RunE: runBatch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Long: `Start the web interface for uploading images and playing the
rendered audio in the browser.

Example:
  image2sound serve --port 8080`,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("image2sound %s\n", version)
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the render cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached renders",
	RunE:  runCacheClear,
}

var (
	inputPath  string
	outputPath string
	style      string
	duration   float64
	seed       int64
	sampleRate int
	noCache    bool
	cacheDir   string
	dumpNotes  bool
	verbose    bool

	batchOut      string
	batchDuration float64

	port int
)

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	// Accept underscores in flag names (e.g. --sample_rate).
	rootCmd.PersistentFlags().SetNormalizeFunc(normalizeFlag)

	renderCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input image (PNG, JPEG or GIF)")
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output WAV path (default: <image>.wav)")
	renderCmd.Flags().StringVarP(&style, "style", "s", "neutral", "Render style (neutral, ambient, cinematic, rock)")
	renderCmd.Flags().Float64VarP(&duration, "duration", "d", 20, "Target duration in seconds")
	renderCmd.Flags().Int64Var(&seed, "seed", 0, "Override the image-derived random seed")
	renderCmd.Flags().IntVar(&sampleRate, "sample-rate", 44100, "Output sample rate in Hz")
	renderCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the render cache")
	renderCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory (default: .cache/renders)")
	renderCmd.Flags().BoolVar(&dumpNotes, "dump", false, "Dump the composed parameters and notes instead of rendering")
	renderCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	batchCmd.Flags().StringVar(&batchOut, "out", "demo_output", "Output directory for the batch report")
	batchCmd.Flags().Float64Var(&batchDuration, "duration", 12, "Per-render duration in seconds")

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().IntVar(&sampleRate, "sample-rate", 44100, "Render sample rate in Hz")

	cacheClearCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory (default: .cache/renders)")
}

func normalizeFlag(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func runRender(cmd *cobra.Command, args []string) error {
	if inputPath == "" {
		return fmt.Errorf("--input is required")
	}

	cfg := pipeline.DefaultConfig()
	cfg.InputPath = inputPath
	cfg.OutputPath = outputPath
	cfg.Style = style
	cfg.Duration = duration
	cfg.Seed = seed
	cfg.SampleRate = sampleRate
	cfg.UseCache = !noCache
	cfg.CacheDir = cacheDir

	if cfg.OutputPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		cfg.OutputPath = base + ".wav"
	}

	orch := pipeline.NewOrchestrator(os.Stdout, verbose)

	if dumpNotes {
		params, notes, err := orch.ComposeOnly(cfg)
		if err != nil {
			return err
		}
		spew.Fdump(os.Stdout, params)
		spew.Fdump(os.Stdout, notes)
		return nil
	}

	result, err := orch.Execute(cfg)
	if err != nil {
		return err
	}

	if result.FromCache {
		fmt.Printf("\nWrote %s (cached)\n", result.OutputPath)
		return nil
	}

	fmt.Printf("\nWrote %s: %s %s, %.0f BPM, %d voices, %d notes, %.1fs\n",
		result.OutputPath, result.Root, result.Mode, result.Tempo,
		result.Voices, result.Notes, result.AudioSecs)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	images := args
	if len(images) == 0 {
		fmt.Println("No images given, generating demo images...")
		demoDir := filepath.Join(batchOut, "demo_images")
		demos, err := report.CreateDemoImages(demoDir)
		if err != nil {
			return fmt.Errorf("create demo images: %w", err)
		}
		images = demos
	}

	fmt.Printf("Rendering %d images x %d styles into %s\n", len(images), len(mapping.Styles), batchOut)

	gen := report.NewGenerator(batchOut, batchDuration)
	entries, err := gen.Run(images)
	if err != nil {
		return err
	}

	failed := 0
	for _, e := range entries {
		if e.Err != "" {
			failed++
			fmt.Fprintf(os.Stderr, "  %s (%s): %s\n", e.Image, e.Style, e.Err)
		}
	}
	fmt.Printf("Done: %d renders (%d failed), report at %s\n",
		len(entries)-failed, failed, filepath.Join(batchOut, "index.html"))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.New(server.Config{
		Port:       port,
		SampleRate: sampleRate,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	return srv.Run()
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := cache.New(cacheDir)
	if err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return err
	}
	fmt.Println("Render cache cleared.")
	return nil
}
