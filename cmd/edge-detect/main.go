package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ironsheep/edge-detect/internal/backend"
	"github.com/ironsheep/edge-detect/internal/config"
	"github.com/ironsheep/edge-detect/internal/imaging"
	"github.com/ironsheep/edge-detect/internal/logging"
	"github.com/ironsheep/edge-detect/internal/pipeline"
	"github.com/ironsheep/edge-detect/internal/report"
	"github.com/ironsheep/edge-detect/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("edge-detect %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "edge-detect: %v\n", err)
		os.Exit(1)
	}

	// stdout carries MCP traffic in serve mode, so logs always go to stderr.
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.LogLevel),
	})))

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		logging.Logger().Debug("starting MCP server",
			slog.String("version", Version),
			slog.String("built", BuildTime),
			slog.String("commit", GitCommit))
		server.Version = Version
		if err := server.New(backend.Default()).Run(); err != nil {
			logging.Logger().Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	os.Exit(run(cfg, os.Args[1:]))
}

func usage() {
	fmt.Println("edge-detect - Sobel edge detection with selectable backends")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  edge-detect [options] <image>...   Detect edges and save results")
	fmt.Println("  edge-detect serve                  Run as an MCP server over stdin/stdout")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -backend id      Backend to use (see -list). Required")
	fmt.Println("  -out dir         Output directory (default: next to each input)")
	fmt.Println("  -layout name     Working pixel layout: bgra or rgba (default bgra)")
	fmt.Println("  -tint #RRGGBB    Edge color (default #FFFFFF)")
	fmt.Println("  -workers n       Images processed in parallel (default: CPU count)")
	fmt.Println("  -report file     Write a YAML timing report")
	fmt.Println("  -list            List backends and exit")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Printf("  %s, %s, %s, %s\n", config.EnvBackend, config.EnvLayout, config.EnvTint, config.EnvWorkers)
	fmt.Println("  A .env file in the working directory is loaded first.")
}

func run(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("edge-detect", flag.ContinueOnError)
	backendID := fs.String("backend", cfg.Backend, "backend id")
	outDir := fs.String("out", "", "output directory")
	layoutName := fs.String("layout", cfg.Layout, "working pixel layout")
	tint := fs.String("tint", cfg.Tint, "edge color")
	workers := fs.Int("workers", cfg.Workers, "parallel images")
	reportPath := fs.String("report", "", "YAML report file")
	list := fs.Bool("list", false, "list backends")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	reg := backend.Default()
	if *list {
		for _, d := range reg.Descriptors() {
			fmt.Printf("%-16s %s", d.ID, d.Description)
			if len(d.Aliases) > 0 {
				fmt.Printf(" (aliases: %s)", strings.Join(d.Aliases, ", "))
			}
			fmt.Println()
		}
		return 0
	}

	if _, err := reg.Select(*backendID); err != nil {
		fmt.Fprintf(os.Stderr, "edge-detect: %v (available: %s)\n", err, strings.Join(reg.IDs(), ", "))
		return 1
	}
	layout, err := imaging.ParseLayout(*layoutName)
	if err != nil || !layout.IsColor() {
		fmt.Fprintf(os.Stderr, "edge-detect: -layout must be bgra or rgba, got %q\n", *layoutName)
		return 1
	}
	display := []imaging.Option{imaging.WithLayout(layout), imaging.WithTint(*tint)}
	if err := imaging.ValidateOptions(display...); err != nil {
		fmt.Fprintf(os.Stderr, "edge-detect: %v\n", err)
		return 1
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "edge-detect: no input images")
		return 2
	}

	cache := imaging.NewImageCache()
	var jobs []pipeline.Job
	var runs []report.Run
	failed := 0
	for _, path := range fs.Args() {
		img, err := cache.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			runs = append(runs, report.Run{Input: path, Backend: *backendID, Error: err.Error()})
			failed++
			continue
		}
		cache.Evict(path)
		buf, err := imaging.FromImage(img, layout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			runs = append(runs, report.Run{Input: path, Backend: *backendID, Error: err.Error()})
			failed++
			continue
		}
		jobs = append(jobs, pipeline.Job{Name: path, Input: buf, BackendID: *backendID})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.New(reg, display...)
	items, err := p.Batch(ctx, jobs, *workers)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Logger().Error("batch failed", slog.Any("error", err))
	}

	for _, item := range items {
		r := report.Run{Input: item.Name, Backend: *backendID}
		if item.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", item.Name, item.Err)
			r.Error = item.Err.Error()
			runs = append(runs, r)
			failed++
			continue
		}
		out := outputPath(item.Name, *outDir)
		if err := imaging.Save(item.Result.Display, out); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", item.Name, err)
			r.Error = err.Error()
			runs = append(runs, r)
			failed++
			continue
		}
		edge := item.Result.Edge
		r.Backend = edge.BackendID
		r.Output = out
		r.Width, r.Height = edge.Magnitude.Width, edge.Magnitude.Height
		r.ElapsedMS = edge.ElapsedMillis()
		runs = append(runs, r)
		fmt.Printf("%s -> %s [%s] %.3f ms\n", item.Name, out, edge.BackendID, r.ElapsedMS)
	}

	if *reportPath != "" {
		if err := writeReport(*reportPath, report.New(Version, runs)); err != nil {
			fmt.Fprintf(os.Stderr, "edge-detect: %v\n", err)
			return 1
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}

// outputPath names the result file <base>_edges<ext>, in dir when given and
// next to the input otherwise. Extensions that cannot be written fall back to .png.
func outputPath(input, dir string) string {
	ext := strings.ToLower(filepath.Ext(input))
	switch ext {
	case ".bmp", ".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff":
	default:
		ext = ".png"
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base+"_edges"+ext)
}

func writeReport(path string, r *report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
