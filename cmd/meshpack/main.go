// meshpack converts Wavefront OBJ models into packed vertex and index
// buffers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/meshpack/internal/batch"
	"github.com/Faultbox/meshpack/internal/config"
	"github.com/Faultbox/meshpack/internal/convert"
	"github.com/Faultbox/meshpack/internal/logger"
	"github.com/Faultbox/meshpack/internal/preview"
	"github.com/Faultbox/meshpack/internal/watch"
	"github.com/Faultbox/meshpack/pkg/mesh"
	"github.com/Faultbox/meshpack/pkg/meshbin"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "convert", "c":
		cmdConvert(args)
	case "batch":
		cmdBatch(args)
	case "preview":
		cmdPreview(args)
	case "watch":
		cmdWatch(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshpack - Wavefront OBJ packing utility

Usage:
  meshpack <command> [options]

Commands:
  info <file.obj|file.mpak>          Show model and layout information
  convert <in.obj> [out.mpak]        Pack one model
  batch <dir>                        Pack every matching model under dir
  preview <in.obj|in.mpak> [out.webp] Render a thumbnail
  watch <dir>                        Re-pack models as they change
  config init [path]                 Write the default config
  config show                        Print the effective config

Common options:
  -config <path>   Config file (default ./meshpack.yaml, then user config dir)
  -mode <mode>     Packing mode: indexed or dedup
  -triangulate     Fan-triangulate polygons
  -debug           Enable debug logging

Examples:
  meshpack info tree.obj
  meshpack convert -mode dedup -triangulate tree.obj
  meshpack batch -workers 8 -out-dir build ./models
  meshpack preview -size 512 tree.obj tree.webp`)
}

// setup parses args with the shared flags, loads config and starts logging.
func setup(name, usage string, args []string, minArgs int) (*config.Config, *flag.FlagSet) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var flags config.Flags
	flags.Register(fs)
	fs.Parse(args)

	if fs.NArg() < minArgs {
		fmt.Fprintf(os.Stderr, "Usage: meshpack %s\n", usage)
		os.Exit(1)
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		fail(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fail(err)
	}
	return cfg, fs
}

func fail(err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func convertOptions(cfg *config.Config, component string) convert.Options {
	opts, err := convert.OptionsFromConfig(cfg, logger.Named(component))
	if err != nil {
		fail(err)
	}
	return opts
}

// loadModel reads a packed container or packs an OBJ on the fly.
func loadModel(path string, cfg *config.Config) *mesh.Model {
	if strings.EqualFold(filepath.Ext(path), meshbin.Extension) {
		model, err := meshbin.ReadFile(path)
		if err != nil {
			fail(err)
		}
		return model
	}
	model, _, err := convert.Model(path, convertOptions(cfg, "convert"))
	if err != nil {
		fail(err)
	}
	return model
}

func cmdInfo(args []string) {
	cfg, fs := setup("info", "info <file.obj|file.mpak>", args, 1)
	defer logger.Sync()
	path := fs.Arg(0)

	if strings.EqualFold(filepath.Ext(path), meshbin.Extension) {
		printModel(path, loadModel(path, cfg))
		return
	}

	model, obj, err := convert.Model(path, convertOptions(cfg, "convert"))
	if err != nil {
		fail(err)
	}
	s := obj.Stats()
	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Positions:  %d\n", s.Positions)
	fmt.Printf("Normals:    %d\n", s.Normals)
	fmt.Printf("TexCoords:  %d\n", s.TexCoords)
	fmt.Printf("Facets:     %d (%d polygons above 3 corners)\n", s.Facets, s.Polygons)
	fmt.Printf("References: %d\n", s.Refs)
	fmt.Println()
	printModel(fmt.Sprintf("packed (%s)", cfg.Pack.Mode), model)
}

func printModel(title string, model *mesh.Model) {
	m := model.Mesh
	fmt.Printf("Mesh:       %s\n", title)
	fmt.Printf("Fields:     %s\n", m.Vertices.Fields())
	fmt.Printf("Stride:     %d bytes\n", m.Vertices.Stride())
	fmt.Printf("Rows:       %d\n", m.Vertices.Len())
	fmt.Printf("Triangles:  %d\n", m.Indices.Triangles())
	if m.Bounds.Empty() {
		fmt.Println("Bounds:     (empty)")
	} else {
		fmt.Printf("Bounds:     %v .. %v\n", m.Bounds.Min, m.Bounds.Max)
	}
	fmt.Printf("Material:   %q %s %s\n", model.Material.Name, model.Material.PolygonMode, model.Material.FacetSide)
	fmt.Println("Layout:")
	for _, a := range m.Vertices.Layout() {
		fmt.Printf("  %-10s %d floats at +%d\n", a.Field, a.Components, a.Offset)
	}
}

func cmdConvert(args []string) {
	cfg, fs := setup("convert", "convert [options] <in.obj> [out.mpak]", args, 1)
	defer logger.Sync()

	in := fs.Arg(0)
	out := convert.OutputPath(in, "")
	if fs.NArg() > 1 {
		out = fs.Arg(1)
	}

	res, err := convert.File(in, out, convertOptions(cfg, "convert"))
	if err != nil {
		fail(err)
	}
	fmt.Printf("%s -> %s (%d rows, %d triangles, %s)\n", res.Input, res.Output, res.Rows, res.Indices/3, res.Fields)
	if res.Preview != "" {
		fmt.Printf("preview: %s\n", res.Preview)
	}
}

func cmdBatch(args []string) {
	cfg, fs := setup("batch", "batch [options] <dir>", args, 1)
	defer logger.Sync()

	files, err := batch.Find(fs.Arg(0), cfg.Batch.Pattern)
	if err != nil {
		fail(err)
	}
	if len(files) == 0 {
		fmt.Printf("No files matching %s under %s\n", cfg.Batch.Pattern, fs.Arg(0))
		return
	}
	if cfg.Batch.OutputDir != "" {
		if err := os.MkdirAll(cfg.Batch.OutputDir, 0755); err != nil {
			fail(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := batch.Run(ctx, files, batch.Options{
		Workers:   cfg.Batch.Workers,
		OutputDir: cfg.Batch.OutputDir,
		Root:      fs.Arg(0),
		Convert:   convertOptions(cfg, "batch"),
		Logger:    logger.Named("batch"),
	})

	for _, r := range results {
		if !r.OK() {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", r.Input, r.Err)
		}
	}
	s := batch.Summarize(results)
	fmt.Printf("%d/%d converted, %d failed, %d rows, %d triangles\n", s.Succeeded, s.Total, s.Failed, s.Rows, s.Triangles)
	if s.Failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

func cmdPreview(args []string) {
	cfg, fs := setup("preview", "preview [options] <in.obj|in.mpak> [out.webp]", args, 1)
	defer logger.Sync()

	in := fs.Arg(0)
	out := convert.PreviewPath(in)
	if fs.NArg() > 1 {
		out = fs.Arg(1)
	}

	opts := preview.DefaultOptions()
	opts.Size = cfg.Preview.Size
	opts.Supersample = cfg.Preview.Supersample
	opts.Yaw = cfg.Preview.Yaw
	opts.Pitch = cfg.Preview.Pitch

	img, err := preview.Render(loadModel(in, cfg), opts)
	if err != nil {
		fail(err)
	}
	if err := preview.WriteWebPFile(out, img); err != nil {
		fail(err)
	}
	fmt.Printf("%s -> %s (%dx%d)\n", in, out, opts.Size, opts.Size)
}

func cmdWatch(args []string) {
	cfg, fs := setup("watch", "watch [options] <dir>", args, 1)
	defer logger.Sync()

	log := logger.Named("watch")
	copts := convertOptions(cfg, "convert")

	w, err := watch.New(watch.Options{
		Debounce: cfg.Watch.Debounce,
		Pattern:  cfg.Batch.Pattern,
		Logger:   log,
	}, func(path string) {
		out := convert.OutputPathUnder(path, fs.Arg(0), cfg.Batch.OutputDir)
		if _, err := convert.File(path, out, copts); err != nil {
			log.Warn("conversion failed", zap.String("file", path), zap.Error(err))
		}
	})
	if err != nil {
		fail(err)
	}
	if err := w.Add(fs.Arg(0)); err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching", zap.String("root", fs.Arg(0)), zap.Duration("debounce", cfg.Watch.Debounce))
	if err := w.Run(ctx); err != nil {
		fail(err)
	}
}

func cmdConfig(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshpack config <init|show> [options]")
		os.Exit(1)
	}

	switch args[0] {
	case "init":
		path := filepath.Join(config.ConfigDir(), "config.yaml")
		if len(args) > 1 {
			path = args[1]
		}
		if _, err := os.Stat(path); err == nil {
			fail(fmt.Errorf("%s already exists", path))
		}
		if err := config.Default().SaveTo(path); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %s\n", path)
	case "show":
		cfg, _ := setup("config show", "config show [options]", args[1:], 0)
		data, err := cfg.Marshal()
		if err != nil {
			fail(err)
		}
		os.Stdout.Write(data)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		os.Exit(1)
	}
}
