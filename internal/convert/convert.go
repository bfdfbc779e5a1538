// Package convert runs the OBJ to MPAK pipeline shared by the CLI, batch
// and watch modes.
package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshpack/internal/config"
	"github.com/Faultbox/meshpack/internal/preview"
	"github.com/Faultbox/meshpack/pkg/formats"
	"github.com/Faultbox/meshpack/pkg/geom"
	"github.com/Faultbox/meshpack/pkg/mesh"
	"github.com/Faultbox/meshpack/pkg/meshbin"
)

// Options controls a single conversion.
type Options struct {
	Build    mesh.BuildOptions
	Material mesh.Material
	// Preview, when set, also writes a .webp thumbnail next to the output.
	Preview *preview.Options
	Logger  *zap.Logger
}

// OptionsFromConfig derives conversion options from loaded settings.
func OptionsFromConfig(cfg *config.Config, log *zap.Logger) (Options, error) {
	build, err := cfg.BuildOptions()
	if err != nil {
		return Options{}, err
	}
	mat, err := cfg.Material()
	if err != nil {
		return Options{}, err
	}

	opts := Options{Build: build, Material: mat, Logger: log}
	if cfg.Preview.Enabled {
		p := preview.DefaultOptions()
		p.Size = cfg.Preview.Size
		p.Supersample = cfg.Preview.Supersample
		p.Yaw = cfg.Preview.Yaw
		p.Pitch = cfg.Preview.Pitch
		opts.Preview = &p
	}
	return opts, nil
}

// Result summarizes one converted file.
type Result struct {
	Input    string
	Output   string
	Preview  string // empty when no preview was written
	Source   formats.OBJStats
	Fields   geom.Fields
	Rows     int
	Indices  int
	Bounds   geom.Bounds
	Duration time.Duration
}

// OutputPath maps an input file to its .mpak path. An empty outDir keeps
// the output next to the input.
func OutputPath(inPath, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath)) + meshbin.Extension
	if outDir == "" {
		return filepath.Join(filepath.Dir(inPath), base)
	}
	return filepath.Join(outDir, base)
}

// OutputPathUnder maps inPath to its .mpak path below outDir, keeping the
// directories between root and inPath so inputs sharing a base name do not
// collide. Inputs outside root fall back to OutputPath.
func OutputPathUnder(inPath, root, outDir string) string {
	if outDir == "" || root == "" {
		return OutputPath(inPath, outDir)
	}
	rel, err := filepath.Rel(root, filepath.Dir(inPath))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return OutputPath(inPath, outDir)
	}
	return OutputPath(inPath, filepath.Join(outDir, rel))
}

// PreviewPath maps an output container to its thumbnail path.
func PreviewPath(outPath string) string {
	return strings.TrimSuffix(outPath, filepath.Ext(outPath)) + preview.Extension
}

// Model parses and packs inPath without writing anything.
func Model(inPath string, opts Options) (*mesh.Model, *formats.OBJ, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	obj, err := formats.ParseOBJFile(inPath, formats.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}

	model, err := mesh.Build(obj, opts.Material, opts.Build)
	if err != nil {
		return nil, nil, fmt.Errorf("packing %s: %w", inPath, err)
	}
	return model, obj, nil
}

// File converts inPath and writes the container to outPath.
func File(inPath, outPath string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	model, obj, err := Model(inPath, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return nil, err
	}
	if err := meshbin.WriteFile(outPath, model); err != nil {
		return nil, fmt.Errorf("writing %s: %w", outPath, err)
	}

	res := &Result{
		Input:   inPath,
		Output:  outPath,
		Source:  obj.Stats(),
		Fields:  model.Mesh.Vertices.Fields(),
		Rows:    model.Mesh.Vertices.Len(),
		Indices: model.Mesh.Indices.Len(),
		Bounds:  model.Mesh.Bounds,
	}

	if opts.Preview != nil {
		img, err := preview.Render(model, *opts.Preview)
		if err != nil {
			return nil, fmt.Errorf("rendering preview: %w", err)
		}
		res.Preview = PreviewPath(outPath)
		if err := preview.WriteWebPFile(res.Preview, img); err != nil {
			return nil, fmt.Errorf("writing %s: %w", res.Preview, err)
		}
	}

	res.Duration = time.Since(start)
	log.Info("converted",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Stringer("fields", res.Fields),
		zap.Int("rows", res.Rows),
		zap.Int("triangles", res.Indices/3),
		zap.Duration("took", res.Duration),
	)
	return res, nil
}
