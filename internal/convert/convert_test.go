package convert

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/meshpack/internal/config"
	"github.com/Faultbox/meshpack/pkg/formats"
	"github.com/Faultbox/meshpack/pkg/geom"
	"github.com/Faultbox/meshpack/pkg/mesh"
	"github.com/Faultbox/meshpack/pkg/meshbin"
)

const cubeFace = `# one face
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
f 1//1 2//1 3//1 4//1
`

func writeOBJ(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	in := writeOBJ(t, dir, "face.obj", cubeFace)
	out := OutputPath(in, filepath.Join(dir, "out"))

	core, logs := observer.New(zapcore.InfoLevel)
	opts := Options{
		Build:    mesh.BuildOptions{Mode: mesh.PackDedup, Triangulate: true},
		Material: mesh.Material{Name: "face"},
		Logger:   zap.New(core),
	}

	res, err := File(in, out, opts)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}

	if res.Output != filepath.Join(dir, "out", "face.mpak") {
		t.Errorf("unexpected output path %s", res.Output)
	}
	if res.Source.Positions != 4 || res.Source.Facets != 1 {
		t.Errorf("unexpected source stats %+v", res.Source)
	}
	if res.Fields != geom.Fields(geom.FieldPosition).With(geom.FieldNormal) {
		t.Errorf("unexpected fields %s", res.Fields)
	}
	if res.Rows != 4 || res.Indices != 6 {
		t.Errorf("expected 4 rows and 6 indices, got %d and %d", res.Rows, res.Indices)
	}
	if res.Preview != "" {
		t.Errorf("expected no preview, got %s", res.Preview)
	}

	model, err := meshbin.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if model.Material.Name != "face" || model.Mesh.Indices.Len() != 6 {
		t.Errorf("unexpected decoded model %+v", model.Material)
	}

	if logs.FilterMessage("converted").Len() != 1 {
		t.Errorf("expected one 'converted' log entry, got %d", logs.Len())
	}
}

func TestFileWithPreview(t *testing.T) {
	dir := t.TempDir()
	in := writeOBJ(t, dir, "face.obj", cubeFace)

	cfg := config.Default()
	cfg.Preview.Enabled = true
	cfg.Preview.Size = 32
	opts, err := OptionsFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}

	res, err := File(in, OutputPath(in, ""), opts)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	if res.Preview != filepath.Join(dir, "face.webp") {
		t.Errorf("unexpected preview path %s", res.Preview)
	}
	if _, err := os.Stat(res.Preview); err != nil {
		t.Errorf("preview not written: %v", err)
	}
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing input", func(t *testing.T) {
		_, err := File(filepath.Join(dir, "nope.obj"), filepath.Join(dir, "nope.mpak"), Options{})
		if !errors.Is(err, formats.ErrCannotOpenFile) {
			t.Errorf("expected ErrCannotOpenFile, got %v", err)
		}
	})

	t.Run("bad syntax", func(t *testing.T) {
		in := writeOBJ(t, dir, "bad.obj", "v 1 2\n")
		_, err := File(in, OutputPath(in, ""), Options{})
		if !errors.Is(err, formats.ErrUnexpectedFormat) {
			t.Errorf("expected ErrUnexpectedFormat, got %v", err)
		}
	})

	t.Run("index out of range", func(t *testing.T) {
		in := writeOBJ(t, dir, "range.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n")
		out := OutputPath(in, "")
		_, err := File(in, out, Options{})
		if !errors.Is(err, mesh.ErrIndexOutOfRange) {
			t.Errorf("expected ErrIndexOutOfRange, got %v", err)
		}
		if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
			t.Error("no output should be written for a failed build")
		}
	})
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, dir, want string
	}{
		{"models/tree.obj", "", filepath.Join("models", "tree.mpak")},
		{"models/tree.OBJ", "out", filepath.Join("out", "tree.mpak")},
		{"rock", "out", filepath.Join("out", "rock.mpak")},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in, tt.dir); got != tt.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.in, tt.dir, got, tt.want)
		}
	}
	if got := PreviewPath("out/tree.mpak"); got != "out/tree.webp" {
		t.Errorf("PreviewPath = %q", got)
	}
}

func TestOptionsFromConfigInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Pack.Mode = "bogus"
	if _, err := OptionsFromConfig(cfg, nil); err == nil {
		t.Error("expected error for unknown pack mode")
	}
}

func TestOutputPathUnder(t *testing.T) {
	tests := []struct {
		in, root, dir, want string
	}{
		{filepath.Join("models", "a", "tree.obj"), "models", "out", filepath.Join("out", "a", "tree.mpak")},
		{filepath.Join("models", "tree.obj"), "models", "out", filepath.Join("out", "tree.mpak")},
		{filepath.Join("other", "tree.obj"), "models", "out", filepath.Join("out", "tree.mpak")},
		{filepath.Join("models", "a", "tree.obj"), "models", "", filepath.Join("models", "a", "tree.mpak")},
		{filepath.Join("models", "a", "tree.obj"), "", "out", filepath.Join("out", "tree.mpak")},
	}
	for _, tt := range tests {
		if got := OutputPathUnder(tt.in, tt.root, tt.dir); got != tt.want {
			t.Errorf("OutputPathUnder(%q, %q, %q) = %q, want %q", tt.in, tt.root, tt.dir, got, tt.want)
		}
	}
}
