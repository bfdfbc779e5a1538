package formats

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func parseString(t *testing.T, src string) *OBJ {
	t.Helper()
	obj, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	return obj
}

func TestParseOBJ_Positions(t *testing.T) {
	obj := parseString(t, "v 1.0 2.0 3.0\nv 4.0 5.0 6.0 2.0\n")

	if len(obj.Positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(obj.Positions))
	}
	if obj.Positions[0][3] != 1 {
		t.Errorf("expected defaulted w = 1, got %f", obj.Positions[0][3])
	}
	if obj.Positions[1][3] != 2 {
		t.Errorf("expected explicit w = 2, got %f", obj.Positions[1][3])
	}
	if obj.Positions[1][0] != 4 || obj.Positions[1][1] != 5 || obj.Positions[1][2] != 6 {
		t.Errorf("unexpected second position %v", obj.Positions[1])
	}
}

func TestParseOBJ_TexCoordsAndNormals(t *testing.T) {
	obj := parseString(t, "vt 0.5 0.25\nvt 0.1 0.2 0.3\nvn 0 1 0\n")

	if len(obj.TexCoords) != 2 {
		t.Fatalf("expected 2 texcoords, got %d", len(obj.TexCoords))
	}
	if obj.TexCoords[0][2] != 0 {
		t.Errorf("expected defaulted texcoord w = 0, got %f", obj.TexCoords[0][2])
	}
	if obj.TexCoords[1][2] != float32(0.3) {
		t.Errorf("expected texcoord w = 0.3, got %f", obj.TexCoords[1][2])
	}
	if len(obj.Normals) != 1 || obj.Normals[0][1] != 1 {
		t.Errorf("unexpected normals %v", obj.Normals)
	}
}

func TestParseOBJ_OptionalFieldGarbage(t *testing.T) {
	obj := parseString(t, "v 1 2 3 abc\nvt 1 2 xyz\nv 1 2 3 nan\n")

	if obj.Positions[0][3] != 1 {
		t.Errorf("expected w to fall back to 1, got %f", obj.Positions[0][3])
	}
	if obj.Positions[1][3] != 1 {
		t.Errorf("expected non-finite w to fall back to 1, got %f", obj.Positions[1][3])
	}
	if obj.TexCoords[0][2] != 0 {
		t.Errorf("expected texcoord w to fall back to 0, got %f", obj.TexCoords[0][2])
	}
}

func TestParseOBJ_FacetPlain(t *testing.T) {
	obj := parseString(t, "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")

	if len(obj.Facets) != 1 {
		t.Fatalf("expected 1 facet, got %d", len(obj.Facets))
	}
	refs := obj.Facets[0].Refs
	for i, ref := range refs {
		if ref.Position != int32(i) {
			t.Errorf("ref %d: expected position %d, got %d", i, i, ref.Position)
		}
		if ref.HasTexCoord() || ref.HasNormal() {
			t.Errorf("ref %d: expected no sub-indices, got %+v", i, ref)
		}
	}
}

func TestParseOBJ_FacetReferenceForms(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []VertexRef
	}{
		{
			name: "pos/tex/norm",
			line: "f 1/4/7 2/5/8 3/6/9",
			want: []VertexRef{{0, 3, 6}, {1, 4, 7}, {2, 5, 8}},
		},
		{
			name: "pos/tex",
			line: "f 1/2 3/4 5/6",
			want: []VertexRef{{0, 1, NoIndex}, {2, 3, NoIndex}, {4, 5, NoIndex}},
		},
		{
			name: "pos//norm",
			line: "f 1//2 3//4 5//6",
			want: []VertexRef{{0, NoIndex, 1}, {2, NoIndex, 3}, {4, NoIndex, 5}},
		},
		{
			name: "mixed",
			line: "f 1 2/3 4//5",
			want: []VertexRef{{0, NoIndex, NoIndex}, {1, 2, NoIndex}, {3, NoIndex, 4}},
		},
		{
			name: "trailing slashes drained",
			line: "f 1/2/3// 4/5/6/ 7/8/9",
			want: []VertexRef{{0, 1, 2}, {3, 4, 5}, {6, 7, 8}},
		},
		{
			name: "quad kept whole",
			line: "f 1/1/1 2/2/2 3/3/3 4/4/4",
			want: []VertexRef{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}, {3, 3, 3}},
		},
		{
			name: "carriage return",
			line: "f 1 2 3\r",
			want: []VertexRef{{0, NoIndex, NoIndex}, {1, NoIndex, NoIndex}, {2, NoIndex, NoIndex}},
		},
		{
			name: "list ends at first non-index",
			line: "f 1 2 3 x 4",
			want: []VertexRef{{0, NoIndex, NoIndex}, {1, NoIndex, NoIndex}, {2, NoIndex, NoIndex}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := parseString(t, tt.line+"\n")
			if len(obj.Facets) != 1 {
				t.Fatalf("expected 1 facet, got %d", len(obj.Facets))
			}
			got := obj.Facets[0].Refs
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d refs, got %d: %+v", len(tt.want), len(got), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("ref %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestParseOBJ_DoubleSlashSkipsTexCoord(t *testing.T) {
	obj := parseString(t, "f 1//2 1//2 1//2\n")

	ref := obj.Facets[0].Refs[0]
	if ref.Position != 0 {
		t.Errorf("expected position 0, got %d", ref.Position)
	}
	if ref.TexCoord != NoIndex {
		t.Errorf("expected no texcoord, got %d", ref.TexCoord)
	}
	if ref.Normal != 1 {
		t.Errorf("expected normal 1, got %d", ref.Normal)
	}
}

func TestParseOBJ_IgnoredRecords(t *testing.T) {
	src := strings.Join([]string{
		"# comment",
		"#tight comment",
		"",
		"   ",
		"mtllib cube.mtl",
		"o Cube",
		"g side",
		"s off",
		"usemtl Material",
		"v 0 0 0",
	}, "\n")

	obj := parseString(t, src)
	if len(obj.Positions) != 1 {
		t.Errorf("expected 1 position, got %d", len(obj.Positions))
	}
}

func TestParseOBJ_UppercaseLeadingChar(t *testing.T) {
	obj := parseString(t, "V 1 2 3\nVn 0 0 1\nF 1 1 1\nUSEMTL red\n")

	if len(obj.Positions) != 1 || len(obj.Normals) != 1 || len(obj.Facets) != 1 {
		t.Errorf("unexpected stats %+v", obj.Stats())
	}
}

func TestParseOBJ_UnexpectedFormat(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		word string
	}{
		{"unknown keyword", "v 0 0 0\nx 1 2 3\n", 2, "x"},
		{"short facet", "f 1 2\n", 1, "f"},
		{"empty facet", "f\n", 1, "f"},
		{"missing position component", "v 1 2\n", 1, "v"},
		{"non-numeric position", "v 1 a 3\n", 1, "v"},
		{"missing texcoord component", "vt 1\n", 1, "vt"},
		{"missing normal component", "vn 1 2\n", 1, "vn"},
		{"unknown v record", "vp 1 2 3\n", 1, "vp"},
		{"misspelled usemtl", "usemat red\n", 1, "usemat"},
		{"misspelled mtllib", "mtl red\n", 1, "mtl"},
		{"infinite position", "v inf 0 0\n", 1, "v"},
		{"nan position", "v nan 1 2\n", 1, "v"},
		{"infinite normal", "vn 0 Infinity 0\n", 1, "vn"},
		{"nan texcoord", "vt NaN 0\n", 1, "vt"},
		{"hex float position", "v 0x1p3 0 0\n", 1, "v"},
		{"overflowing position", "v 1e99 0 0\n", 1, "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := ParseOBJ(strings.NewReader(tt.src))
			if !errors.Is(err, ErrUnexpectedFormat) {
				t.Fatalf("expected ErrUnexpectedFormat, got %v", err)
			}
			if obj != nil {
				t.Error("expected no model on error")
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, pe.Line)
			}
			if pe.Word != tt.word {
				t.Errorf("expected word %q, got %q", tt.word, pe.Word)
			}
			if !strings.Contains(err.Error(), tt.word) {
				t.Errorf("expected error to name the word, got %q", err.Error())
			}
		})
	}
}

func TestParseOBJ_FirstBadLineStopsParse(t *testing.T) {
	_, err := ParseOBJ(strings.NewReader("v 0 0 0\nv bad\nv 1 1 1\nx\n"))

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line != 2 {
		t.Errorf("expected failure on line 2, got %d", pe.Line)
	}
	if pe.Text != "v bad" {
		t.Errorf("expected offending line text, got %q", pe.Text)
	}
}

func TestParseOBJ_LineTooLong(t *testing.T) {
	src := "v " + strings.Repeat("1", 200) + " 0 0\n"
	_, err := ParseOBJ(strings.NewReader(src), WithMaxLineSize(64))
	if !errors.Is(err, ErrUnexpectedFormat) {
		t.Errorf("expected ErrUnexpectedFormat, got %v", err)
	}
}

func TestParseOBJ_LogsDiagnostic(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	_, err := ParseOBJ(strings.NewReader("f 1 2\n"), WithLogger(zap.New(core)))
	if err == nil {
		t.Fatal("expected error")
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(entries))
	}
	if !strings.Contains(entries[0].Message, "invalid facet (2 vertices only)") {
		t.Errorf("unexpected diagnostic %q", entries[0].Message)
	}
	if entries[0].ContextMap()["text"] != "f 1 2" {
		t.Errorf("expected diagnostic to carry the line, got %v", entries[0].ContextMap())
	}
}

func TestParseOBJFile_CannotOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.obj")

	obj, err := ParseOBJFile(path)
	if !errors.Is(err, ErrCannotOpenFile) {
		t.Fatalf("expected ErrCannotOpenFile, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected underlying not-exist error, got %v", err)
	}
	if obj != nil {
		t.Error("expected no model")
	}

	var pe *ParseError
	if errors.As(err, &pe) && pe.Line != 0 {
		t.Errorf("expected no line to be read, got line %d", pe.Line)
	}
}

func TestParseOBJFile_CRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.obj")
	src := "v 0 0 0\r\nv 1 0 0\r\nv 0 1 0\r\nvn 0 0 1\r\nf 1//1 2//1 3//1\r\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	obj, err := ParseOBJFile(path)
	if err != nil {
		t.Fatalf("ParseOBJFile failed: %v", err)
	}

	s := obj.Stats()
	if s.Positions != 3 || s.Normals != 1 || s.Facets != 1 || s.Refs != 3 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestOBJ_Stats(t *testing.T) {
	obj := parseString(t, "v 0 0 0\nf 1 1 1 1\nf 1 1 1\n")

	s := obj.Stats()
	if s.Facets != 2 || s.Refs != 7 || s.Polygons != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestParseOBJ_Independent(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	a := parseString(t, src)
	b := parseString(t, src)

	a.Positions[0][0] = 42
	if b.Positions[0][0] != 0 {
		t.Error("parses must not share storage")
	}
}
