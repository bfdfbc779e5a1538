package formats

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// recordHandler consumes the rest of a line after its keyword.
type recordHandler func(p *objParser, word string, ls *lineStream) error

// objRecords maps normalised keywords to their handlers.
var objRecords = map[string]recordHandler{
	"v":      parsePosition,
	"vt":     parseTexCoord,
	"vn":     parseNormal,
	"f":      parseFacet,
	"o":      skipRecord, // object name
	"g":      skipRecord, // group name
	"s":      skipRecord, // smoothing group
	"usemtl": skipRecord,
	"mtllib": skipRecord,
}

// lookupRecord selects a handler by the lower-cased leading character of
// word. "v" is disambiguated by its second character; "u" and "m" must
// spell out usemtl and mtllib.
func lookupRecord(word string) (recordHandler, bool) {
	var key string
	switch lower(word[0]) {
	case 'v':
		if len(word) == 1 {
			key = "v"
			break
		}
		switch word[1] {
		case 't':
			key = "vt"
		case 'n':
			key = "vn"
		default:
			return nil, false
		}
	case 'f', 'o', 'g', 's':
		key = string(lower(word[0]))
	case 'u':
		if !strings.EqualFold(word, "usemtl") {
			return nil, false
		}
		key = "usemtl"
	case 'm':
		if !strings.EqualFold(word, "mtllib") {
			return nil, false
		}
		key = "mtllib"
	default:
		return nil, false
	}
	h, ok := objRecords[key]
	return h, ok
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// parsePosition reads "v x y z [w]".
func parsePosition(p *objParser, word string, ls *lineStream) error {
	var pos mgl32.Vec4
	for i := 0; i < 3; i++ {
		pos[i], _ = ls.float()
	}
	if ls.fail {
		return p.fail(word, "failed to read vertex position")
	}

	w, ok := ls.float()
	if !ok {
		w = 1
	}
	pos[3] = w

	p.model.addPosition(pos)
	return nil
}

// parseTexCoord reads "vt u v [w]".
func parseTexCoord(p *objParser, word string, ls *lineStream) error {
	var uv mgl32.Vec3
	for i := 0; i < 2; i++ {
		uv[i], _ = ls.float()
	}
	if ls.fail {
		return p.fail(word, "failed to read texture coordinates")
	}

	w, ok := ls.float()
	if !ok {
		w = 0
	}
	uv[2] = w

	p.model.addTexCoord(uv)
	return nil
}

// parseNormal reads "vn x y z".
func parseNormal(p *objParser, word string, ls *lineStream) error {
	var n mgl32.Vec3
	for i := 0; i < 3; i++ {
		n[i], _ = ls.float()
	}
	if ls.fail {
		return p.fail(word, "failed to read normal")
	}

	p.model.addNormal(n)
	return nil
}

// parseFacet reads "f ref ref ref ...", where each ref is one of
// pos, pos/tex, pos//norm or pos/tex/norm. The list ends at the first
// position index that cannot be read.
func parseFacet(p *objParser, word string, ls *lineStream) error {
	facet := OBJFacet{Refs: make([]VertexRef, 0, 4)}

	for {
		ref, ok := readVertexRef(ls)
		if !ok {
			break
		}
		facet.Refs = append(facet.Refs, ref)

		for ls.peekIs('/') {
			ls.next()
		}
	}

	if len(facet.Refs) < 3 {
		return p.fail(word, fmt.Sprintf("invalid facet (%d vertices only)", len(facet.Refs)))
	}

	p.model.addFacet(facet)
	return nil
}

// readVertexRef reads one facet corner. A sub-index that fails to parse
// stays NoIndex and poisons the stream, so the corner is kept but ends the
// list.
func readVertexRef(ls *lineStream) (VertexRef, bool) {
	pos, ok := ls.int()
	if !ok {
		return VertexRef{}, false
	}
	ref := VertexRef{Position: pos - 1, TexCoord: NoIndex, Normal: NoIndex}

	if !ls.peekIs('/') {
		return ref, true
	}
	ls.next()

	if ls.peekIs('/') {
		// pos//norm
		ls.next()
		if n, ok := ls.int(); ok {
			ref.Normal = n - 1
		}
		return ref, true
	}

	if t, ok := ls.int(); ok {
		ref.TexCoord = t - 1
	}
	if ls.peekIs('/') {
		ls.next()
		if n, ok := ls.int(); ok {
			ref.Normal = n - 1
		}
	}
	return ref, true
}

// skipRecord accepts names and flags that carry no geometry.
func skipRecord(*objParser, string, *lineStream) error {
	return nil
}
