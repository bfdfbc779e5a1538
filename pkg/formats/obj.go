package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// OBJ format errors.
var (
	ErrCannotOpenFile   = errors.New("cannot open OBJ file")
	ErrUnexpectedFormat = errors.New("unexpected OBJ format")
)

// ParseError describes why an OBJ parse stopped. It wraps one of the
// sentinel errors above, so errors.Is works on it.
type ParseError struct {
	Kind error  // ErrCannotOpenFile or ErrUnexpectedFormat
	Line int    // 1-based source line, 0 when no line was read
	Word string // leading keyword of the offending line
	Text string // full offending line, or the path for open failures
	Msg  string
	Err  error // underlying cause, if any
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Word != "" {
		fmt.Fprintf(&b, " (word %q in %q)", e.Word, e.Text)
	} else if e.Text != "" {
		fmt.Fprintf(&b, " (%s)", e.Text)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

const (
	objReadBufferSize   = 32 * 1024
	defaultMaxOBJLine   = 1024 * 1024
	initialOBJLineBytes = 64 * 1024
)

// OBJOption configures ParseOBJ.
type OBJOption func(*objParser)

// WithLogger sets the sink for parse diagnostics. The default discards them.
func WithLogger(l *zap.Logger) OBJOption {
	return func(p *objParser) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMaxLineSize sets the longest accepted source line in bytes.
func WithMaxLineSize(n int) OBJOption {
	return func(p *objParser) {
		if n > 0 {
			p.maxLine = n
		}
	}
}

type objParser struct {
	log     *zap.Logger
	maxLine int

	model *OBJ

	lineNo int
	line   string
}

func newOBJParser(opts []OBJOption) *objParser {
	p := &objParser{
		log:     zap.NewNop(),
		maxLine: defaultMaxOBJLine,
		model:   &OBJ{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseOBJ parses Wavefront OBJ text from r. A single malformed line fails
// the whole parse; no partial model is returned on error.
func ParseOBJ(r io.Reader, opts ...OBJOption) (*OBJ, error) {
	p := newOBJParser(opts)
	if err := p.run(r); err != nil {
		return nil, err
	}

	s := p.model.Stats()
	p.log.Debug("parsed OBJ",
		zap.Int("lines", p.lineNo),
		zap.Int("positions", s.Positions),
		zap.Int("normals", s.Normals),
		zap.Int("texcoords", s.TexCoords),
		zap.Int("facets", s.Facets),
	)
	return p.model, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string, opts ...OBJOption) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		p := newOBJParser(opts)
		p.log.Warn("can't open file", zap.String("path", path), zap.Error(err))
		return nil, &ParseError{Kind: ErrCannotOpenFile, Text: path, Err: err}
	}
	defer f.Close()

	return ParseOBJ(bufio.NewReaderSize(f, objReadBufferSize), opts...)
}

func (p *objParser) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(initialOBJLineBytes, p.maxLine)), p.maxLine)

	for scanner.Scan() {
		p.lineNo++
		p.line = scanner.Text()

		ls := newLineStream(p.line)
		word, ok := ls.word()
		if !ok || strings.HasPrefix(word, "#") {
			continue
		}

		handler, ok := lookupRecord(word)
		if !ok {
			return p.fail(word, "unexpected word")
		}
		if err := handler(p, word, ls); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			msg := fmt.Sprintf("line exceeds %d bytes", p.maxLine)
			p.log.Warn(msg, zap.Int("line", p.lineNo+1))
			return &ParseError{Kind: ErrUnexpectedFormat, Line: p.lineNo + 1, Msg: msg}
		}
		p.log.Warn("read failed", zap.Int("line", p.lineNo), zap.Error(err))
		return &ParseError{Kind: ErrCannotOpenFile, Line: p.lineNo, Msg: "read failed", Err: err}
	}
	return nil
}

// fail logs a diagnostic for the current line and returns a format error.
func (p *objParser) fail(word, msg string) error {
	p.log.Warn(msg,
		zap.Int("line", p.lineNo),
		zap.String("word", word),
		zap.String("text", p.line),
	)
	return &ParseError{
		Kind: ErrUnexpectedFormat,
		Line: p.lineNo,
		Word: word,
		Text: p.line,
		Msg:  msg,
	}
}
