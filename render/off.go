package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/netisu/xtoon"
)

// maxOFFCount bounds the vertex, face and per-face index counts a header may
// declare.
const maxOFFCount = 1 << 24

func checkCount(what string, n, min int) error {
	if n < min || n > maxOFFCount {
		return fmt.Errorf("off: %s %d out of range [%d, %d]", what, n, min, maxOFFCount)
	}
	return nil
}

// LoadOFF reads an Object File Format mesh, centers it on the origin,
// scales it into the unit sphere and computes smooth normals.
func LoadOFF(path string) (*Mesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadOFFFromReader(file)
}

func LoadOFFFromReader(r io.Reader) (*Mesh, error) {
	tok := newTokenizer(r)

	header, err := tok.next()
	if err != nil {
		return nil, fmt.Errorf("off: header: %w", err)
	}
	if !strings.HasSuffix(header, "OFF") {
		return nil, fmt.Errorf("off: bad header %q", header)
	}
	nv, err := tok.int()
	if err != nil {
		return nil, fmt.Errorf("off: vertex count: %w", err)
	}
	nf, err := tok.int()
	if err != nil {
		return nil, fmt.Errorf("off: face count: %w", err)
	}
	if _, err := tok.int(); err != nil {
		return nil, fmt.Errorf("off: edge count: %w", err)
	}
	if err := checkCount("vertex count", nv, 0); err != nil {
		return nil, err
	}
	if err := checkCount("face count", nf, 0); err != nil {
		return nil, err
	}

	vs := make([]xtoon.Vector, nv)
	for i := range vs {
		var c [3]float64
		for j := range c {
			if c[j], err = tok.float(); err != nil {
				return nil, fmt.Errorf("off: vertex %d: %w", i, err)
			}
		}
		vs[i] = xtoon.V(c[0], c[1], c[2])
	}

	triangles := make([]*Triangle, 0, nf)
	for i := 0; i < nf; i++ {
		n, err := tok.int()
		if err != nil {
			return nil, fmt.Errorf("off: face %d: %w", i, err)
		}
		if err := checkCount(fmt.Sprintf("face %d index count", i), n, 3); err != nil {
			return nil, err
		}
		idx := make([]int, n)
		for j := range idx {
			if idx[j], err = tok.int(); err != nil {
				return nil, fmt.Errorf("off: face %d: %w", i, err)
			}
			if idx[j] < 0 || idx[j] >= nv {
				return nil, fmt.Errorf("off: face %d: vertex %d out of range", i, idx[j])
			}
		}
		tok.skipLine() // optional face color
		for j := 1; j+1 < n; j++ {
			triangles = append(triangles, NewTriangleForPoints(vs[idx[0]], vs[idx[j]], vs[idx[j+1]]))
		}
	}

	mesh := NewTriangleMesh(triangles)
	mesh.CenterAndScaleToUnit()
	mesh.SmoothNormals()
	return mesh, nil
}

// tokenizer splits OFF input into whitespace separated words, skipping
// comments.
type tokenizer struct {
	scanner *bufio.Scanner
	words   []string
}

func newTokenizer(r io.Reader) *tokenizer {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &tokenizer{scanner: s}
}

func (t *tokenizer) next() (string, error) {
	for len(t.words) == 0 {
		if !t.scanner.Scan() {
			if err := t.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		line := t.scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		t.words = strings.Fields(line)
	}
	w := t.words[0]
	t.words = t.words[1:]
	return w, nil
}

func (t *tokenizer) skipLine() {
	t.words = nil
}

func (t *tokenizer) int() (int, error) {
	w, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(w)
}

func (t *tokenizer) float() (float64, error) {
	w, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(w, 64)
}
