package render

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/netisu/xtoon"
)

func LoadOBJ(path string) (*Mesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadOBJFromReader(file)
}

func LoadOBJFromBytes(b []byte) (*Mesh, error) {
	return LoadOBJFromReader(bytes.NewReader(b))
}

// LoadOBJFromReader reads positions, normals and polygonal faces. Faces are
// fanned into triangles; texture coordinates are ignored.
func LoadOBJFromReader(r io.Reader) (*Mesh, error) {
	vs := make([]xtoon.Vector, 1, 1024)
	vns := make([]xtoon.Vector, 1, 1024)

	var triangles []*Triangle
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) < 2 || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v", "vn":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj: line %d: expected 3 components", lineNo)
			}
			v, err := parseVector(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("obj: line %d: %w", lineNo, err)
			}
			if fields[0] == "v" {
				vs = append(vs, v)
			} else {
				vns = append(vns, v)
			}
		case "f":
			args := fields[1:]
			fvs := make([]int, len(args))
			fvns := make([]int, len(args))

			for i, arg := range args {
				vertex := strings.Split(arg+"//", "/")
				fvs[i] = fixIndex(vertex[0], len(vs))
				fvns[i] = fixIndex(vertex[2], len(vns))
				if fvs[i] <= 0 || fvs[i] >= len(vs) || fvns[i] < 0 || fvns[i] >= len(vns) {
					return nil, fmt.Errorf("obj: line %d: index out of range in %q", lineNo, arg)
				}
			}

			for i := 1; i < len(fvs)-1; i++ {
				t := &Triangle{}
				i1, i2, i3 := 0, i, i+1

				t.V1.Position = vs[fvs[i1]]
				t.V2.Position = vs[fvs[i2]]
				t.V3.Position = vs[fvs[i3]]

				if fvns[i1] > 0 && fvns[i2] > 0 && fvns[i3] > 0 {
					t.V1.Normal = vns[fvns[i1]].Normalize()
					t.V2.Normal = vns[fvns[i2]].Normalize()
					t.V3.Normal = vns[fvns[i3]].Normalize()
				}

				t.FixNormals()
				triangles = append(triangles, t)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewTriangleMesh(triangles), nil
}

func parseVector(fields []string) (xtoon.Vector, error) {
	var c [3]float64
	for i := range c {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return xtoon.Vector{}, err
		}
		c[i] = f
	}
	return xtoon.V(c[0], c[1], c[2]), nil
}

// Helper to handle negative indices in OBJ
func fixIndex(value string, length int) int {
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	if parsed < 0 {
		return parsed + length
	}
	return parsed
}
