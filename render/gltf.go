package render

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/netisu/xtoon"
)

// LoadGLTF loads a .gltf or .glb file
func LoadGLTF(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}

	var allTriangles []*Triangle

	for _, mesh := range doc.Meshes {
		for _, primitive := range mesh.Primitives {
			// We only support Triangles (mode 4)
			if primitive.Mode != gltf.PrimitiveTriangles {
				continue
			}

			posIdx, ok := primitive.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return nil, err
			}

			var normals [][3]float32
			if normIdx, ok := primitive.Attributes[gltf.NORMAL]; ok {
				normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
				if err != nil {
					return nil, err
				}
			}

			var indices []uint32
			if primitive.Indices != nil {
				// ReadIndices automatically converts uint8/uint16/uint32 to []uint32
				indices, err = modeler.ReadIndices(doc, doc.Accessors[*primitive.Indices], nil)
				if err != nil {
					return nil, err
				}
			} else {
				// If no indices are provided, generate linear indices (0, 1, 2, ...)
				indices = make([]uint32, len(positions))
				for k := range indices {
					indices[k] = uint32(k)
				}
			}

			vertex := func(i uint32) (Vertex, error) {
				if int(i) >= len(positions) {
					return Vertex{}, fmt.Errorf("gltf: index %d out of range", i)
				}
				v := Vertex{Position: vector32(positions[i])}
				if int(i) < len(normals) {
					v.Normal = vector32(normals[i]).Normalize()
				}
				return v, nil
			}

			for i := 0; i+2 < len(indices); i += 3 {
				t := &Triangle{}
				if t.V1, err = vertex(indices[i]); err != nil {
					return nil, err
				}
				if t.V2, err = vertex(indices[i+1]); err != nil {
					return nil, err
				}
				if t.V3, err = vertex(indices[i+2]); err != nil {
					return nil, err
				}
				t.FixNormals()
				allTriangles = append(allTriangles, t)
			}
		}
	}

	if len(allTriangles) == 0 {
		return nil, fmt.Errorf("gltf: no triangles found in %s", path)
	}

	return NewTriangleMesh(allTriangles), nil
}

func vector32(v [3]float32) xtoon.Vector {
	return xtoon.V(float64(v[0]), float64(v[1]), float64(v[2]))
}
