package render

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LoadMesh picks a loader from the file extension.
func LoadMesh(path string) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".off":
		return LoadOFF(path)
	case ".obj":
		return LoadOBJ(path)
	case ".gltf", ".glb":
		return LoadGLTF(path)
	}
	return nil, fmt.Errorf("render: unsupported mesh format %q", filepath.Ext(path))
}
