package render

import (
	"fmt"
	"net/http"
	"time"

	"github.com/netisu/xtoon"
)

// Object struct for objects
// objects can be passed to the renderer to be rendered
type Object struct {
	Mesh   *Mesh
	Color  xtoon.Color
	Matrix Matrix
}

// NewEmptyObject returns an empty object
func NewEmptyObject() *Object {
	return &Object{Matrix: Identity()}
}

func NewObjectFromMesh(mesh *Mesh) *Object {
	return &Object{Mesh: mesh, Matrix: Identity()}
}

// NewObjectFromFile loads an OFF, OBJ or glTF mesh.
func NewObjectFromFile(path string) (*Object, error) {
	mesh, err := LoadMesh(path)
	if err != nil {
		return nil, err
	}
	return NewObjectFromMesh(mesh), nil
}

// SetColor set the color of the mesh
func (o *Object) SetColor(c xtoon.Color) {
	o.Color = c
	if o.Mesh != nil {
		o.Mesh.SetColor(c)
	}
}

// LoadObjectFromURL fetches an OBJ file.
func LoadObjectFromURL(url string) (*Mesh, error) {
	client := http.Client{
		Timeout: 10 * time.Second, // Prevent hanging
	}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render: fetch %s: %s", url, resp.Status)
	}
	return LoadOBJFromReader(resp.Body)
}
