package render

// clipPlanes bound the view volume -w <= x, y, z <= w. A position p is
// inside a plane when p·plane >= 0.
var clipPlanes = [...]VectorW{
	{1, 0, 0, 1},
	{-1, 0, 0, 1},
	{0, 1, 0, 1},
	{0, -1, 0, 1},
	{0, 0, 1, 1},
	{0, 0, -1, 1},
}

// ClipTriangle clips t against the view volume and fans the remaining
// polygon back into triangles.
func ClipTriangle(t *Triangle) []*Triangle {
	poly := []Vertex{t.V1, t.V2, t.V3}
	for _, plane := range clipPlanes {
		poly = clipPolygon(poly, plane)
		if len(poly) < 3 {
			return nil
		}
	}
	result := make([]*Triangle, 0, len(poly)-2)
	for i := 1; i < len(poly)-1; i++ {
		result = append(result, &Triangle{poly[0], poly[i], poly[i+1]})
	}
	return result
}

// clipPolygon is one Sutherland-Hodgman pass against plane.
func clipPolygon(poly []Vertex, plane VectorW) []Vertex {
	out := make([]Vertex, 0, len(poly)+1)
	for i, cur := range poly {
		prev := poly[(i+len(poly)-1)%len(poly)]
		dc := cur.Output.Dot(plane)
		dp := prev.Output.Dot(plane)
		if dc >= 0 {
			if dp < 0 {
				out = append(out, lerpVertex(prev, cur, dp/(dp-dc)))
			}
			out = append(out, cur)
		} else if dp >= 0 {
			out = append(out, lerpVertex(prev, cur, dp/(dp-dc)))
		}
	}
	return out
}
