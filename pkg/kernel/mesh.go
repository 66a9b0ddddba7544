package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is a triangle soup as produced by a kernel.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z) and
// indices has 3 entries per triangle. Vertices are not shared between
// triangles unless the backend welds them.
type Mesh struct {
	Vertices []float64 // [x0,y0,z0, x1,y1,z1, ...]
	Indices  []uint32  // [i0,i1,i2, ...] triangles
	Name     string    // part the mesh was rendered from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) v3.Vec {
	return v3.Vec{X: m.Vertices[3*i], Y: m.Vertices[3*i+1], Z: m.Vertices[3*i+2]}
}

// Triangle returns the corners of triangle i.
func (m *Mesh) Triangle(i int) [3]v3.Vec {
	return [3]v3.Vec{
		m.Vertex(int(m.Indices[3*i])),
		m.Vertex(int(m.Indices[3*i+1])),
		m.Vertex(int(m.Indices[3*i+2])),
	}
}

// Bounds returns the bounding box of the vertices. An empty mesh reports
// zero bounds.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	for k := 0; k < 3; k++ {
		min[k], max[k] = math.Inf(1), math.Inf(-1)
	}
	for i := 0; i < len(m.Vertices); i += 3 {
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], m.Vertices[i+k])
			max[k] = math.Max(max[k], m.Vertices[i+k])
		}
	}
	return min, max
}
