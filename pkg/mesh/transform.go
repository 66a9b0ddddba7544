package mesh

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// withPoints returns a mesh sharing m's topology over new coordinates.
func (m *Mesh) withPoints(points []v3.Vec) *Mesh {
	out := &Mesh{
		points:    points,
		faces:     m.faces,
		normals:   make([]v3.Vec, len(m.faces)),
		halfEdges: m.halfEdges,
		outgoing:  m.outgoing,
	}
	for f, tri := range m.faces {
		out.normals[f] = faceNormal(points[tri[0]], points[tri[1]], points[tri[2]])
	}
	return out
}

// Translate returns a copy of m moved by offset.
func (m *Mesh) Translate(offset v3.Vec) *Mesh {
	points := make([]v3.Vec, len(m.points))
	for i, p := range m.points {
		points[i] = p.Add(offset)
	}
	return m.withPoints(points)
}

// Scale returns a copy of m scaled per axis. Factors must be positive so
// that the winding keeps facing outward.
func (m *Mesh) Scale(factor v3.Vec) (*Mesh, error) {
	if factor.X <= 0 || factor.Y <= 0 || factor.Z <= 0 {
		return nil, fmt.Errorf("mesh: scale factors must be positive, got %v", factor)
	}
	points := make([]v3.Vec, len(m.points))
	for i, p := range m.points {
		points[i] = p.Mul(factor)
	}
	return m.withPoints(points), nil
}

// Ground returns a copy of m translated along Z so that its lowest point
// sits exactly on z=0. Feature extraction requires a grounded mesh.
func (m *Mesh) Ground() *Mesh {
	bb := m.Bounds()
	if bb.Min.Z == 0 {
		return m
	}
	return m.Translate(v3.Vec{Z: -bb.Min.Z})
}
