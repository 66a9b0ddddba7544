// Package mesh provides a read-only half-edge arena over an indexed
// triangle mesh. Vertices, faces and half-edges live in flat slices and
// refer to each other by integer ids.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// VertexID indexes Mesh points.
type VertexID int

// FaceID indexes Mesh faces.
type FaceID int

// HalfEdgeID indexes Mesh half-edges. Half-edge 3f+k belongs to face f and
// runs from corner k to corner k+1.
type HalfEdgeID int

// NoHalfEdge is returned where no half-edge exists.
const NoHalfEdge HalfEdgeID = -1

var (
	// ErrOpenMesh is returned when an edge has no opposite half-edge.
	ErrOpenMesh = errors.New("mesh: open boundary edge")
	// ErrNonManifold is returned when a directed edge is used by more than
	// one face, which happens with inconsistent winding or more than two
	// faces on one edge.
	ErrNonManifold = errors.New("mesh: non-manifold edge")
)

type halfEdge struct {
	from, to VertexID
	face     FaceID
	next     HalfEdgeID
	twin     HalfEdgeID
}

// Mesh is a closed, consistently wound triangle mesh. It is never mutated
// after construction and is safe for concurrent readers.
type Mesh struct {
	points    []v3.Vec
	faces     [][3]VertexID
	normals   []v3.Vec
	halfEdges []halfEdge
	outgoing  [][]HalfEdgeID
}

// New builds the half-edge arena for points and triangles. Triangles must
// be wound counter-clockwise when seen from outside the solid.
func New(points []v3.Vec, triangles [][3]int) (*Mesh, error) {
	m := &Mesh{
		points:    points,
		faces:     make([][3]VertexID, len(triangles)),
		normals:   make([]v3.Vec, len(triangles)),
		halfEdges: make([]halfEdge, 3*len(triangles)),
		outgoing:  make([][]HalfEdgeID, len(points)),
	}

	directed := make(map[[2]VertexID]HalfEdgeID, 3*len(triangles))
	for f, tri := range triangles {
		for k, idx := range tri {
			if idx < 0 || idx >= len(points) {
				return nil, fmt.Errorf("mesh: face %d: vertex index %d out of range", f, idx)
			}
			m.faces[f][k] = VertexID(idx)
		}
		a, b, c := m.faces[f][0], m.faces[f][1], m.faces[f][2]
		if a == b || b == c || c == a {
			return nil, fmt.Errorf("mesh: face %d: repeated vertex in %v", f, tri)
		}
		m.normals[f] = faceNormal(points[a], points[b], points[c])

		for k := 0; k < 3; k++ {
			he := HalfEdgeID(3*f + k)
			from, to := m.faces[f][k], m.faces[f][(k+1)%3]
			key := [2]VertexID{from, to}
			if other, dup := directed[key]; dup {
				return nil, fmt.Errorf("%w: %d->%d used by faces %d and %d",
					ErrNonManifold, from, to, m.halfEdges[other].face, f)
			}
			directed[key] = he
			m.halfEdges[he] = halfEdge{
				from: from,
				to:   to,
				face: FaceID(f),
				next: HalfEdgeID(3*f + (k+1)%3),
			}
			m.outgoing[from] = append(m.outgoing[from], he)
		}
	}

	for i := range m.halfEdges {
		he := &m.halfEdges[i]
		twin, ok := directed[[2]VertexID{he.to, he.from}]
		if !ok {
			return nil, fmt.Errorf("%w: %d->%d on face %d", ErrOpenMesh, he.from, he.to, he.face)
		}
		he.twin = twin
	}
	return m, nil
}

// faceNormal returns the unit normal of triangle abc, or the zero vector
// for a triangle without area.
func faceNormal(a, b, c v3.Vec) v3.Vec {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Length()
	if l == 0 || math.IsNaN(l) {
		return v3.Vec{}
	}
	return v3.Vec{X: n.X / l, Y: n.Y / l, Z: n.Z / l}
}

// NumVertices returns the number of points.
func (m *Mesh) NumVertices() int { return len(m.points) }

// NumFaces returns the number of triangles.
func (m *Mesh) NumFaces() int { return len(m.faces) }

// NumHalfEdges returns the number of half-edges, three per face.
func (m *Mesh) NumHalfEdges() int { return len(m.halfEdges) }

// Points returns the vertex coordinates. The slice must not be modified.
func (m *Mesh) Points() []v3.Vec { return m.points }

// Point returns the coordinates of v.
func (m *Mesh) Point(v VertexID) v3.Vec { return m.points[v] }

// FaceVertices returns the three corners of f in winding order.
func (m *Mesh) FaceVertices(f FaceID) [3]VertexID { return m.faces[f] }

// FaceNormal returns the unit outward normal of f.
func (m *Mesh) FaceNormal(f FaceID) v3.Vec { return m.normals[f] }

// HalfEdgeOf returns the first half-edge of f.
func (m *Mesh) HalfEdgeOf(f FaceID) HalfEdgeID { return HalfEdgeID(3 * f) }

// Next returns the half-edge following he around its face.
func (m *Mesh) Next(he HalfEdgeID) HalfEdgeID { return m.halfEdges[he].next }

// Twin returns the opposite half-edge of he on the neighbouring face.
func (m *Mesh) Twin(he HalfEdgeID) HalfEdgeID { return m.halfEdges[he].twin }

// Face returns the face owning he.
func (m *Mesh) Face(he HalfEdgeID) FaceID { return m.halfEdges[he].face }

// From returns the origin vertex of he.
func (m *Mesh) From(he HalfEdgeID) VertexID { return m.halfEdges[he].from }

// To returns the destination vertex of he.
func (m *Mesh) To(he HalfEdgeID) VertexID { return m.halfEdges[he].to }

// Outgoing returns every half-edge leaving v, in face order.
func (m *Mesh) Outgoing(v VertexID) []HalfEdgeID { return m.outgoing[v] }

// AdjacentFaces returns the three faces sharing an edge with f.
func (m *Mesh) AdjacentFaces(f FaceID) []FaceID {
	he := m.HalfEdgeOf(f)
	adj := make([]FaceID, 0, 3)
	for k := 0; k < 3; k++ {
		adj = append(adj, m.Face(m.Twin(he)))
		he = m.Next(he)
	}
	return adj
}

// Bounds returns the axis-aligned bounding box of all points.
func (m *Mesh) Bounds() sdf.Box3 {
	if len(m.points) == 0 {
		return sdf.Box3{}
	}
	bb := sdf.Box3{Min: m.points[0], Max: m.points[0]}
	for _, p := range m.points[1:] {
		bb.Min = bb.Min.Min(p)
		bb.Max = bb.Max.Max(p)
	}
	return bb
}
