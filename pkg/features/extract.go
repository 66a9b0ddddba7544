package features

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/paulmach/orb"
	"github.com/thatch/potatocam/internal/logging"
	"github.com/thatch/potatocam/pkg/mesh"
)

// DefaultTolerance is the Z difference below which the far side of an edge
// counts as coplanar.
const DefaultTolerance = 1e-100

var (
	// ErrNotGrounded is returned when the lowest point of the mesh is not
	// at z=0.
	ErrNotGrounded = errors.New("features: mesh minimum Z must be 0")
	// ErrEmptyMesh is returned for a mesh without faces.
	ErrEmptyMesh = errors.New("features: mesh has no faces")
	// ErrNonClosedRidge is matched by every *RidgeError.
	ErrNonClosedRidge = errors.New("features: non-closed ridge")
)

// RidgeError reports a ridge walk that could not return to its start,
// which only happens on malformed or non-manifold meshes.
type RidgeError struct {
	HalfEdge mesh.HalfEdgeID
	Reason   string
}

func (e *RidgeError) Error() string {
	return fmt.Sprintf("features: non-closed ridge at half-edge %d: %s", e.HalfEdge, e.Reason)
}

// Is makes errors.Is(err, ErrNonClosedRidge) hold.
func (e *RidgeError) Is(target error) bool { return target == ErrNonClosedRidge }

// Mesh is the half-edge navigation the extractor needs. *mesh.Mesh
// implements it.
type Mesh interface {
	NumFaces() int
	NumHalfEdges() int
	Points() []v3.Vec
	Point(v mesh.VertexID) v3.Vec
	FaceNormal(f mesh.FaceID) v3.Vec
	HalfEdgeOf(f mesh.FaceID) mesh.HalfEdgeID
	Next(he mesh.HalfEdgeID) mesh.HalfEdgeID
	Twin(he mesh.HalfEdgeID) mesh.HalfEdgeID
	Face(he mesh.HalfEdgeID) mesh.FaceID
	From(he mesh.HalfEdgeID) mesh.VertexID
	To(he mesh.HalfEdgeID) mesh.VertexID
	Outgoing(v mesh.VertexID) []mesh.HalfEdgeID
	AdjacentFaces(f mesh.FaceID) []mesh.FaceID
}

var _ Mesh = (*mesh.Mesh)(nil)

// Option configures an Extractor.
type Option func(*Extractor)

// WithTolerance sets the coplanarity tolerance used by fold classification.
func WithTolerance(tol float64) Option {
	return func(e *Extractor) {
		e.tolerance = tol
	}
}

// Extractor finds the features of one mesh. The mesh is only read, so
// several extractors may share it; an Extractor itself is not safe for
// concurrent use.
type Extractor struct {
	mesh      Mesh
	tolerance float64
	minZ      float64
	maxZ      float64
	log       *slog.Logger

	seen     []bool
	features []*Feature
}

// NewExtractor checks the mesh preconditions and returns an extractor.
func NewExtractor(m Mesh, opts ...Option) (*Extractor, error) {
	if m.NumFaces() == 0 {
		return nil, ErrEmptyMesh
	}
	e := &Extractor{
		mesh:      m,
		tolerance: DefaultTolerance,
		minZ:      math.Inf(1),
		maxZ:      math.Inf(-1),
		log:       logging.Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, p := range m.Points() {
		e.minZ = math.Min(e.minZ, p.Z)
		e.maxZ = math.Max(e.maxZ, p.Z)
	}
	if e.minZ != 0 {
		return nil, fmt.Errorf("%w (got %g)", ErrNotGrounded, e.minZ)
	}
	return e, nil
}

// Extract runs the extraction over m with a fresh Extractor.
func Extract(m Mesh, opts ...Option) ([]*Feature, error) {
	e, err := NewExtractor(m, opts...)
	if err != nil {
		return nil, err
	}
	return e.Extract()
}

// Features returns the result of the last successful Extract.
func (e *Extractor) Features() []*Feature {
	return e.features
}

// Extract finds every flat region of the mesh and returns one top-level
// feature per connected region, in face order of discovery. Calling it
// again starts over.
func (e *Extractor) Extract() ([]*Feature, error) {
	e.seen = make([]bool, e.mesh.NumFaces())
	e.features = nil

	var found []*Feature
	for i := 0; i < e.mesh.NumFaces(); i++ {
		f := mesh.FaceID(i)
		if e.seen[f] || !e.isFlat(f) {
			continue
		}
		he := e.mesh.HalfEdgeOf(f)
		for k := 0; k < 3; k++ {
			if e.fold(he, e.height(he)) != FoldNone {
				feat, err := e.extractPlateau(he)
				if err != nil {
					return nil, err
				}
				found = append(found, feat)
				break
			}
			he = e.mesh.Next(he)
		}
	}
	e.features = found
	return found, nil
}

// isFlat reports whether f is horizontal within a fixed angular tolerance.
func (e *Extractor) isFlat(f mesh.FaceID) bool {
	nz := math.Abs(e.mesh.FaceNormal(f).Z)
	return nz >= 0.999 && nz <= 1.001
}

func (e *Extractor) height(he mesh.HalfEdgeID) float64 {
	return e.mesh.Point(e.mesh.From(he)).Z
}

// fold classifies the edge of he against a flat face at height z by looking
// at the vertex of the neighbouring face that is not on the edge.
func (e *Extractor) fold(he mesh.HalfEdgeID, z float64) FoldDirection {
	opp := e.mesh.To(e.mesh.Next(e.mesh.Twin(he)))
	dz := e.mesh.Point(opp).Z - z
	switch {
	case math.Abs(dz) < e.tolerance:
		return FoldNone
	case dz < 0:
		return FoldDown
	default:
		return FoldUp
	}
}

// extractPlateau resolves the connected flat region containing seed into a
// feature and its holes.
func (e *Extractor) extractPlateau(seed mesh.HalfEdgeID) (*Feature, error) {
	z := e.height(seed)
	n := e.mesh.NumFaces()

	consumed := make([]bool, n)
	first, err := e.traceRidge(seed, consumed)
	if err != nil {
		return nil, err
	}
	ridges := []*Feature{first}

	start := e.mesh.Face(seed)
	visited := make([]bool, n)
	visited[start] = true
	stack := []mesh.FaceID{start}
	var region []mesh.FaceID
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		region = append(region, f)

		if !consumed[f] {
			he := e.mesh.HalfEdgeOf(f)
			for k := 0; k < 3; k++ {
				if e.fold(he, z) != FoldNone {
					r, err := e.traceRidge(he, consumed)
					if err != nil {
						return nil, err
					}
					ridges = append(ridges, r)
					break
				}
				he = e.mesh.Next(he)
			}
		}

		for _, adj := range e.mesh.AdjacentFaces(f) {
			if !visited[adj] && e.isFlat(adj) {
				visited[adj] = true
				stack = append(stack, adj)
			}
		}
	}

	sort.SliceStable(ridges, func(i, j int) bool {
		return ridges[i].BoundsArea() > ridges[j].BoundsArea()
	})
	top := ridges[0]
	top.Holes = ridges[1:]
	top.Faces = region

	for _, f := range region {
		e.seen[f] = true
	}
	for f, c := range consumed {
		if c {
			e.seen[f] = true
		}
	}

	if e.log.Enabled(context.Background(), slog.LevelDebug) {
		for i, r := range ridges {
			b := r.Bounds()
			e.log.Debug("connected feature",
				"index", i,
				"height", r.Height,
				"orientation", r.Orientation,
				"points", len(r.Outline),
				"min", b.Min, "max", b.Max)
		}
	}
	return top, nil
}

// traceRidge walks the closed ridge through seed, marking every face it
// passes in consumed.
func (e *Extractor) traceRidge(seed mesh.HalfEdgeID, consumed []bool) (*Feature, error) {
	z := e.height(seed)
	var outline []v2.Vec
	var folds []FoldDirection

	he := seed
	limit := e.mesh.NumHalfEdges()
	for steps := 0; ; steps++ {
		if steps >= limit {
			return nil, &RidgeError{HalfEdge: he, Reason: fmt.Sprintf("walk exceeded %d steps", limit)}
		}
		next := mesh.NoHalfEdge
		var dir FoldDirection
		for _, out := range e.mesh.Outgoing(e.mesh.To(he)) {
			if !e.isFlat(e.mesh.Face(out)) {
				continue
			}
			if d := e.fold(out, z); d != FoldNone {
				next, dir = out, d
				break
			}
		}
		if next == mesh.NoHalfEdge {
			return nil, &RidgeError{HalfEdge: he, Reason: "no folded flat edge leaves its end vertex"}
		}

		p := e.mesh.Point(e.mesh.From(next))
		outline = append(outline, v2.Vec{X: p.X, Y: p.Y})
		folds = append(folds, dir)
		he = next
		consumed[e.mesh.Face(he)] = true
		if he == seed {
			break
		}
	}

	// The half-edge walk runs opposite to the outline convention, and each
	// fold was recorded against the edge entering its point.
	reverse(outline)
	reverse(folds)
	folds = rotate(folds, 1)

	f := &Feature{
		Height:  z,
		Normal:  e.mesh.FaceNormal(e.mesh.Face(seed)),
		Outline: outline,
		Folds:   folds,
	}
	if f.Ring().Orientation() == orb.CW {
		f.Orientation = Inside
	} else {
		f.Orientation = Outside
	}
	switch z {
	case e.minZ:
		f.Flags = Bottom
	case e.maxZ:
		f.Flags = Top
	default:
		f.Flags = Normal
	}
	return f, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
