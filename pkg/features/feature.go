// Package features extracts the flat, horizontal regions of a closed
// triangle mesh as a tree of machining features. Each feature is bounded by
// a ridge: the closed walk of mesh edges where a flat region meets the
// non-flat geometry around it. Every ridge edge records whether that
// geometry folds up or down.
package features

import (
	"fmt"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/paulmach/orb"
	"github.com/thatch/potatocam/pkg/mesh"
	"github.com/thatch/potatocam/pkg/polyline"
)

// FoldDirection is the way the face across a ridge edge leaves the plane
// of the flat face.
type FoldDirection int

const (
	// FoldNone marks an edge whose far side is coplanar: not a ridge edge.
	FoldNone FoldDirection = iota
	FoldUp
	FoldDown
)

func (d FoldDirection) String() string {
	switch d {
	case FoldNone:
		return "none"
	case FoldUp:
		return "up"
	case FoldDown:
		return "down"
	}
	return fmt.Sprintf("FoldDirection(%d)", int(d))
}

// PolygonOrientation tells outer boundaries from holes. The labels are
// inverted relative to the usual 2D convention so that a positive cutter
// offset grows the region to be cut for both outlines and pockets.
type PolygonOrientation int

const (
	// Outside is a counter-clockwise outline.
	Outside PolygonOrientation = iota
	// Inside is a clockwise outline.
	Inside
)

func (o PolygonOrientation) String() string {
	switch o {
	case Outside:
		return "outside"
	case Inside:
		return "inside"
	}
	return fmt.Sprintf("PolygonOrientation(%d)", int(o))
}

// SpecialFeatureType tags the features lying at the extremes of the mesh.
type SpecialFeatureType int

const (
	Normal SpecialFeatureType = iota
	Top
	Bottom
)

func (s SpecialFeatureType) String() string {
	switch s {
	case Normal:
		return "normal"
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	}
	return fmt.Sprintf("SpecialFeatureType(%d)", int(s))
}

// Feature is one flat region of the mesh, or a hole in one.
type Feature struct {
	Height      float64
	Orientation PolygonOrientation
	// Normal is the face normal of the flat region; its Z sign says whether
	// the region faces up or down.
	Normal v3.Vec
	Flags  SpecialFeatureType

	// Outline is the closed ridge in XY. Folds[i] belongs to the edge from
	// Outline[i] to Outline[i+1].
	Outline []v2.Vec
	Folds   []FoldDirection

	// Holes are the other ridges of the same connected flat region. Holes
	// never have holes of their own.
	Holes []*Feature

	// Faces lists the flat faces of the connected region. Only top-level
	// features carry it.
	Faces []mesh.FaceID
}

// Roll rotates Outline and Folds so that the outline starts at its
// lexicographically smallest point. The traversal direction is kept.
func (f *Feature) Roll() {
	if len(f.Outline) == 0 {
		return
	}
	start := 0
	for i, p := range f.Outline {
		if lessPoint(p, f.Outline[start]) {
			start = i
		}
	}
	f.Outline = rotate(f.Outline, start)
	f.Folds = rotate(f.Folds, start)
}

func lessPoint(a, b v2.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

func rotate[T any](s []T, n int) []T {
	if n == 0 || len(s) == 0 {
		return s
	}
	out := make([]T, 0, len(s))
	out = append(out, s[n:]...)
	return append(out, s[:n]...)
}

// Ring returns the outline as a closed orb ring.
func (f *Feature) Ring() orb.Ring {
	r := make(orb.Ring, 0, len(f.Outline)+1)
	for _, p := range f.Outline {
		r = append(r, orb.Point{p.X, p.Y})
	}
	if len(r) > 0 {
		r = append(r, r[0])
	}
	return r
}

// Bounds returns the XY bounding box of the outline.
func (f *Feature) Bounds() orb.Bound {
	return f.Ring().Bound()
}

// BoundsArea is the area of Bounds. Holes are told from outer boundaries by
// this value rather than by true polygon area.
func (f *Feature) BoundsArea() float64 {
	b := f.Bounds()
	return (b.Max.X() - b.Min.X()) * (b.Max.Y() - b.Min.Y())
}

// Polyline converts the outline into a straight-segment polyline whose
// segment flags carry the fold directions.
func (f *Feature) Polyline() *polyline.Polyline {
	segs := make([]polyline.Segment, len(f.Outline))
	for i, p := range f.Outline {
		segs[i] = polyline.Segment{Point: p}
		if i < len(f.Folds) {
			switch f.Folds[i] {
			case FoldUp:
				segs[i].Flags = polyline.FoldUp
			case FoldDown:
				segs[i].Flags = polyline.FoldDown
			}
		}
	}
	pl := polyline.New(segs...)
	pl.Normal = f.Normal
	return pl
}

func (f *Feature) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Feature(height=%g, %s, %s, normal=(%g,%g,%g), outline=[",
		f.Height, f.Orientation, f.Flags, f.Normal.X, f.Normal.Y, f.Normal.Z)
	for i, p := range f.Outline {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "(%g,%g)", p.X, p.Y)
	}
	sb.WriteString("], folds=[")
	for i, d := range f.Folds {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(d.String())
	}
	fmt.Fprintf(&sb, "], holes=%d)", len(f.Holes))
	return sb.String()
}
