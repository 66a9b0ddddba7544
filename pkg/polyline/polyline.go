// Package polyline represents closed 2D paths made of straight and
// circular-arc segments and computes their parallel offsets, the shape a
// cutter of a given radius must follow to clear a contour.
//
// A positive offset moves every segment along its outward normal. For a
// counter-clockwise path that grows the enclosed area; for a clockwise path
// it shrinks it.
package polyline

import (
	"errors"
	"fmt"
	"math"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MaxCurve is the largest arc, in degrees, a single segment may turn.
const MaxCurve = 90.0

// SmoothTolerance is the per-component tolerance under which the normals
// on both sides of a vertex are considered equal.
const SmoothTolerance = 1e-4

var (
	// ErrUnsupportedCurve is returned for a segment turning more than
	// MaxCurve degrees.
	ErrUnsupportedCurve = errors.New("polyline: arc exceeds 90 degrees")
	// ErrDegenerate is returned for paths with fewer than three segments or
	// a zero-length segment.
	ErrDegenerate = errors.New("polyline: degenerate path")
	// ErrSelfIntersection is returned when the offset distance exceeds the
	// local size of the path and the result would cross or invert itself.
	ErrSelfIntersection = errors.New("polyline: offset path self-intersects")
	// ErrOffsetCount is returned when the number of offsets does not match
	// the number of segments.
	ErrOffsetCount = errors.New("polyline: one offset per segment required")
)

// SegmentFlags carries mesh fold metadata through the 2D domain.
type SegmentFlags uint8

const (
	FoldUp SegmentFlags = 1 << iota
	FoldDown
)

func (f SegmentFlags) String() string {
	var parts []string
	if f&FoldUp != 0 {
		parts = append(parts, "up")
	}
	if f&FoldDown != 0 {
		parts = append(parts, "down")
	}
	return strings.Join(parts, "|")
}

// Segment runs from Point to the next segment's Point. A non-zero Curve
// makes it a circular arc turning that many degrees; positive arcs turn
// counter-clockwise and bulge to the right of travel.
type Segment struct {
	Point v2.Vec
	Curve float64
	Flags SegmentFlags
}

// Arc returns the center and radius of s when it ends at next. ok is false
// for straight segments.
func (s Segment) Arc(next v2.Vec) (center v2.Vec, radius float64, ok bool) {
	if s.Curve == 0 {
		return v2.Vec{}, 0, false
	}
	center, radius = arcCenter(s.Point, next, s.Curve)
	return center, radius, true
}

// Polyline is a closed path: the last segment runs back to the first
// point.
type Polyline struct {
	Segments []Segment
	// Normal is the outward normal of the plane the path lies in.
	Normal v3.Vec
}

// New returns a polyline over segs facing +Z.
func New(segs ...Segment) *Polyline {
	return &Polyline{Segments: segs, Normal: v3.Vec{Z: 1}}
}

// FromPoints returns a polygon of straight segments.
func FromPoints(pts ...v2.Vec) *Polyline {
	segs := make([]Segment, len(pts))
	for i, p := range pts {
		segs[i].Point = p
	}
	return New(segs...)
}

// Len returns the number of segments.
func (p *Polyline) Len() int { return len(p.Segments) }

func (p *Polyline) seg(i int) Segment {
	n := len(p.Segments)
	return p.Segments[((i%n)+n)%n]
}

// Normals returns the outward normals where segment i leaves its start
// point and where it arrives at its end point. For straight segments both
// are the same.
func (p *Polyline) Normals(i int) (enter, leave v2.Vec, err error) {
	if len(p.Segments) < 2 {
		return v2.Vec{}, v2.Vec{}, fmt.Errorf("%w: %d segments", ErrDegenerate, len(p.Segments))
	}
	s := p.seg(i)
	if math.Abs(s.Curve) > MaxCurve {
		return v2.Vec{}, v2.Vec{}, fmt.Errorf("%w: segment %d turns %g", ErrUnsupportedCurve, i, s.Curve)
	}
	d := s.Point.Sub(p.seg(i + 1).Point)
	if d.X == 0 && d.Y == 0 {
		return v2.Vec{}, v2.Vec{}, fmt.Errorf("%w: segment %d has zero length", ErrDegenerate, i)
	}
	base := normalize(perp(d))
	if s.Curve == 0 {
		return base, base, nil
	}
	return rotate(base, -s.Curve/2), rotate(base, s.Curve/2), nil
}

func nearlyEqual(a, b v2.Vec) bool {
	return math.Abs(a.X-b.X) < SmoothTolerance && math.Abs(a.Y-b.Y) < SmoothTolerance
}

// IsSmooth reports whether the path continues without a corner at the
// start of segment i.
func (p *Polyline) IsSmooth(i int) (bool, error) {
	_, leave, err := p.Normals(i - 1)
	if err != nil {
		return false, err
	}
	enter, _, err := p.Normals(i)
	if err != nil {
		return false, err
	}
	return nearlyEqual(leave, enter), nil
}

// JointKind classifies the vertex between two segments.
type JointKind int

const (
	JointSmooth JointKind = iota
	// JointConvex turns counter-clockwise: a positive offset opens a gap
	// there that must be bridged with an arc.
	JointConvex
	// JointConcave turns clockwise: a positive offset makes the neighbours
	// overlap and they must be trimmed.
	JointConcave
)

func (k JointKind) String() string {
	switch k {
	case JointSmooth:
		return "smooth"
	case JointConvex:
		return "convex"
	case JointConcave:
		return "concave"
	}
	return fmt.Sprintf("JointKind(%d)", int(k))
}

// Joint classifies the vertex at the start of segment i.
func (p *Polyline) Joint(i int) (JointKind, error) {
	_, leave, err := p.Normals(i - 1)
	if err != nil {
		return 0, err
	}
	enter, _, err := p.Normals(i)
	if err != nil {
		return 0, err
	}
	return classify(leave, enter), nil
}

func classify(leave, enter v2.Vec) JointKind {
	if nearlyEqual(leave, enter) {
		return JointSmooth
	}
	if cross(leave, enter) < 0 {
		return JointConcave
	}
	// A full reversal has no cross product; the offset must wrap around
	// the tip like any convex corner.
	return JointConvex
}

// Roll rotates the segment list to start at the lexicographically smallest
// point. Curves and flags stay with their segments and the direction of
// travel is kept.
func (p *Polyline) Roll() {
	if len(p.Segments) == 0 {
		return
	}
	start := 0
	for i, s := range p.Segments {
		a, b := s.Point, p.Segments[start].Point
		if a.X < b.X || (a.X == b.X && a.Y < b.Y) {
			start = i
		}
	}
	if start == 0 {
		return
	}
	segs := make([]Segment, 0, len(p.Segments))
	segs = append(segs, p.Segments[start:]...)
	p.Segments = append(segs, p.Segments[:start]...)
}

// Flatten approximates the path by straight chords, subdividing arcs so
// that no chord spans more than step degrees. The closing point is not
// repeated.
func (p *Polyline) Flatten(step float64) []v2.Vec {
	if step <= 0 {
		step = 10
	}
	var out []v2.Vec
	for i, s := range p.Segments {
		out = append(out, s.Point)
		c, _, ok := s.Arc(p.seg(i + 1).Point)
		if !ok {
			continue
		}
		k := int(math.Ceil(math.Abs(s.Curve)/step - 1e-9))
		rel := s.Point.Sub(c)
		for m := 1; m < k; m++ {
			out = append(out, c.Add(rotate(rel, s.Curve*float64(m)/float64(k))))
		}
	}
	return out
}

func (p *Polyline) String() string {
	var sb strings.Builder
	sb.WriteString("Polyline([")
	for i, s := range p.Segments {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "(%g,%g)", s.Point.X, s.Point.Y)
		if s.Curve != 0 {
			fmt.Fprintf(&sb, " curve=%g", s.Curve)
		}
		if s.Flags != 0 {
			fmt.Fprintf(&sb, " fold=%s", s.Flags)
		}
	}
	fmt.Fprintf(&sb, "], normal=(%g,%g,%g))", p.Normal.X, p.Normal.Y, p.Normal.Z)
	return sb.String()
}
