package polyline

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

const (
	lengthEps = 1e-9
	// angleEps is in degrees.
	angleEps = 1e-7
	// checkStep is the chord angle used when flattening for the
	// self-intersection check.
	checkStep = 10.0
)

// carrier is the infinite line or full circle an offset segment lies on.
type carrier struct {
	line bool
	// origin is a point on the line, or the circle center.
	origin v2.Vec
	// dir is the unit direction of travel along a line.
	dir    v2.Vec
	radius float64
}

func intersect(a, b carrier) []v2.Vec {
	switch {
	case a.line && b.line:
		if p, ok := lineLine(a.origin, a.dir, b.origin, b.dir); ok {
			return []v2.Vec{p}
		}
		return nil
	case a.line:
		return lineCircle(a.origin, a.dir, b.origin, b.radius)
	case b.line:
		return lineCircle(b.origin, b.dir, a.origin, a.radius)
	}
	return circleCircle(a.origin, a.radius, b.origin, b.radius)
}

type offsetSeg struct {
	src          Segment
	d            float64
	enter, leave v2.Vec
	start, end   v2.Vec
	c            carrier
	// vanished marks an arc offset onto its own center.
	vanished bool
}

// curve checks the trimmed segment against its source and returns the
// turning angle of the result.
func (s *offsetSeg) curve(i int) (float64, error) {
	if s.c.line {
		if s.end.Sub(s.start).Dot(s.c.dir) <= lengthEps {
			return 0, fmt.Errorf("%w: segment %d reversed", ErrSelfIntersection, i)
		}
		return 0, nil
	}
	c := s.c.origin
	a0 := math.Atan2(s.start.Y-c.Y, s.start.X-c.X)
	a1 := math.Atan2(s.end.Y-c.Y, s.end.X-c.X)
	var sweep float64
	if s.src.Curve > 0 {
		sweep = mod2pi(a1 - a0)
	} else {
		sweep = -mod2pi(a0 - a1)
	}
	sweep /= radPerDeg

	limit := math.Abs(s.src.Curve)
	switch {
	case math.Abs(sweep) < angleEps:
		return 0, fmt.Errorf("%w: arc %d collapsed", ErrSelfIntersection, i)
	case math.Abs(math.Abs(sweep)-limit) <= angleEps:
		return s.src.Curve, nil
	case math.Abs(sweep) > limit:
		return 0, fmt.Errorf("%w: arc %d would grow from %g to %g degrees", ErrSelfIntersection, i, s.src.Curve, sweep)
	}
	return sweep, nil
}

func mod2pi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Offset moves every segment by d along its outward normal.
func (p *Polyline) Offset(d float64) (*Polyline, error) {
	offsets := make([]float64, len(p.Segments))
	for i := range offsets {
		offsets[i] = d
	}
	return p.OffsetCustom(offsets)
}

// OffsetCustom moves segment i by offsets[i] along its outward normal and
// rebuilds the corners between them:
//
//   - at a smooth vertex the neighbours already meet and keep their curve;
//   - where the offset opens a gap the corner is bridged by arcs around
//     the original vertex, none wider than MaxCurve;
//   - where the offsets overlap both neighbours are cut back to the
//     intersection of their lines or circles.
//
// Arcs stay concentric with their source. An arc whose radius drops to
// exactly zero is dropped and leaves a sharp vertex at its center. Results
// that would reverse a line, grow an arc, shrink one past zero radius or
// cross themselves fail with ErrSelfIntersection.
//
// When the offsets on either side of a convex corner differ, the bridge is
// not a circle around the vertex: its pieces step linearly from one
// distance to the other, which only approximates the true blend.
func (p *Polyline) OffsetCustom(offsets []float64) (*Polyline, error) {
	n := len(p.Segments)
	if n < 3 {
		return nil, fmt.Errorf("%w: %d segments", ErrDegenerate, n)
	}
	if len(offsets) != n {
		return nil, fmt.Errorf("%w: got %d offsets for %d segments", ErrOffsetCount, len(offsets), n)
	}

	segs := make([]offsetSeg, n)
	for i, s := range p.Segments {
		enter, leave, err := p.Normals(i)
		if err != nil {
			return nil, err
		}
		next := p.seg(i + 1).Point
		d := offsets[i]
		o := offsetSeg{
			src:   s,
			d:     d,
			enter: enter,
			leave: leave,
			start: s.Point.Add(enter.MulScalar(d)),
			end:   next.Add(leave.MulScalar(d)),
		}
		if c, r, ok := s.Arc(next); ok {
			if s.Curve > 0 {
				r += d
			} else {
				r -= d
			}
			switch {
			case math.Abs(r) <= lengthEps:
				o.start, o.end, o.vanished = c, c, true
				r = 0
			case r < 0:
				return nil, fmt.Errorf("%w: arc %d radius drops to %g", ErrSelfIntersection, i, r)
			}
			o.c = carrier{origin: c, radius: r}
		} else {
			o.c = carrier{line: true, origin: o.start, dir: normalize(next.Sub(s.Point))}
		}
		segs[i] = o
	}

	joins := make([][]Segment, n)
	for i := range segs {
		j, err := joinAt(i, &segs[(i+n-1)%n], &segs[i])
		if err != nil {
			return nil, err
		}
		joins[i] = j
	}

	out := make([]Segment, 0, n)
	for i := range segs {
		out = append(out, joins[i]...)
		if segs[i].vanished {
			continue
		}
		curve, err := segs[i].curve(i)
		if err != nil {
			return nil, err
		}
		out = append(out, Segment{Point: segs[i].start, Curve: curve, Flags: segs[i].src.Flags})
	}

	res := &Polyline{Segments: out, Normal: p.Normal}
	flat := dedupe(res.Flatten(checkStep))
	if len(flat) < 3 || selfIntersects(flat) {
		return nil, fmt.Errorf("%w: result crosses itself", ErrSelfIntersection)
	}
	if signedArea(flat)*signedArea(p.Flatten(checkStep)) <= 0 {
		return nil, fmt.Errorf("%w: result is inverted", ErrSelfIntersection)
	}
	return res, nil
}

// joinAt reconciles the end of prev with the start of cur at the vertex
// they share and returns any arcs bridging them.
func joinAt(i int, prev, cur *offsetSeg) ([]Segment, error) {
	corner := cur.src.Point
	nl, ne := prev.leave, cur.enter
	switch {
	case prev.d == 0 && cur.d == 0:
		prev.end, cur.start = corner, corner
		return nil, nil
	case nearlyEqual(nl, ne):
		prev.end = cur.start
		return nil, nil
	}

	side := prev.d + cur.d
	cr := cross(nl, ne)
	reversed := math.Abs(cr) < crossEps && nl.Dot(ne) < 0
	if side != 0 && (cr*side > 0 || reversed) {
		phi := angleBetween(nl, ne)
		if reversed {
			phi = math.Copysign(180, side)
		}
		return joinArcs(corner, nl, phi, prev.d, cur.d), nil
	}

	mid := prev.end.Add(cur.start).MulScalar(0.5)
	x, ok := nearest(intersect(prev.c, cur.c), mid)
	if !ok {
		return nil, fmt.Errorf("%w: offsets miss each other at vertex %d", ErrSelfIntersection, i)
	}
	prev.end, cur.start = x, x
	return nil, nil
}

// joinArcs sweeps from the direction from around corner by phi degrees,
// blending the distance from d0 to d1, in pieces of at most MaxCurve.
func joinArcs(corner, from v2.Vec, phi, d0, d1 float64) []Segment {
	k := int(math.Ceil(math.Abs(phi)/MaxCurve - 1e-9))
	if k < 1 {
		k = 1
	}
	out := make([]Segment, k)
	for m := range out {
		t := float64(m) / float64(k)
		r := d0 + (d1-d0)*t
		out[m] = Segment{
			Point: corner.Add(rotate(from, phi*t).MulScalar(r)),
			Curve: phi / float64(k),
		}
	}
	return out
}

func dedupe(pts []v2.Vec) []v2.Vec {
	out := pts[:0:0]
	for _, p := range pts {
		if len(out) > 0 && p.Sub(out[len(out)-1]).Length() <= lengthEps {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0].Sub(out[len(out)-1]).Length() <= lengthEps {
		out = out[:len(out)-1]
	}
	return out
}
