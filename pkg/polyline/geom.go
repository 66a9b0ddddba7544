package polyline

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

const radPerDeg = math.Pi / 180

// perp returns v rotated 90 degrees counter-clockwise.
func perp(v v2.Vec) v2.Vec {
	return v2.Vec{X: -v.Y, Y: v.X}
}

// cross returns the Z component of the 3D cross product of a and b.
func cross(a, b v2.Vec) float64 {
	return a.X*b.Y - a.Y*b.X
}

func normalize(v v2.Vec) v2.Vec {
	l := math.Hypot(v.X, v.Y)
	if l == 0 {
		return v2.Vec{}
	}
	return v2.Vec{X: v.X / l, Y: v.Y / l}
}

// rotate turns v counter-clockwise by deg degrees.
func rotate(v v2.Vec, deg float64) v2.Vec {
	s, c := math.Sincos(deg * radPerDeg)
	return v2.Vec{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// angleBetween returns the signed angle in degrees that turns a onto b.
func angleBetween(a, b v2.Vec) float64 {
	return math.Atan2(cross(a, b), a.Dot(b)) / radPerDeg
}

// arcCenter returns the center and radius of the arc from a to b turning
// by curve degrees. Positive curves keep the center on the left of travel.
func arcCenter(a, b v2.Vec, curve float64) (v2.Vec, float64) {
	chord := b.Sub(a)
	l := chord.Length()
	half := math.Abs(curve) * radPerDeg / 2
	r := l / (2 * math.Sin(half))
	h := r * math.Cos(half)
	left := perp(chord).MulScalar(1 / l)
	if curve < 0 {
		left = left.MulScalar(-1)
	}
	mid := a.Add(b).MulScalar(0.5)
	return mid.Add(left.MulScalar(h)), r
}

// lineLine intersects the lines o1+t*d1 and o2+s*d2.
func lineLine(o1, d1, o2, d2 v2.Vec) (v2.Vec, bool) {
	den := cross(d1, d2)
	if math.Abs(den) < 1e-12 {
		return v2.Vec{}, false
	}
	t := cross(o2.Sub(o1), d2) / den
	return o1.Add(d1.MulScalar(t)), true
}

// lineCircle intersects the line o+t*d, d of unit length, with a circle.
func lineCircle(o, d, c v2.Vec, r float64) []v2.Vec {
	f := o.Sub(c)
	b := f.Dot(d)
	disc := b*b - (f.Dot(f) - r*r)
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	return []v2.Vec{
		o.Add(d.MulScalar(-b - sq)),
		o.Add(d.MulScalar(-b + sq)),
	}
}

// circleCircle intersects two circles.
func circleCircle(c1 v2.Vec, r1 float64, c2 v2.Vec, r2 float64) []v2.Vec {
	between := c2.Sub(c1)
	d := between.Length()
	if d == 0 || d > r1+r2 || d < math.Abs(r1-r2) {
		return nil
	}
	a := (r1*r1 - r2*r2 + d*d) / (2 * d)
	h := math.Sqrt(math.Max(r1*r1-a*a, 0))
	p := c1.Add(between.MulScalar(a / d))
	off := perp(between).MulScalar(h / d)
	return []v2.Vec{p.Add(off), p.Sub(off)}
}

func nearest(cands []v2.Vec, ref v2.Vec) (v2.Vec, bool) {
	if len(cands) == 0 {
		return v2.Vec{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Sub(ref).Length() < best.Sub(ref).Length() {
			best = c
		}
	}
	return best, true
}

// signedArea is the shoelace area of a closed point loop, positive when
// counter-clockwise.
func signedArea(pts []v2.Vec) float64 {
	var a float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

const crossEps = 1e-9

func orient(a, b, c v2.Vec) float64 {
	return cross(b.Sub(a), c.Sub(a))
}

func onSegment(a, b, p v2.Vec) bool {
	return math.Min(a.X, b.X)-crossEps <= p.X && p.X <= math.Max(a.X, b.X)+crossEps &&
		math.Min(a.Y, b.Y)-crossEps <= p.Y && p.Y <= math.Max(a.Y, b.Y)+crossEps
}

// segmentsTouch reports whether segments ab and cd share any point.
func segmentsTouch(a, b, c, d v2.Vec) bool {
	d1, d2 := orient(c, d, a), orient(c, d, b)
	d3, d4 := orient(a, b, c), orient(a, b, d)
	if ((d1 > crossEps && d2 < -crossEps) || (d1 < -crossEps && d2 > crossEps)) &&
		((d3 > crossEps && d4 < -crossEps) || (d3 < -crossEps && d4 > crossEps)) {
		return true
	}
	return (math.Abs(d1) <= crossEps && onSegment(c, d, a)) ||
		(math.Abs(d2) <= crossEps && onSegment(c, d, b)) ||
		(math.Abs(d3) <= crossEps && onSegment(a, b, c)) ||
		(math.Abs(d4) <= crossEps && onSegment(a, b, d))
}

// selfIntersects reports whether two non-adjacent edges of the closed loop
// pts touch.
func selfIntersects(pts []v2.Vec) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsTouch(a, b, pts[j], pts[(j+1)%n]) {
				return true
			}
		}
	}
	return false
}
