package polyline

import (
	"errors"
	"math"
	"strings"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

const eps = 1e-9

func vec(x, y float64) v2.Vec { return v2.Vec{X: x, Y: y} }

func near(a, b v2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// square returns the counter-clockwise 10x10 square at the origin.
func square() *Polyline {
	return FromPoints(vec(0, 0), vec(10, 0), vec(10, 10), vec(0, 10))
}

// cwSquare returns the same square traversed clockwise.
func cwSquare() *Polyline {
	return FromPoints(vec(0, 0), vec(0, 10), vec(10, 10), vec(10, 0))
}

// roundedSquare is a counter-clockwise 10x10 square with corners rounded to
// radius 1.
func roundedSquare() *Polyline {
	return New(
		Segment{Point: vec(1, 0)},
		Segment{Point: vec(9, 0), Curve: 90},
		Segment{Point: vec(10, 1)},
		Segment{Point: vec(10, 9), Curve: 90},
		Segment{Point: vec(9, 10)},
		Segment{Point: vec(1, 10), Curve: 90},
		Segment{Point: vec(0, 9)},
		Segment{Point: vec(0, 1), Curve: 90},
	)
}

func lShape() *Polyline {
	return FromPoints(vec(0, 0), vec(10, 0), vec(10, 5), vec(5, 5), vec(5, 10), vec(0, 10))
}

func TestNormals(t *testing.T) {
	s := 0.38268343236508984
	c := 0.9238795325112867
	tests := []struct {
		name         string
		curve        float64
		enter, leave v2.Vec
	}{
		{"straight", 0, vec(0, -1), vec(0, -1)},
		{"left arc", 45, vec(-s, -c), vec(s, -c)},
		{"right arc", -45, vec(s, -c), vec(-s, -c)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(
				Segment{Point: vec(0, 0), Curve: tt.curve},
				Segment{Point: vec(10, 0)},
				Segment{Point: vec(5, 5)},
			)
			enter, leave, err := p.Normals(0)
			if err != nil {
				t.Fatalf("Normals: %v", err)
			}
			if !near(enter, tt.enter, eps) || !near(leave, tt.leave, eps) {
				t.Errorf("Normals(0) = %v, %v; want %v, %v", enter, leave, tt.enter, tt.leave)
			}
		})
	}
}

func TestNormalsWrapAround(t *testing.T) {
	enter, _, err := square().Normals(3)
	if err != nil {
		t.Fatalf("Normals: %v", err)
	}
	if !near(enter, vec(-1, 0), eps) {
		t.Errorf("closing segment normal = %v, want (-1,0)", enter)
	}
}

func TestNormalsErrors(t *testing.T) {
	tests := []struct {
		name string
		p    *Polyline
		want error
	}{
		{"arc too wide", New(Segment{Point: vec(0, 0), Curve: 120}, Segment{Point: vec(10, 0)}, Segment{Point: vec(5, 5)}), ErrUnsupportedCurve},
		{"zero length", FromPoints(vec(0, 0), vec(0, 0), vec(5, 5)), ErrDegenerate},
		{"single point", FromPoints(vec(1, 1)), ErrDegenerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.p.Normals(0)
			if !errors.Is(err, tt.want) {
				t.Errorf("Normals(0) error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJoint(t *testing.T) {
	l := lShape()
	want := []JointKind{JointConvex, JointConvex, JointConvex, JointConcave, JointConvex, JointConvex}
	for i, w := range want {
		got, err := l.Joint(i)
		if err != nil {
			t.Fatalf("Joint(%d): %v", i, err)
		}
		if got != w {
			t.Errorf("L-shape Joint(%d) = %s, want %s", i, got, w)
		}
	}

	r := roundedSquare()
	for i := range r.Segments {
		smooth, err := r.IsSmooth(i)
		if err != nil {
			t.Fatalf("IsSmooth(%d): %v", i, err)
		}
		if !smooth {
			t.Errorf("rounded square vertex %d is not smooth", i)
		}
		if k, _ := r.Joint(i); k != JointSmooth {
			t.Errorf("rounded square Joint(%d) = %s, want smooth", i, k)
		}
	}

	if smooth, _ := square().IsSmooth(0); smooth {
		t.Error("square corner reported smooth")
	}
}

func TestArc(t *testing.T) {
	r := roundedSquare()
	c, radius, ok := r.Segments[1].Arc(r.Segments[2].Point)
	if !ok {
		t.Fatal("curved segment reported straight")
	}
	if !near(c, vec(9, 1), eps) || math.Abs(radius-1) > eps {
		t.Errorf("Arc = %v r=%g, want (9,1) r=1", c, radius)
	}

	// A clockwise arc keeps its center on the right.
	c, radius, _ = Segment{Point: vec(0, 0), Curve: -90}.Arc(vec(1, 1))
	if !near(c, vec(1, 0), eps) || math.Abs(radius-1) > eps {
		t.Errorf("clockwise Arc = %v r=%g, want (1,0) r=1", c, radius)
	}

	if _, _, ok := r.Segments[0].Arc(r.Segments[1].Point); ok {
		t.Error("straight segment reported an arc")
	}
}

func TestRoll(t *testing.T) {
	p := New(
		Segment{Point: vec(10, 0), Flags: FoldUp},
		Segment{Point: vec(10, 10), Curve: 30},
		Segment{Point: vec(0, 10), Flags: FoldDown},
		Segment{Point: vec(0, 0)},
	)
	p.Roll()
	want := []Segment{
		{Point: vec(0, 0)},
		{Point: vec(10, 0), Flags: FoldUp},
		{Point: vec(10, 10), Curve: 30},
		{Point: vec(0, 10), Flags: FoldDown},
	}
	for i, w := range want {
		if p.Segments[i] != w {
			t.Errorf("segment %d = %+v, want %+v", i, p.Segments[i], w)
		}
	}

	p.Roll()
	for i, w := range want {
		if p.Segments[i] != w {
			t.Errorf("second Roll moved segment %d to %+v", i, p.Segments[i])
		}
	}

	var empty Polyline
	empty.Roll()
}

func TestFlatten(t *testing.T) {
	r := roundedSquare()
	pts := r.Flatten(45)
	if len(pts) != 12 {
		t.Fatalf("Flatten(45) gave %d points, want 12", len(pts))
	}
	if !near(pts[2], vec(9+math.Sqrt2/2, 1-math.Sqrt2/2), eps) {
		t.Errorf("arc midpoint = %v", pts[2])
	}

	if got := len(square().Flatten(1)); got != 4 {
		t.Errorf("straight polygon flattened to %d points, want 4", got)
	}
	if got := len(r.Flatten(10)); got != 8+4*8 {
		t.Errorf("Flatten(10) gave %d points, want %d", got, 8+4*8)
	}
	if a := signedArea(r.Flatten(1)); a <= 99 || a >= 100 {
		t.Errorf("rounded square area = %g, want just under 100", a)
	}
}

func TestString(t *testing.T) {
	p := New(Segment{Point: vec(0, 0), Curve: 45, Flags: FoldUp}, Segment{Point: vec(1, 0)}, Segment{Point: vec(0, 1)})
	s := p.String()
	for _, want := range []string{"(0,0) curve=45 fold=up", "(1,0)", "normal=(0,0,1)"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
	if got := (FoldUp | FoldDown).String(); got != "up|down" {
		t.Errorf("flags String() = %q", got)
	}
	if got := JointConcave.String(); got != "concave" {
		t.Errorf("JointConcave.String() = %q", got)
	}
}

func TestSelfIntersects(t *testing.T) {
	tests := []struct {
		name string
		pts  []v2.Vec
		want bool
	}{
		{"square", []v2.Vec{vec(0, 0), vec(1, 0), vec(1, 1), vec(0, 1)}, false},
		{"bow-tie", []v2.Vec{vec(0, 0), vec(1, 1), vec(1, 0), vec(0, 1)}, true},
		{"touching vertex", []v2.Vec{vec(0, 0), vec(2, 0), vec(1, 1), vec(2, 2), vec(0, 2), vec(1, 0)}, true},
		{"concave", []v2.Vec{vec(0, 0), vec(10, 0), vec(10, 5), vec(5, 5), vec(5, 10), vec(0, 10)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selfIntersects(tt.pts); got != tt.want {
				t.Errorf("selfIntersects = %v, want %v", got, tt.want)
			}
		})
	}
}
