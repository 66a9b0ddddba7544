package toolpath_test

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/thatch/potatocam/pkg/features"
	"github.com/thatch/potatocam/pkg/polyline"
	"github.com/thatch/potatocam/pkg/stl"
	"github.com/thatch/potatocam/pkg/toolpath"
)

func extract(t *testing.T, name string) []*features.Feature {
	t.Helper()
	s, err := stl.Load(filepath.Join("..", "features", "testdata", name))
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	m, err := s.Mesh()
	if err != nil {
		t.Fatalf("mesh %s: %v", name, err)
	}
	feats, err := features.Extract(m)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return feats
}

func bounds(p *polyline.Polyline) (min, max v2.Vec) {
	min = v2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	max = v2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, q := range p.Flatten(1) {
		min.X, min.Y = math.Min(min.X, q.X), math.Min(min.Y, q.Y)
		max.X, max.Y = math.Max(max.X, q.X), math.Max(max.Y, q.Y)
	}
	return min, max
}

func area(p *polyline.Polyline) float64 {
	pts := p.Flatten(1)
	var a float64
	for i, q := range pts {
		r := pts[(i+1)%len(pts)]
		a += q.X*r.Y - r.X*q.Y
	}
	return a / 2
}

func near(a, b v2.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}

func pt(x, y float64) v2.Vec { return v2.Vec{X: x, Y: y} }

func TestClearanceCube(t *testing.T) {
	feats := extract(t, "cube.stl")
	passes := toolpath.Clearance(feats, 2)
	if len(passes) != 2 {
		t.Fatalf("got %d passes, want 2", len(passes))
	}
	for _, p := range passes {
		if p.Err != nil {
			t.Fatalf("height %g: %v", p.Height, p.Err)
		}
		if p.Kind != toolpath.Contour {
			t.Errorf("height %g: kind = %s, want contour", p.Height, p.Kind)
		}
		if len(p.Path.Segments) != 8 {
			t.Errorf("height %g: got %d segments, want 8: %s", p.Height, len(p.Path.Segments), p.Path)
		}
		if first := p.Path.Segments[0].Point; !near(first, pt(-2, 0)) {
			t.Errorf("height %g: path starts at %v, want (-2,0)", p.Height, first)
		}
		min, max := bounds(p.Path)
		if !near(min, pt(-2, -2)) || !near(max, pt(52, 52)) {
			t.Errorf("height %g: bounds = %v..%v, want (-2,-2)..(52,52)", p.Height, min, max)
		}
		// The winding of the source outline is kept.
		if a, src := area(p.Path), area(p.Feature.Polyline()); a*src <= 0 || math.Abs(a) <= math.Abs(src) {
			t.Errorf("height %g: area %g from %g, want same sign and larger", p.Height, a, src)
		}
		if p.Path.Normal != p.Feature.Normal {
			t.Errorf("height %g: normal = %v, want %v", p.Height, p.Path.Normal, p.Feature.Normal)
		}
	}
}

func TestClearanceKeepsFolds(t *testing.T) {
	for _, p := range toolpath.Clearance(extract(t, "cube.stl"), 1) {
		want := polyline.FoldUp
		if p.Feature.Flags == features.Top {
			want = polyline.FoldDown
		}
		var lines int
		for _, s := range p.Path.Segments {
			if s.Curve != 0 {
				continue
			}
			lines++
			if s.Flags != want {
				t.Errorf("height %g: line flags = %s, want %s", p.Height, s.Flags, want)
			}
		}
		if lines != 4 {
			t.Errorf("height %g: got %d lines, want 4", p.Height, lines)
		}
	}
}

func TestClearanceStepCube(t *testing.T) {
	passes := toolpath.Clearance(extract(t, "step_cube.stl"), 1)
	if len(passes) != 3 {
		t.Fatalf("got %d passes, want 3", len(passes))
	}
	for _, p := range passes {
		if p.Err != nil {
			t.Fatalf("height %g: %v", p.Height, p.Err)
		}
		if p.Height != 10 {
			continue
		}
		// The inner corner of the L is trimmed, not rounded.
		min, max := bounds(p.Path)
		if !near(min, pt(-1, -1)) || !near(max, pt(11, 11)) {
			t.Errorf("top bounds = %v..%v, want (-1,-1)..(11,11)", min, max)
		}
		var found bool
		for _, s := range p.Path.Segments {
			if near(s.Point, pt(4, 4)) {
				found = true
			}
		}
		if !found {
			t.Errorf("top pass has no trimmed corner at (4,4): %s", p.Path)
		}
	}
}

// plate is a 20x20 counter-clockwise region with a square hole of the given
// width in its middle.
func plate(width float64) *features.Feature {
	lo, hi := 10-width/2, 10+width/2
	hole := &features.Feature{
		Height:      5,
		Orientation: features.Inside,
		Outline:     []v2.Vec{pt(lo, lo), pt(lo, hi), pt(hi, hi), pt(hi, lo)},
		Folds:       []features.FoldDirection{features.FoldUp, features.FoldUp, features.FoldUp, features.FoldUp},
	}
	return &features.Feature{
		Height:      5,
		Orientation: features.Outside,
		Outline:     []v2.Vec{pt(0, 0), pt(20, 0), pt(20, 20), pt(0, 20)},
		Folds:       []features.FoldDirection{features.FoldDown, features.FoldDown, features.FoldDown, features.FoldDown},
		Holes:       []*features.Feature{hole},
	}
}

func TestClearancePocket(t *testing.T) {
	passes := toolpath.Clearance([]*features.Feature{plate(10)}, 1)
	if len(passes) != 2 {
		t.Fatalf("got %d passes, want 2", len(passes))
	}
	pocket := passes[1]
	if pocket.Kind != toolpath.Pocket || pocket.Err != nil {
		t.Fatalf("pocket pass = %+v", pocket)
	}
	want := []v2.Vec{pt(6, 6), pt(6, 14), pt(14, 14), pt(14, 6)}
	if len(pocket.Path.Segments) != len(want) {
		t.Fatalf("pocket = %s, want square 6..14", pocket.Path)
	}
	for i, w := range want {
		if !near(pocket.Path.Segments[i].Point, w) {
			t.Errorf("pocket point %d = %v, want %v", i, pocket.Path.Segments[i].Point, w)
		}
	}
}

func TestClearanceNarrowPocket(t *testing.T) {
	passes := toolpath.Clearance([]*features.Feature{plate(4)}, 3)
	if len(passes) != 2 {
		t.Fatalf("got %d passes, want 2", len(passes))
	}
	if passes[0].Err != nil {
		t.Errorf("contour failed: %v", passes[0].Err)
	}
	if !errors.Is(passes[1].Err, polyline.ErrSelfIntersection) {
		t.Errorf("pocket error = %v, want ErrSelfIntersection", passes[1].Err)
	}
	if passes[1].Path != nil {
		t.Errorf("failed pocket kept a path: %s", passes[1].Path)
	}
	if got := len(toolpath.Paths(passes)); got != 1 {
		t.Errorf("Paths returned %d paths, want 1", got)
	}
}

func TestClearanceZeroRadius(t *testing.T) {
	f := plate(10)
	for _, p := range toolpath.Clearance([]*features.Feature{f}, 0) {
		if p.Err != nil {
			t.Fatalf("%s: %v", p.Kind, p.Err)
		}
		for i, s := range p.Path.Segments {
			if s.Point != p.Feature.Outline[i] {
				t.Errorf("%s point %d = %v, want %v", p.Kind, i, s.Point, p.Feature.Outline[i])
			}
		}
	}
}

func TestKindString(t *testing.T) {
	if toolpath.Contour.String() != "contour" || toolpath.Pocket.String() != "pocket" {
		t.Errorf("got %q, %q", toolpath.Contour, toolpath.Pocket)
	}
}
