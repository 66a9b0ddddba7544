// Package toolpath derives 2.5D clearance passes from extracted features:
// the path a cylindrical cutter's axis follows to trace each flat region's
// outline and each of its holes without cutting into the region.
package toolpath

import (
	"fmt"

	"github.com/thatch/potatocam/internal/logging"
	"github.com/thatch/potatocam/pkg/features"
	"github.com/thatch/potatocam/pkg/polyline"
)

// Kind tells what a pass traces.
type Kind int

const (
	// Contour follows a feature's outer outline.
	Contour Kind = iota
	// Pocket follows a hole inside a feature.
	Pocket
)

func (k Kind) String() string {
	switch k {
	case Contour:
		return "contour"
	case Pocket:
		return "pocket"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Pass is one closed cutter path at a fixed height.
type Pass struct {
	Kind Kind
	// Feature is the feature or hole the pass traces.
	Feature *features.Feature
	Height  float64
	// Path is nil when the outline could not be offset; Err says why.
	Path *polyline.Polyline
	Err  error
}

// Clearance offsets every feature outline and every hole by radius, away
// from the material of the flat region: outlines grow and holes shrink.
// Passes come out in feature order, each outline followed by its holes. A
// pass that fails keeps its error so one pocket narrower than the cutter
// does not hide the others.
func Clearance(feats []*features.Feature, radius float64) []Pass {
	var passes []Pass
	for _, f := range feats {
		// Outside outlines run counter-clockwise and their holes clockwise;
		// Inside features are mirrored. One sign per region therefore moves
		// every ridge of it off the material.
		d := radius
		if f.Orientation == features.Inside {
			d = -radius
		}
		passes = append(passes, trace(Contour, f, d))
		for _, h := range f.Holes {
			passes = append(passes, trace(Pocket, h, d))
		}
	}
	return passes
}

// Paths returns the paths of the passes that succeeded.
func Paths(passes []Pass) []*polyline.Polyline {
	var out []*polyline.Polyline
	for _, p := range passes {
		if p.Err == nil {
			out = append(out, p.Path)
		}
	}
	return out
}

func trace(kind Kind, f *features.Feature, d float64) Pass {
	p := Pass{Kind: kind, Feature: f, Height: f.Height}
	path, err := f.Polyline().Offset(d)
	if err != nil {
		p.Err = fmt.Errorf("toolpath: %s at height %g: %w", kind, f.Height, err)
		logging.Logger().Warn("skipping pass", "kind", kind, "height", f.Height, "err", err)
		return p
	}
	path.Roll()
	p.Path = path
	return p
}
