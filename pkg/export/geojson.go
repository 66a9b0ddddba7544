// Package export writes features and tool paths in formats other tools
// read: GeoJSON for inspection and DXF for CAM software.
package export

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/thatch/potatocam/pkg/features"
	"github.com/thatch/potatocam/pkg/polyline"
	"github.com/thatch/potatocam/pkg/toolpath"
)

// Features returns one Polygon per feature, holes as inner rings. Outline
// winding is kept as extracted.
func Features(feats []*features.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range feats {
		poly := orb.Polygon{f.Ring()}
		for _, h := range f.Holes {
			poly = append(poly, h.Ring())
		}
		gf := geojson.NewFeature(poly)
		gf.Properties["height"] = f.Height
		gf.Properties["orientation"] = f.Orientation.String()
		gf.Properties["flags"] = f.Flags.String()
		gf.Properties["normal"] = []float64{f.Normal.X, f.Normal.Y, f.Normal.Z}
		gf.Properties["folds"] = foldNames(f.Folds)
		gf.Properties["holes"] = len(f.Holes)
		fc.Append(gf)
	}
	return fc
}

func foldNames(folds []features.FoldDirection) []string {
	out := make([]string, len(folds))
	for i, d := range folds {
		out[i] = d.String()
	}
	return out
}

// Passes returns one closed LineString per successful pass, arcs flattened
// to chords of at most maxAngle degrees. Failed passes are left out.
func Passes(passes []toolpath.Pass, maxAngle float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range passes {
		if p.Err != nil {
			continue
		}
		gf := geojson.NewFeature(lineString(p.Path, maxAngle))
		gf.Properties["kind"] = p.Kind.String()
		gf.Properties["height"] = p.Height
		gf.Properties["segments"] = p.Path.Len()
		fc.Append(gf)
	}
	return fc
}

func lineString(p *polyline.Polyline, maxAngle float64) orb.LineString {
	pts := p.Flatten(maxAngle)
	ls := make(orb.LineString, 0, len(pts)+1)
	for _, q := range pts {
		ls = append(ls, point(q))
	}
	if len(ls) > 0 {
		ls = append(ls, ls[0])
	}
	return ls
}

func point(v v2.Vec) orb.Point { return orb.Point{v.X, v.Y} }
