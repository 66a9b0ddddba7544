package export

import (
	"fmt"
	"math"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/thatch/potatocam/pkg/polyline"
	"github.com/thatch/potatocam/pkg/toolpath"
)

var layerColors = map[toolpath.Kind]color.ColorNumber{
	toolpath.Contour: color.Cyan,
	toolpath.Pocket:  color.Red,
}

// SaveDXF writes the successful passes to path as LINE and ARC entities at
// their pass height, one layer per pass kind.
func SaveDXF(path string, passes []toolpath.Pass) error {
	d := dxf.NewDrawing()
	layers := map[toolpath.Kind]bool{}
	for _, p := range passes {
		if p.Err != nil {
			continue
		}
		name := p.Kind.String()
		if !layers[p.Kind] {
			if _, err := d.AddLayer(name, layerColors[p.Kind], dxf.DefaultLineType, true); err != nil {
				return fmt.Errorf("export: add layer %s: %w", name, err)
			}
			layers[p.Kind] = true
		}
		if err := d.ChangeLayer(name); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := drawPath(d, p.Path, p.Height); err != nil {
			return fmt.Errorf("export: %s at height %g: %w", name, p.Height, err)
		}
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

func drawPath(d *drawing.Drawing, p *polyline.Polyline, z float64) error {
	n := p.Len()
	for i, s := range p.Segments {
		a, b := s.Point, p.Segments[(i+1)%n].Point
		c, r, ok := s.Arc(b)
		if !ok {
			if _, err := d.Line(a.X, a.Y, z, b.X, b.Y, z); err != nil {
				return err
			}
			continue
		}
		// DXF arcs always run counter-clockwise from start to end.
		start := degrees(math.Atan2(a.Y-c.Y, a.X-c.X))
		end := degrees(math.Atan2(b.Y-c.Y, b.X-c.X))
		if s.Curve < 0 {
			start, end = end, start
		}
		if _, err := d.Arc(c.X, c.Y, z, r, start, end); err != nil {
			return err
		}
	}
	return nil
}

func degrees(rad float64) float64 {
	deg := rad * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
