package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/thatch/potatocam/pkg/export"
	"github.com/thatch/potatocam/pkg/toolpath"
)

func runClearance(args []string, stdout, stderr io.Writer) error {
	c := newFlagSet("clearance", stderr)
	radius := c.fs.Float64("radius", 0, "tool radius (overrides tool_radius)")
	dxfOut := c.fs.String("dxf", "", "write passes to this DXF file")
	geoOut := c.fs.String("geojson", "", "write passes to this GeoJSON file")
	cfg, path, err := c.parse(args, stderr)
	if err != nil {
		return err
	}
	if c.isSet("radius") {
		cfg.ToolRadius = *radius
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	parts, err := loadParts(path, cfg)
	if err != nil {
		return err
	}
	var passes []toolpath.Pass
	for _, p := range parts {
		feats, err := extract(p, cfg)
		if err != nil {
			return err
		}
		passes = append(passes, toolpath.Clearance(feats, cfg.ToolRadius)...)
	}

	failed := 0
	for _, p := range passes {
		if p.Err != nil {
			failed++
			fmt.Fprintf(stdout, "%-8s z=%-8g skipped: %v\n", p.Kind, p.Height, p.Err)
			continue
		}
		fmt.Fprintf(stdout, "%-8s z=%-8g %d segments\n", p.Kind, p.Height, p.Path.Len())
	}
	fmt.Fprintf(stdout, "%d passes, %d skipped, radius %g\n", len(passes), failed, cfg.ToolRadius)

	if *dxfOut != "" {
		if err := export.SaveDXF(*dxfOut, passes); err != nil {
			return err
		}
	}
	if *geoOut != "" {
		if err := writeJSON(*geoOut, export.Passes(passes, cfg.ArcStep)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
