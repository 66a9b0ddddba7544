package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/thatch/potatocam/pkg/export"
	"github.com/thatch/potatocam/pkg/features"
)

func runFeatures(args []string, stdout, stderr io.Writer) error {
	c := newFlagSet("features", stderr)
	format := c.fs.String("format", "text", "output format: text or geojson")
	ground := c.fs.Bool("ground", false, "move the mesh onto z=0 first")
	cfg, path, err := c.parse(args, stderr)
	if err != nil {
		return err
	}
	if c.isSet("ground") {
		cfg.Ground = *ground
	}
	if *format != "text" && *format != "geojson" {
		return fmt.Errorf("features: unknown format %q", *format)
	}

	parts, err := loadParts(path, cfg)
	if err != nil {
		return err
	}
	var all []*features.Feature
	for _, p := range parts {
		feats, err := extract(p, cfg)
		if err != nil {
			return err
		}
		if *format == "text" {
			printFeatures(stdout, p.name, feats)
		}
		all = append(all, feats...)
	}
	if *format == "geojson" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(export.Features(all))
	}
	return nil
}

func printFeatures(w io.Writer, name string, feats []*features.Feature) {
	fmt.Fprintf(w, "%s: %d features\n", name, len(feats))
	for _, f := range feats {
		fmt.Fprintf(w, "  %s\n", f)
		for _, h := range f.Holes {
			fmt.Fprintf(w, "    hole %s\n", h)
		}
	}
}
