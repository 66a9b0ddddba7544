package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thatch/potatocam/internal/logging"
	"github.com/thatch/potatocam/pkg/stl"
	"github.com/thatch/potatocam/pkg/tessellate"
)

func runSample(args []string, stdout, stderr io.Writer) error {
	c := newFlagSet("sample", stderr)
	out := c.fs.String("o", "", "output STL file (default: script name with .stl)")
	ascii := c.fs.Bool("ascii", false, "write ASCII STL instead of binary")
	cfg, path, err := c.parse(args, stderr)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = strings.TrimSuffix(path, filepath.Ext(path)) + ".stl"
	}

	meshes, err := evalScript(path, cfg)
	if err != nil {
		return err
	}
	for _, km := range meshes {
		name := *out
		if len(meshes) > 1 {
			ext := filepath.Ext(name)
			name = strings.TrimSuffix(name, ext) + "-" + km.Name + ext
		}
		if err := writeSTL(name, tessellate.STL(km), *ascii); err != nil {
			return err
		}
		logging.Logger().Info("part written", "part", km.Name, "path", name, "triangles", km.TriangleCount())
		fmt.Fprintf(stdout, "%s: %d triangles -> %s\n", km.Name, km.TriangleCount(), name)
	}
	return nil
}

func writeSTL(path string, s *stl.Solid, ascii bool) error {
	if !ascii {
		return stl.Save(path, s)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := stl.WriteASCII(f, s); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
