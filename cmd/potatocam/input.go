package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/thatch/potatocam/internal/logging"
	"github.com/thatch/potatocam/pkg/config"
	"github.com/thatch/potatocam/pkg/engine"
	"github.com/thatch/potatocam/pkg/features"
	"github.com/thatch/potatocam/pkg/kernel"
	"github.com/thatch/potatocam/pkg/kernel/sdfx"
	"github.com/thatch/potatocam/pkg/mesh"
	"github.com/thatch/potatocam/pkg/stl"
	"github.com/thatch/potatocam/pkg/tessellate"
)

type part struct {
	name string
	mesh *mesh.Mesh
}

// loadParts reads an STL file, or renders and welds every part of a part
// script.
func loadParts(path string, cfg config.Config) ([]part, error) {
	if strings.EqualFold(filepath.Ext(path), ".lisp") {
		return scriptParts(path, cfg)
	}
	s, err := stl.Load(path)
	if err != nil {
		return nil, err
	}
	m, err := s.Mesh()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Ground {
		m = m.Ground()
	}
	logging.Logger().Info("mesh loaded", "path", path, "faces", m.NumFaces(), "vertices", m.NumVertices())
	return []part{{name: s.Name, mesh: m}}, nil
}

// evalScript evaluates the part script at path and renders its parts.
func evalScript(path string, cfg config.Config) ([]*kernel.Mesh, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	k := sdfx.New(sdfx.WithMeshCells(cfg.MeshCells))
	parts, evalErrs, err := engine.NewEngine(k).Evaluate(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = fmt.Errorf("%s: %w", path, e)
		}
		return nil, errors.Join(errs...)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%s: script defines no parts", path)
	}
	return tessellate.Parts(k, parts)
}

// scriptParts welds each rendered part. Marching cubes never lands exactly
// on z=0, so script parts are always grounded.
func scriptParts(path string, cfg config.Config) ([]part, error) {
	meshes, err := evalScript(path, cfg)
	if err != nil {
		return nil, err
	}
	out := make([]part, 0, len(meshes))
	for _, km := range meshes {
		m, err := tessellate.Weld(km, cfg.Weld)
		if err != nil {
			return nil, err
		}
		out = append(out, part{name: km.Name, mesh: m.Ground()})
	}
	return out, nil
}

func extract(p part, cfg config.Config) ([]*features.Feature, error) {
	feats, err := features.Extract(p.mesh, features.WithTolerance(cfg.Tolerance))
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", p.name, err)
	}
	for _, f := range feats {
		f.Roll()
		for _, h := range f.Holes {
			h.Roll()
		}
	}
	logging.Logger().Info("features found", "part", p.name, "count", len(feats))
	return feats, nil
}
