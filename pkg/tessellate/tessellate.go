// Package tessellate turns kernel solids into meshes the feature extractor
// can read: it renders parts to triangle soups and welds soups into closed
// half-edge meshes.
package tessellate

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/thatch/potatocam/internal/logging"
	"github.com/thatch/potatocam/pkg/engine"
	"github.com/thatch/potatocam/pkg/kernel"
	"github.com/thatch/potatocam/pkg/mesh"
	"github.com/thatch/potatocam/pkg/stl"
)

// DefaultWeldTolerance merges vertices closer than a micrometre.
const DefaultWeldTolerance = 1e-3

// Parts renders each part with k, in order. Each mesh carries its part's
// name.
func Parts(k kernel.Kernel, parts []*engine.Part) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		km, err := k.ToMesh(p.Solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for part %q: %w", p.Name, err)
		}
		km.Name = p.Name
		logging.Logger().Debug("rendered part", "part", p.Name, "triangles", km.TriangleCount())
		meshes = append(meshes, km)
	}
	return meshes, nil
}

// Weld merges vertices of km that lie within tol of each other, drops the
// triangles that collapse, and builds a half-edge mesh. A tolerance of 0
// merges only identical coordinates.
func Weld(km *kernel.Mesh, tol float64) (*mesh.Mesh, error) {
	w := newWelder(tol)
	remap := make([]int, km.VertexCount())
	for i := range remap {
		remap[i] = w.add(km.Vertex(i))
	}

	tris := make([][3]int, 0, km.TriangleCount())
	dropped := 0
	for i := 0; i < km.TriangleCount(); i++ {
		t := [3]int{
			remap[km.Indices[3*i]],
			remap[km.Indices[3*i+1]],
			remap[km.Indices[3*i+2]],
		}
		if t[0] == t[1] || t[1] == t[2] || t[2] == t[0] {
			dropped++
			continue
		}
		tris = append(tris, t)
	}

	logging.Logger().Debug("welded mesh",
		"part", km.Name,
		"vertices", km.VertexCount(),
		"merged", len(w.points),
		"dropped_triangles", dropped)

	m, err := mesh.New(w.points, tris)
	if err != nil {
		return nil, fmt.Errorf("tessellate: weld %q: %w", km.Name, err)
	}
	return m, nil
}

// STL converts a triangle soup to an STL solid named after its part.
func STL(km *kernel.Mesh) *stl.Solid {
	tris := make([][3]v3.Vec, km.TriangleCount())
	for i := range tris {
		tris[i] = km.Triangle(i)
	}
	return stl.FromTriangles(km.Name, tris)
}

// welder buckets points on a grid of cell size tol. A point merges with
// the first earlier point within tol found in its own or a neighbouring
// cell.
type welder struct {
	tol    float64
	points []v3.Vec
	cells  map[[3]int64][]int
	exact  map[v3.Vec]int
}

func newWelder(tol float64) *welder {
	if tol <= 0 {
		return &welder{exact: make(map[v3.Vec]int)}
	}
	return &welder{tol: tol, cells: make(map[[3]int64][]int)}
}

func (w *welder) cell(p v3.Vec) [3]int64 {
	return [3]int64{
		int64(math.Floor(p.X / w.tol)),
		int64(math.Floor(p.Y / w.tol)),
		int64(math.Floor(p.Z / w.tol)),
	}
}

func (w *welder) add(p v3.Vec) int {
	if w.exact != nil {
		if i, ok := w.exact[p]; ok {
			return i
		}
		w.exact[p] = len(w.points)
		w.points = append(w.points, p)
		return len(w.points) - 1
	}

	c := w.cell(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, i := range w.cells[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if w.points[i].Sub(p).Length() <= w.tol {
						return i
					}
				}
			}
		}
	}
	i := len(w.points)
	w.points = append(w.points, p)
	w.cells[c] = append(w.cells[c], i)
	return i
}
