package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// normal returns the unit normal of triangle i, or zero when degenerate.
func (s *Solid) normal(i int) v3.Vec {
	t := s.Triangles[i]
	a, b, c := s.Points[t[0]], s.Points[t[1]], s.Points[t[2]]
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Length(); l > 0 {
		return n.MulScalar(1 / l)
	}
	return v3.Vec{}
}

// Triangles3 expands s into the triangle list used by the sdfx renderers.
func (s *Solid) Triangles3() []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, len(s.Triangles))
	for i, t := range s.Triangles {
		out[i] = &sdf.Triangle3{s.Points[t[0]], s.Points[t[1]], s.Points[t[2]]}
	}
	return out
}

// Save writes s to path as binary STL.
func Save(path string, s *Solid) error {
	if err := render.SaveSTL(path, s.Triangles3()); err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	return nil
}

// WriteBinary encodes s as binary STL. Coordinates are narrowed to float32
// and the header text is left blank.
func WriteBinary(w io.Writer, s *Solid) error {
	bw := bufio.NewWriter(w)
	h := render.STLHeader{Count: uint32(len(s.Triangles))}
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("stl: write header: %w", err)
	}
	var rec render.STLTriangle
	for i, t := range s.Triangles {
		rec.Normal = put32(s.normal(i))
		rec.Vertex1 = put32(s.Points[t[0]])
		rec.Vertex2 = put32(s.Points[t[1]])
		rec.Vertex3 = put32(s.Points[t[2]])
		if err := binary.Write(bw, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("stl: write facet %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func put32(v v3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// WriteASCII encodes s as ASCII STL with full float64 precision.
func WriteASCII(w io.Writer, s *Solid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", s.Name)
	for i, t := range s.Triangles {
		n := s.normal(i)
		fmt.Fprintf(bw, "  facet normal %g %g %g\n", n.X, n.Y, n.Z)
		fmt.Fprintln(bw, "    outer loop")
		for _, idx := range t {
			p := s.Points[idx]
			fmt.Fprintf(bw, "      vertex %v %v %v\n", p.X, p.Y, p.Z)
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	fmt.Fprintf(bw, "endsolid %s\n", s.Name)
	return bw.Flush()
}
