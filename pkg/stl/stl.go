// Package stl reads and writes STL solids in both the ASCII and the binary
// encoding. Files go through the sdfx render loader and writer; the
// io.Reader and io.Writer forms reuse its on-disk record types. Loaded
// points are de-duplicated so that the resulting triangle indices describe
// a connected mesh; the normals stored in the file are ignored and
// recomputed from the winding by package mesh.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/render"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/thatch/potatocam/pkg/mesh"
)

// ErrFormat is returned for input that is neither valid ASCII nor valid
// binary STL.
var ErrFormat = errors.New("stl: malformed input")

// Sizes of render.STLHeader and render.STLTriangle on disk.
const (
	headerSize = 84
	recordSize = 50
)

// Solid is an indexed triangle soup as stored in an STL file.
type Solid struct {
	Name      string
	Points    []v3.Vec
	Triangles [][3]int
}

// builder collects triangles and de-duplicates their corners.
type builder struct {
	solid Solid
	index map[v3.Vec]int
}

func newBuilder(name string) *builder {
	return &builder{solid: Solid{Name: name}, index: make(map[v3.Vec]int)}
}

func (b *builder) point(p v3.Vec) int {
	if i, ok := b.index[p]; ok {
		return i
	}
	i := len(b.solid.Points)
	b.solid.Points = append(b.solid.Points, p)
	b.index[p] = i
	return i
}

func (b *builder) triangle(a, c, d v3.Vec) {
	b.solid.Triangles = append(b.solid.Triangles, [3]int{b.point(a), b.point(c), b.point(d)})
}

// FromTriangles builds a Solid from explicit corner coordinates, merging
// corners with identical coordinates.
func FromTriangles(name string, tris [][3]v3.Vec) *Solid {
	b := newBuilder(name)
	for _, t := range tris {
		b.triangle(t[0], t[1], t[2])
	}
	return &b.solid
}

// Mesh builds the half-edge arena for s.
func (s *Solid) Mesh() (*mesh.Mesh, error) {
	return mesh.New(s.Points, s.Triangles)
}

// Load reads the STL file at path through the sdfx loader. The solid is
// named after the file, since sdfx does not keep the ASCII solid name or
// the binary header text.
func Load(path string) (s *Solid, err error) {
	defer func() {
		// render.LoadSTL indexes past the end of an ASCII vertex list that
		// is not a multiple of three.
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("%s: %w: truncated facet list", path, ErrFormat)
		}
	}()
	tris, err := render.LoadSTL(path)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%s: %w: short file", path, ErrFormat)
		}
		var pe *os.PathError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("stl: %w", err)
		}
		return nil, fmt.Errorf("%s: %w: %v", path, ErrFormat, err)
	}
	if len(tris) == 0 {
		return nil, fmt.Errorf("%s: %w: no facets", path, ErrFormat)
	}
	b := newBuilder(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	for _, t := range tris {
		b.triangle(t[0], t[1], t[2])
	}
	return &b.solid, nil
}

// Parse decodes an STL stream. Binary files are recognised by their length
// matching the triangle count in the header, since many binary exporters
// also start the header with "solid". Binary solids come back unnamed.
func Parse(r io.Reader) (*Solid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("stl: read: %w", err)
	}
	if len(data) >= headerSize {
		var h render.STLHeader
		if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
			return nil, fmt.Errorf("stl: header: %w", err)
		}
		if uint64(headerSize)+uint64(h.Count)*recordSize == uint64(len(data)) {
			return parseBinary(data[headerSize:], int(h.Count))
		}
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCII(data)
	}
	return nil, fmt.Errorf("%w: neither ASCII nor binary STL (%d bytes)", ErrFormat, len(data))
}

func parseBinary(data []byte, n int) (*Solid, error) {
	r := bytes.NewReader(data)
	b := newBuilder("")
	for i := 0; i < n; i++ {
		var rec render.STLTriangle
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: facet %d: %v", ErrFormat, i, err)
		}
		b.triangle(vec32(rec.Vertex1), vec32(rec.Vertex2), vec32(rec.Vertex3))
	}
	return &b.solid, nil
}

func vec32(v [3]float32) v3.Vec {
	return v3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

func parseASCII(data []byte) (*Solid, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var b *builder
	var corners []v3.Vec
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			if b == nil {
				b = newBuilder(strings.Join(fields[1:], " "))
			}
		case "facet":
			corners = corners[:0]
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: vertex needs 3 coordinates", ErrFormat, line)
			}
			var p [3]float64
			for k := range p {
				f, err := strconv.ParseFloat(fields[k+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
				}
				p[k] = f
			}
			corners = append(corners, v3.Vec{X: p[0], Y: p[1], Z: p[2]})
		case "endfacet":
			if b == nil {
				return nil, fmt.Errorf("%w: line %d: facet outside solid", ErrFormat, line)
			}
			if len(corners) != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrFormat, line, len(corners))
			}
			b.triangle(corners[0], corners[1], corners[2])
		case "outer", "endloop", "endsolid":
		default:
			return nil, fmt.Errorf("%w: line %d: unexpected %q", ErrFormat, line, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("stl: scan: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: missing solid header", ErrFormat)
	}
	return &b.solid, nil
}
