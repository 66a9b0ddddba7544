// Package kernel defines the solid modelling interface that sample and
// stock parts are built with. Backends produce a triangle soup that
// pkg/tessellate welds into a half-edge mesh for feature extraction.
package kernel

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids. Lengths are in millimetres.
type Kernel interface {
	// Primitives. Boxes have their minimum corner at the origin and
	// cylinders stand on z=0 around the Z axis.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
