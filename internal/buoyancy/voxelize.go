package buoyancy

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/waterline/internal/collider"
	"github.com/Faultbox/waterline/pkg/math"
)

// insideTolerance is how close a shape's closest point must be to a candidate
// for the candidate to count as inside.
const insideTolerance = 0.01

var (
	// ErrNoColliders is returned when there is nothing to voxelize.
	ErrNoColliders = errors.New("no colliders to voxelize")
	// ErrInvalidResolution is returned for a non-positive voxel resolution.
	ErrInvalidResolution = errors.New("voxel resolution must be positive")
)

// Voxelization is the fixed sample grid derived from a collider set.
type Voxelization struct {
	// Points are cube centers in the body's local frame, x-major then y then z.
	Points []math.Vec3
	// Bounds is the collider union with size rounded up to whole voxels.
	Bounds math.Bounds
	// RawBounds is the collider union before rounding.
	RawBounds math.Bounds
	// Volume is min(resolution^3 * len(Points), RawBounds volume).
	Volume float32
}

// Density returns mass per unit volume, or 0 for an empty grid.
func (v Voxelization) Density(mass float32) float32 {
	if v.Volume <= 0 {
		return 0
	}
	return mass / v.Volume
}

// Voxelize scans a regular grid with spacing resolution over the union bounds
// of shapes and keeps every cube center that lies inside at least one shape.
// Shapes are in the body's local frame, so the result does not depend on the
// body's current rotation or scale.
func Voxelize(shapes []collider.Shape, resolution float32) (Voxelization, error) {
	if !(resolution > 0) || math32.IsInf(resolution, 0) {
		return Voxelization{}, fmt.Errorf("%w: %v", ErrInvalidResolution, resolution)
	}
	raw, ok := collider.UnionBounds(shapes)
	if !ok {
		return Voxelization{}, ErrNoColliders
	}

	bounds := raw.RoundUp(resolution)
	size := raw.Size()
	nx := int(math.Steps(size.X, resolution))
	ny := int(math.Steps(size.Y, resolution))
	nz := int(math.Steps(size.Z, resolution))

	var points []math.Vec3
	lo := bounds.Center.Sub(bounds.Extents)
	for ix := 0; ix < nx; ix++ {
		x := lo.X + (float32(ix)+0.5)*resolution
		for iy := 0; iy < ny; iy++ {
			y := lo.Y + (float32(iy)+0.5)*resolution
			for iz := 0; iz < nz; iz++ {
				p := math.Vec3{X: x, Y: y, Z: lo.Z + (float32(iz)+0.5)*resolution}
				if insideAny(shapes, p) {
					points = append(points, p)
				}
			}
		}
	}

	voxelVolume := resolution * resolution * resolution * float32(len(points))
	return Voxelization{
		Points:    points,
		Bounds:    bounds,
		RawBounds: raw,
		Volume:    math32.Min(raw.Volume(), voxelVolume),
	}, nil
}

func insideAny(shapes []collider.Shape, p math.Vec3) bool {
	for _, s := range shapes {
		if s.ClosestPoint(p).Distance(p) < insideTolerance {
			return true
		}
	}
	return false
}
