package math

import "github.com/chewxy/math32"

// Bounds is an axis-aligned box stored as center and half extents.
type Bounds struct {
	Center  Vec3
	Extents Vec3
}

// BoundsFromMinMax builds bounds from corner points.
func BoundsFromMinMax(min, max Vec3) Bounds {
	return Bounds{
		Center:  min.Add(max).Scale(0.5),
		Extents: max.Sub(min).Scale(0.5),
	}
}

// Min returns the minimum corner.
func (b Bounds) Min() Vec3 {
	return b.Center.Sub(b.Extents)
}

// Max returns the maximum corner.
func (b Bounds) Max() Vec3 {
	return b.Center.Add(b.Extents)
}

// Size returns the full edge lengths.
func (b Bounds) Size() Vec3 {
	return b.Extents.Scale(2)
}

// Volume returns the box volume.
func (b Bounds) Volume() float32 {
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Encapsulate grows b to contain other.
func (b Bounds) Encapsulate(other Bounds) Bounds {
	return BoundsFromMinMax(b.Min().Min(other.Min()), b.Max().Max(other.Max()))
}

// roundSlack absorbs float error so exact multiples are not bumped a whole step.
const roundSlack = 1e-4

// RoundUp returns bounds with the same center whose size is rounded up to
// whole multiples of step on every axis.
func (b Bounds) RoundUp(step float32) Bounds {
	s := b.Size()
	rounded := Vec3{
		Steps(s.X, step) * step,
		Steps(s.Y, step) * step,
		Steps(s.Z, step) * step,
	}
	return Bounds{Center: b.Center, Extents: rounded.Scale(0.5)}
}

// Steps returns how many whole steps are needed to cover length.
func Steps(length, step float32) float32 {
	n := math32.Ceil(length/step - roundSlack)
	if n < 0 {
		return 0
	}
	return n
}
