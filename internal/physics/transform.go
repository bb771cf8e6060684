// Package physics provides a minimal rigid-body integrator for floating objects.
package physics

import "github.com/Faultbox/waterline/pkg/math"

// Transform is an object's pose in world space.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// NewTransform returns a transform at position with identity rotation and unit scale.
func NewTransform(position math.Vec3) *Transform {
	return &Transform{
		Position: position,
		Rotation: math.QuatIdentity(),
		Scale:    math.Splat(1),
	}
}

// LocalToWorld returns the matrix mapping local points into world space.
func (t *Transform) LocalToWorld() math.Mat4 {
	return math.TRS(t.Position, t.Rotation, t.Scale)
}

// TransformPoint maps a local point into world space.
func (t *Transform) TransformPoint(p math.Vec3) math.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(p.Mul(t.Scale)))
}

// Up returns the local up axis in world space.
func (t *Transform) Up() math.Vec3 {
	return t.Rotation.Up()
}

// SetUp rotates the transform so its up axis points along up.
func (t *Transform) SetUp(up math.Vec3) {
	if up.Length() == 0 {
		return
	}
	t.Rotation = math.QuatFromTo(t.Up(), up).Mul(t.Rotation).Normalize()
}
