// Package collider provides convex collision shapes expressed in a body's local frame.
package collider

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/waterline/pkg/math"
)

// Kind identifies a shape type.
type Kind string

// Shape kinds accepted in scene files.
const (
	KindBox     Kind = "box"
	KindSphere  Kind = "sphere"
	KindCapsule Kind = "capsule"
)

// Shape is a convex volume in body-local space.
type Shape interface {
	// ClosestPoint returns the point on or inside the shape nearest to p.
	// Points inside the shape are returned unchanged.
	ClosestPoint(p math.Vec3) math.Vec3
	// Bounds returns the local axis-aligned bounds.
	Bounds() math.Bounds
	// Volume returns the enclosed volume.
	Volume() float32
}

// Box is an oriented box.
type Box struct {
	Center   math.Vec3
	Size     math.Vec3
	Rotation math.Quat
}

// NewBox returns an axis-aligned box.
func NewBox(center, size math.Vec3) *Box {
	return &Box{Center: center, Size: size, Rotation: math.QuatIdentity()}
}

// ClosestPoint clamps p into the box in the box's own frame.
func (b *Box) ClosestPoint(p math.Vec3) math.Vec3 {
	rot := b.rotation()
	local := rot.Conjugate().Rotate(p.Sub(b.Center))
	h := b.Size.Scale(0.5)
	clamped := math.Vec3{
		X: math.Clamp(local.X, -h.X, h.X),
		Y: math.Clamp(local.Y, -h.Y, h.Y),
		Z: math.Clamp(local.Z, -h.Z, h.Z),
	}
	return b.Center.Add(rot.Rotate(clamped))
}

// Bounds returns the AABB of the rotated box.
func (b *Box) Bounds() math.Bounds {
	m := b.rotation().ToMat4()
	h := b.Size.Scale(0.5)
	ext := math.Vec3{
		X: math32.Abs(m[0])*h.X + math32.Abs(m[4])*h.Y + math32.Abs(m[8])*h.Z,
		Y: math32.Abs(m[1])*h.X + math32.Abs(m[5])*h.Y + math32.Abs(m[9])*h.Z,
		Z: math32.Abs(m[2])*h.X + math32.Abs(m[6])*h.Y + math32.Abs(m[10])*h.Z,
	}
	return math.Bounds{Center: b.Center, Extents: ext}
}

// Volume returns the box volume.
func (b *Box) Volume() float32 {
	return b.Size.X * b.Size.Y * b.Size.Z
}

func (b *Box) rotation() math.Quat {
	if b.Rotation == (math.Quat{}) {
		return math.QuatIdentity()
	}
	return b.Rotation
}

// Sphere is a ball.
type Sphere struct {
	Center math.Vec3
	Radius float32
}

// ClosestPoint projects p onto the ball.
func (s *Sphere) ClosestPoint(p math.Vec3) math.Vec3 {
	d := p.Sub(s.Center)
	l := d.Length()
	if l <= s.Radius {
		return p
	}
	return s.Center.Add(d.Scale(s.Radius / l))
}

func (s *Sphere) Bounds() math.Bounds {
	return math.Bounds{Center: s.Center, Extents: math.Splat(s.Radius)}
}

func (s *Sphere) Volume() float32 {
	return 4.0 / 3.0 * math32.Pi * s.Radius * s.Radius * s.Radius
}

// Axis selects a capsule's long axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Capsule is a swept sphere along one local axis. Height includes both caps.
type Capsule struct {
	Center    math.Vec3
	Radius    float32
	Height    float32
	Direction Axis
}

func (c *Capsule) segment() (math.Vec3, math.Vec3) {
	half := math32.Max(c.Height*0.5-c.Radius, 0)
	var dir math.Vec3
	switch c.Direction {
	case AxisX:
		dir = math.Vec3{X: 1}
	case AxisZ:
		dir = math.Vec3{Z: 1}
	default:
		dir = math.Vec3{Y: 1}
	}
	return c.Center.Sub(dir.Scale(half)), c.Center.Add(dir.Scale(half))
}

// ClosestPoint projects p onto the capsule.
func (c *Capsule) ClosestPoint(p math.Vec3) math.Vec3 {
	a, b := c.segment()
	ab := b.Sub(a)
	t := float32(0)
	if denom := ab.Dot(ab); denom > 0 {
		t = math.Clamp(p.Sub(a).Dot(ab)/denom, 0, 1)
	}
	axisPoint := a.Add(ab.Scale(t))
	return (&Sphere{Center: axisPoint, Radius: c.Radius}).ClosestPoint(p)
}

func (c *Capsule) Bounds() math.Bounds {
	a, b := c.segment()
	r := math.Splat(c.Radius)
	return math.BoundsFromMinMax(a.Min(b).Sub(r), a.Max(b).Add(r))
}

func (c *Capsule) Volume() float32 {
	a, b := c.segment()
	cyl := math32.Pi * c.Radius * c.Radius * a.Distance(b)
	return cyl + (&Sphere{Radius: c.Radius}).Volume()
}

// Spec describes a shape in a scene file.
type Spec struct {
	Type     Kind      `yaml:"type"`
	Center   math.Vec3 `yaml:"center"`
	Size     math.Vec3 `yaml:"size,omitempty"`
	Rotation math.Vec3 `yaml:"rotation,omitempty"` // Euler degrees, boxes only
	Radius   float32   `yaml:"radius,omitempty"`
	Height   float32   `yaml:"height,omitempty"`
	Axis     string    `yaml:"axis,omitempty"` // x, y or z, capsules only
}

// Build constructs the shape described by s.
func (s Spec) Build() (Shape, error) {
	switch s.Type {
	case KindBox:
		if s.Size.X <= 0 || s.Size.Y <= 0 || s.Size.Z <= 0 {
			return nil, fmt.Errorf("box size must be positive, got %+v", s.Size)
		}
		return &Box{Center: s.Center, Size: s.Size, Rotation: math.QuatFromEuler(s.Rotation)}, nil
	case KindSphere:
		if s.Radius <= 0 {
			return nil, fmt.Errorf("sphere radius must be positive, got %v", s.Radius)
		}
		return &Sphere{Center: s.Center, Radius: s.Radius}, nil
	case KindCapsule:
		if s.Radius <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("capsule radius and height must be positive, got %v/%v", s.Radius, s.Height)
		}
		axis := AxisY
		switch s.Axis {
		case "x":
			axis = AxisX
		case "z":
			axis = AxisZ
		case "", "y":
		default:
			return nil, fmt.Errorf("unknown capsule axis %q", s.Axis)
		}
		return &Capsule{Center: s.Center, Radius: s.Radius, Height: s.Height, Direction: axis}, nil
	default:
		return nil, fmt.Errorf("unknown collider type %q", s.Type)
	}
}

// BuildAll constructs every shape in specs, in order.
func BuildAll(specs []Spec) ([]Shape, error) {
	shapes := make([]Shape, 0, len(specs))
	for i, s := range specs {
		shape, err := s.Build()
		if err != nil {
			return nil, fmt.Errorf("collider %d: %w", i, err)
		}
		shapes = append(shapes, shape)
	}
	return shapes, nil
}

// UnionBounds returns the bounds enclosing every shape. ok is false for an empty set.
func UnionBounds(shapes []Shape) (b math.Bounds, ok bool) {
	for i, s := range shapes {
		if i == 0 {
			b = s.Bounds()
			continue
		}
		b = b.Encapsulate(s.Bounds())
	}
	return b, len(shapes) > 0
}
