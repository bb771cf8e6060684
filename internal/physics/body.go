package physics

import (
	"github.com/Faultbox/waterline/pkg/math"
)

// RigidBody is a dynamic body driven by accumulated forces.
type RigidBody struct {
	Transform *Transform

	Velocity        math.Vec3
	AngularVelocity math.Vec3

	mass         float32
	drag         float32
	angularDrag  float32
	centerOfMass math.Vec3 // local space
	inertia      math.Vec3 // diagonal, local space

	force  math.Vec3
	torque math.Vec3

	// worldCenter caches the center of mass in world space. Refreshed on
	// sync so force application between syncs sees a stable pose.
	worldCenter math.Vec3
	world       *World
}

// Default drag values for a freshly created body.
const (
	DefaultDrag        = 0
	DefaultAngularDrag = 0.05
)

// NewRigidBody returns a body with unit inertia sized for a 1x1x1 box.
// mass <= 0 is replaced by 1.
func NewRigidBody(t *Transform, mass float32) *RigidBody {
	if mass <= 0 {
		mass = 1
	}
	if t == nil {
		t = NewTransform(math.Vec3{})
	}
	rb := &RigidBody{
		Transform:   t,
		mass:        mass,
		drag:        DefaultDrag,
		angularDrag: DefaultAngularDrag,
	}
	rb.SetInertiaFromBounds(math.Bounds{Extents: math.Splat(0.5)})
	rb.syncPose()
	return rb
}

// Mass returns the body mass.
func (rb *RigidBody) Mass() float32 { return rb.mass }

// Drag returns the linear drag coefficient.
func (rb *RigidBody) Drag() float32 { return rb.drag }

// SetDrag sets the linear drag coefficient.
func (rb *RigidBody) SetDrag(d float32) { rb.drag = d }

// AngularDrag returns the angular drag coefficient.
func (rb *RigidBody) AngularDrag() float32 { return rb.angularDrag }

// SetAngularDrag sets the angular drag coefficient.
func (rb *RigidBody) SetAngularDrag(d float32) { rb.angularDrag = d }

// CenterOfMass returns the local-space center of mass.
func (rb *RigidBody) CenterOfMass() math.Vec3 { return rb.centerOfMass }

// SetCenterOfMass moves the local-space center of mass.
func (rb *RigidBody) SetCenterOfMass(c math.Vec3) {
	rb.centerOfMass = c
	rb.syncPose()
}

// SetInertiaFromBounds sets a solid-box inertia tensor for the given local bounds.
func (rb *RigidBody) SetInertiaFromBounds(b math.Bounds) {
	s := b.Size()
	k := rb.mass / 12
	rb.inertia = math.Vec3{
		X: k * (s.Y*s.Y + s.Z*s.Z),
		Y: k * (s.X*s.X + s.Z*s.Z),
		Z: k * (s.X*s.X + s.Y*s.Y),
	}
}

// WorldCenterOfMass returns the center of mass in world space as of the last sync.
func (rb *RigidBody) WorldCenterOfMass() math.Vec3 {
	return rb.worldCenter
}

// AddForce accumulates a force through the center of mass.
func (rb *RigidBody) AddForce(f math.Vec3) {
	rb.force = rb.force.Add(f)
}

// AddForceAtPosition accumulates a force applied at a world-space point,
// producing torque about the center of mass.
func (rb *RigidBody) AddForceAtPosition(f, position math.Vec3) {
	if rb.world == nil || rb.world.autoSync {
		rb.syncPose()
	}
	rb.force = rb.force.Add(f)
	rb.torque = rb.torque.Add(position.Sub(rb.worldCenter).Cross(f))
}

// PointVelocity returns the velocity of a world-space point attached to the body.
func (rb *RigidBody) PointVelocity(position math.Vec3) math.Vec3 {
	return rb.Velocity.Add(rb.AngularVelocity.Cross(position.Sub(rb.worldCenter)))
}

// AccumulatedForce returns the force gathered since the last step.
func (rb *RigidBody) AccumulatedForce() math.Vec3 { return rb.force }

// AccumulatedTorque returns the torque gathered since the last step.
func (rb *RigidBody) AccumulatedTorque() math.Vec3 { return rb.torque }

func (rb *RigidBody) syncPose() {
	rb.worldCenter = rb.Transform.TransformPoint(rb.centerOfMass)
}

// integrate advances the body by dt under gravity and clears accumulators.
func (rb *RigidBody) integrate(gravity math.Vec3, dt float32) {
	rb.syncPose()
	acc := rb.force.Scale(1 / rb.mass).Add(gravity)
	rb.Velocity = rb.Velocity.Add(acc.Scale(dt))
	rb.Velocity = rb.Velocity.Scale(dampFactor(rb.drag, dt))

	// Angular: solve in the body frame where inertia is diagonal.
	rot := rb.Transform.Rotation
	localTorque := rot.Conjugate().Rotate(rb.torque)
	localAlpha := math.Vec3{
		X: safeDiv(localTorque.X, rb.inertia.X),
		Y: safeDiv(localTorque.Y, rb.inertia.Y),
		Z: safeDiv(localTorque.Z, rb.inertia.Z),
	}
	rb.AngularVelocity = rb.AngularVelocity.Add(rot.Rotate(localAlpha).Scale(dt))
	rb.AngularVelocity = rb.AngularVelocity.Scale(dampFactor(rb.angularDrag, dt))

	// Move the center of mass, then rebuild the transform origin around it.
	center := rb.worldCenter.Add(rb.Velocity.Scale(dt))
	w := rb.AngularVelocity
	spin := math.Quat{X: w.X, Y: w.Y, Z: w.Z}.Mul(rot)
	rot = math.Quat{
		X: rot.X + 0.5*dt*spin.X,
		Y: rot.Y + 0.5*dt*spin.Y,
		Z: rot.Z + 0.5*dt*spin.Z,
		W: rot.W + 0.5*dt*spin.W,
	}.Normalize()
	rb.Transform.Rotation = rot
	rb.Transform.Position = center.Sub(rot.Rotate(rb.centerOfMass.Mul(rb.Transform.Scale)))

	rb.force = math.Vec3{}
	rb.torque = math.Vec3{}
	rb.syncPose()
}

// dampFactor is the per-step velocity multiplier for a drag coefficient.
func dampFactor(drag, dt float32) float32 {
	return math.Clamp(1-drag*dt, 0, 1)
}

func safeDiv(a, b float32) float32 {
	if b == 0 {
		return 0
	}
	return a / b
}
