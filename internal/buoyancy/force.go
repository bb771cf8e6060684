package buoyancy

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/waterline/pkg/math"
)

const (
	// DefaultWaterDensity is fresh water in kg/m^3.
	DefaultWaterDensity = 1000
	// DefaultVoxelResolution is the voxel size used when none is configured.
	DefaultVoxelResolution = 0.51

	// dampingCoefficient scales the velocity-proportional resistive force.
	dampingCoefficient = 0.005
)

// DebugRecord is the last force evaluation for one sample point.
type DebugRecord struct {
	Position    math.Vec3
	WaterHeight float32
	Force       math.Vec3
	Submersion  float32
}

// Submersion returns how deep a sample at height y sits below waterHeight,
// probing resolution below the point, clamped to [0, 1]. under is false when
// the probe is at or above the surface.
func Submersion(y, waterHeight, resolution float32) (k float32, under bool) {
	if y-resolution >= waterHeight {
		return 0, false
	}
	return math.Clamp(waterHeight-(y-resolution), 0, 1), true
}

// VoxelForce combines velocity damping with a square-root buoyancy ramp.
// archimedes is the full per-sample buoyant force.
func VoxelForce(k, mass float32, velocity, archimedes math.Vec3) math.Vec3 {
	damping := velocity.Scale(-dampingCoefficient * mass)
	return damping.Add(archimedes.Scale(math32.Sqrt(k)))
}

// ArchimedesForce returns the upward buoyant force for one of samples points
// of a body of the given volume.
func ArchimedesForce(waterDensity, volume float32, gravity math.Vec3, samples int) math.Vec3 {
	if samples <= 0 {
		return math.Vec3{}
	}
	magnitude := waterDensity * math32.Abs(gravity.Y) * volume
	return math.Vec3{Y: magnitude / float32(samples)}
}

// buoyancyForce evaluates sample i, applies the force to the body and returns
// the sample's share of the aggregate submerged fraction.
func (o *Object) buoyancyForce(i int, position, velocity math.Vec3, waterHeight float32) float32 {
	d := &o.debug[i]
	*d = DebugRecord{Position: position, WaterHeight: waterHeight}

	k, under := Submersion(position.Y, waterHeight, o.opts.VoxelResolution)
	if !under {
		return 0
	}

	force := VoxelForce(k, o.body.Mass(), velocity, o.archimedes)
	o.body.AddForceAtPosition(force, position)

	d.Force = force
	d.Submersion = k
	return k / float32(len(o.samplePoints))
}
