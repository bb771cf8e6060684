package buoyancy

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Mode selects how an object interacts with the water.
type Mode int

const (
	// NonPhysical snaps the transform onto the surface at a single point. No forces.
	NonPhysical Mode = iota
	// NonPhysicalVoxel is reserved. It voxelizes but has no per-frame behavior yet.
	NonPhysicalVoxel
	// Physical applies buoyancy at a single point at the center of mass.
	Physical
	// PhysicalVoxel applies per-voxel buoyancy and adapts drag to submersion.
	PhysicalVoxel
)

var modeNames = [...]string{
	NonPhysical:      "non_physical",
	NonPhysicalVoxel: "non_physical_voxel",
	Physical:         "physical",
	PhysicalVoxel:    "physical_voxel",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts snake_case or CamelCase mode names.
func ParseMode(s string) (Mode, error) {
	norm := strings.ToLower(strings.ReplaceAll(s, "_", ""))
	for m, name := range modeNames {
		if strings.ReplaceAll(name, "_", "") == norm {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("unknown buoyancy mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= 0 && int(m) < len(modeNames)
}

// Voxelized reports whether the mode builds a voxel grid from colliders.
func (m Mode) Voxelized() bool {
	return m == NonPhysicalVoxel || m == PhysicalVoxel
}

// Physical reports whether the mode drives a rigid body.
func (m Mode) Physical() bool {
	return m == Physical || m == PhysicalVoxel
}

// strategy is the per-mode frame behavior, chosen once at construction.
type strategy interface {
	// register publishes the object's sample points for this frame.
	register(o *Object)
	// sample consumes fetched heights and prepares per-voxel inputs.
	sample(o *Object, dt float32)
	// applyForces runs during the fixed step.
	applyForces(o *Object)
}

func newStrategy(m Mode) strategy {
	switch m {
	case NonPhysicalVoxel:
		return &nonPhysicalVoxel{}
	case Physical:
		return physical{}
	case PhysicalVoxel:
		return physicalVoxel{}
	default:
		return nonPhysical{}
	}
}

type nonPhysical struct{}

func (nonPhysical) register(o *Object) {
	o.samplePoints[0] = o.transform.TransformPoint(o.opts.CenterOfMass)
	o.query.register(o.samplePoints)
}

func (nonPhysical) sample(o *Object, dt float32) {
	o.query.fetch(o.heights, o.normals)
	h := o.heights[0] + o.opts.WaterLevelOffset
	o.debug[0] = DebugRecord{Position: o.samplePoints[0], WaterHeight: h}
	if !o.query.ok {
		return
	}
	o.transform.Position.Y = h
	o.transform.SetUp(o.transform.Up().Slerp(o.normals[0], dt))
}

func (nonPhysical) applyForces(*Object) {}

// nonPhysicalVoxel has no defined frame behavior.
type nonPhysicalVoxel struct {
	warned bool
}

func (s *nonPhysicalVoxel) register(o *Object) {
	if !s.warned {
		s.warned = true
		o.log.Warn("non_physical_voxel mode is not implemented; object will not follow the water",
			zap.Int("voxels", len(o.voxels)))
	}
}

func (*nonPhysicalVoxel) sample(*Object, float32) {}
func (*nonPhysicalVoxel) applyForces(*Object)     {}

type physical struct{}

func (physical) register(o *Object) {
	o.query.register(o.samplePoints)
}

func (physical) sample(o *Object, _ float32) {
	o.query.fetch(o.heights, o.normals)
	o.sampleVelocities()
}

func (physical) applyForces(o *Object) {
	if len(o.samplePoints) == 0 {
		return
	}
	o.submerged = o.buoyancyForce(0, o.samplePoints[0], o.velocities[0], o.heights[0]+o.opts.WaterLevelOffset)
}

type physicalVoxel struct{}

func (physicalVoxel) register(o *Object) {
	o.query.register(o.samplePoints)
}

func (physicalVoxel) sample(o *Object, _ float32) {
	o.query.fetch(o.heights, o.normals)
	o.sampleVelocities()
}

func (physicalVoxel) applyForces(o *Object) {
	if o.syncer != nil {
		o.syncer.SetAutoSyncTransforms(false)
	}
	var submerged float32
	for i := range o.voxels {
		submerged += o.buoyancyForce(i, o.samplePoints[i], o.velocities[i], o.heights[i]+o.opts.WaterLevelOffset)
	}
	if o.syncer != nil {
		o.syncer.SyncTransforms()
		o.syncer.SetAutoSyncTransforms(true)
	}
	o.submerged = submerged
	o.drag.update(o.body, submerged)
}
