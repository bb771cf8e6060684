// Package buoyancy floats rigid bodies on a wave field by sampling the water
// height at a grid of voxels inside the body and applying per-voxel forces.
package buoyancy

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/waterline/internal/collider"
	"github.com/Faultbox/waterline/internal/logger"
	"github.com/Faultbox/waterline/internal/physics"
	"github.com/Faultbox/waterline/pkg/math"
)

// RigidBody is the host integrator's view of a dynamic body.
type RigidBody interface {
	Mass() float32
	Drag() float32
	SetDrag(float32)
	AngularDrag() float32
	SetAngularDrag(float32)
	SetCenterOfMass(math.Vec3)
	AddForceAtPosition(force, position math.Vec3)
	PointVelocity(position math.Vec3) math.Vec3
}

// TransformSyncer lets a host suspend per-force pose refreshes during the voxel loop.
type TransformSyncer interface {
	SetAutoSyncTransforms(bool)
	SyncTransforms()
}

// Options configures an Object.
type Options struct {
	Name             string
	Mode             Mode
	VoxelResolution  float32 // cube size; 0 means DefaultVoxelResolution
	CenterOfMass     math.Vec3
	WaterLevelOffset float32
	// Volume is used by the single-point modes. Zero falls back to the
	// collider bounds volume. Voxel modes derive volume from the grid.
	Volume float32
	// Mass is used when no rigid body is attached. Zero means 1.
	Mass         float32
	WaterDensity float32   // 0 means DefaultWaterDensity
	Gravity      math.Vec3 // zero means (0, -9.81, 0)
}

func (o *Options) applyDefaults() {
	if o.VoxelResolution == 0 {
		o.VoxelResolution = DefaultVoxelResolution
	}
	if o.WaterDensity == 0 {
		o.WaterDensity = DefaultWaterDensity
	}
	if o.Gravity == (math.Vec3{}) {
		o.Gravity = math.Vec3{Y: -9.81}
	}
	if o.Mass <= 0 {
		o.Mass = 1
	}
	if o.Name == "" {
		o.Name = "object"
	}
}

// Deps are the collaborators an Object works against.
type Deps struct {
	Transform  *physics.Transform
	Colliders  []collider.Shape
	Body       RigidBody       // physical modes; created when nil
	Heights    HeightSource    // shared wave query
	Transforms *TransformStage // physical modes; created when nil
	Syncer     TransformSyncer // optional
}

var lastInstanceID atomic.Int64

// NewInstanceID returns a process-unique object identity.
func NewInstanceID() int {
	return int(lastInstanceID.Add(1))
}

// Object is a body floating on the water. Its per-frame methods must be
// called from one goroutine in the order Fetch, Register, Sample,
// ApplyForces (once per fixed step), Schedule.
type Object struct {
	id       int
	opts     Options
	mode     Mode
	strategy strategy
	log      *zap.Logger

	transform  *physics.Transform
	colliders  []collider.Shape
	body       RigidBody
	syncer     TransformSyncer
	transforms *TransformStage
	query      heightQuery

	voxels  []math.Vec3
	bounds  math.Bounds
	volume  float32
	density float32

	archimedes math.Vec3
	drag       dragAdapter
	submerged  float32

	samplePoints []math.Vec3
	velocities   []math.Vec3
	heights      []float32
	normals      []math.Vec3
	debug        []DebugRecord

	enabled bool
}

// New builds and initializes an Object.
func New(opts Options, deps Deps) (*Object, error) {
	opts.applyDefaults()
	id := NewInstanceID()
	log := logger.Named("buoyancy").With(zap.String("body", opts.Name), zap.Int("id", id))

	o := &Object{
		id:         id,
		opts:       opts,
		mode:       opts.Mode,
		strategy:   newStrategy(opts.Mode),
		log:        log,
		transform:  deps.Transform,
		colliders:  deps.Colliders,
		body:       deps.Body,
		syncer:     deps.Syncer,
		transforms: deps.Transforms,
		query:      heightQuery{src: deps.Heights, id: id, log: log},
	}
	if o.transform == nil {
		o.transform = physics.NewTransform(math.Vec3{})
		log.Warn("object had no transform; one has been added at the origin")
	}
	if o.transforms == nil && o.mode.Physical() {
		o.transforms = NewTransformStage()
	}
	if err := o.Init(); err != nil {
		return nil, err
	}
	return o, nil
}

// Init builds the voxel set and runtime arrays. It may be called again to
// rebuild after the colliders or options changed.
func (o *Object) Init() error {
	o.release()

	o.voxels = nil
	o.bounds = math.Bounds{}

	if o.mode.Voxelized() {
		o.setupColliders()
		vox, err := Voxelize(o.colliders, o.opts.VoxelResolution)
		if err != nil {
			return fmt.Errorf("voxelizing %s: %w", o.opts.Name, err)
		}
		o.voxels = vox.Points
		o.bounds = vox.Bounds
		o.volume = vox.Volume
		if len(o.voxels) == 0 {
			o.log.Warn("voxelization produced no voxels; object will not float",
				zap.Float32("resolution", o.opts.VoxelResolution))
		}
	}

	if o.mode.Physical() {
		if o.body == nil {
			o.body = physics.NewRigidBody(o.transform, o.opts.Mass)
			o.log.Warn("object had no rigid body; one has been added", zap.Float32("mass", o.opts.Mass))
		}
		o.body.SetCenterOfMass(o.opts.CenterOfMass.Add(o.bounds.Center))
		o.drag = newDragAdapter(o.body.Drag(), o.body.AngularDrag())
	}

	if !o.mode.Voxelized() {
		o.voxels = []math.Vec3{o.opts.CenterOfMass}
		o.volume = o.pointVolume()
	}

	o.density = 0
	if o.volume > 0 {
		o.density = o.mass() / o.volume
	}

	n := len(o.voxels)
	o.samplePoints = make([]math.Vec3, n)
	o.velocities = make([]math.Vec3, n)
	o.heights = make([]float32, n)
	o.normals = make([]math.Vec3, n)
	o.debug = make([]DebugRecord, n)
	o.archimedes = ArchimedesForce(o.opts.WaterDensity, o.volume, o.opts.Gravity, n)
	o.submerged = 0
	o.enabled = true

	o.log.Debug("initialized",
		zap.Stringer("mode", o.mode),
		zap.Int("voxels", n),
		zap.Float32("volume", o.volume),
		zap.Float32("density", o.density),
		logger.Vec3("archimedes", o.archimedes))

	o.Schedule()
	return nil
}

func (o *Object) setupColliders() {
	if len(o.colliders) > 0 {
		return
	}
	o.colliders = []collider.Shape{collider.NewBox(math.Vec3{}, math.Splat(1))}
	o.log.Warn("object had no colliders; a unit box collider has been added")
}

func (o *Object) pointVolume() float32 {
	if o.opts.Volume > 0 {
		return o.opts.Volume
	}
	if b, ok := collider.UnionBounds(o.colliders); ok {
		return b.Volume()
	}
	o.log.Warn("object has no volume and no colliders; buoyant force will be zero")
	return 0
}

func (o *Object) mass() float32 {
	if o.body != nil {
		return o.body.Mass()
	}
	return o.opts.Mass
}

// Fetch waits for the transform scheduled at the end of the previous frame
// and adopts its world-space sample points.
func (o *Object) Fetch() {
	if !o.enabled || !o.mode.Physical() {
		return
	}
	pts := o.transforms.Complete(o.id)
	if len(pts) != len(o.samplePoints) {
		return
	}
	copy(o.samplePoints, pts)
}

// Register publishes this frame's sample points to the wave query.
func (o *Object) Register() {
	if !o.enabled || len(o.samplePoints) == 0 {
		return
	}
	o.strategy.register(o)
}

// Sample reads back water heights and samples point velocities.
// NonPhysical objects are moved onto the surface here.
func (o *Object) Sample(dt float32) {
	if !o.enabled || len(o.samplePoints) == 0 {
		return
	}
	o.strategy.sample(o, dt)
}

// ApplyForces applies buoyancy for one fixed step.
func (o *Object) ApplyForces() {
	if !o.enabled {
		return
	}
	o.strategy.applyForces(o)
}

// Schedule starts converting the voxel set to world space for the next frame.
func (o *Object) Schedule() {
	if !o.enabled || !o.mode.Physical() {
		return
	}
	o.transforms.Schedule(o.id, o.voxels, o.transform.LocalToWorld())
}

func (o *Object) sampleVelocities() {
	for i, p := range o.samplePoints {
		o.velocities[i] = o.body.PointVelocity(p)
	}
}

// Disable stops the object and releases its pending transform job and wave registration.
func (o *Object) Disable() {
	o.release()
	o.enabled = false
}

// Enable resumes a disabled object.
func (o *Object) Enable() {
	if o.enabled {
		return
	}
	o.enabled = true
	o.Schedule()
}

// Destroy releases the object permanently.
func (o *Object) Destroy() {
	o.Disable()
	o.log.Debug("destroyed")
}

func (o *Object) release() {
	if o.transforms != nil {
		o.transforms.Release(o.id)
	}
	o.query.release()
}

// ID returns the object's identity key.
func (o *Object) ID() int { return o.id }

// Name returns the configured name.
func (o *Object) Name() string { return o.opts.Name }

// Mode returns the operating mode.
func (o *Object) Mode() Mode { return o.mode }

// Enabled reports whether the object takes part in frames.
func (o *Object) Enabled() bool { return o.enabled }

// Transform returns the object's transform.
func (o *Object) Transform() *physics.Transform { return o.transform }

// Body returns the rigid body, nil for non-physical modes.
func (o *Object) Body() RigidBody { return o.body }

// Voxels returns the local-space sample points.
func (o *Object) Voxels() []math.Vec3 {
	return append([]math.Vec3(nil), o.voxels...)
}

// VoxelBounds returns the rounded voxel bounds; zero for single-point modes.
func (o *Object) VoxelBounds() math.Bounds { return o.bounds }

// Volume returns the displacement volume used for buoyancy.
func (o *Object) Volume() float32 { return o.volume }

// Density returns mass divided by volume.
func (o *Object) Density() float32 { return o.density }

// ArchimedesForce returns the per-sample buoyant force at full submersion.
func (o *Object) ArchimedesForce() math.Vec3 { return o.archimedes }

// SamplePoints returns the current world-space sample points.
func (o *Object) SamplePoints() []math.Vec3 {
	return append([]math.Vec3(nil), o.samplePoints...)
}

// WaterHeights returns the heights sampled this frame, before the level offset.
func (o *Object) WaterHeights() []float32 {
	return append([]float32(nil), o.heights...)
}

// Debug returns the last force evaluation per sample point.
func (o *Object) Debug() []DebugRecord {
	return append([]DebugRecord(nil), o.debug...)
}

// SubmergedAmount returns the aggregate submerged fraction of the last fixed step.
func (o *Object) SubmergedAmount() float32 { return o.submerged }

// PercentSubmerged returns the smoothed submerged fraction driving drag.
func (o *Object) PercentSubmerged() float32 { return o.drag.percent }

// checkInvariant reports whether every runtime array matches the voxel count.
func (o *Object) checkInvariant() bool {
	n := len(o.voxels)
	return len(o.samplePoints) == n && len(o.velocities) == n &&
		len(o.heights) == n && len(o.normals) == n && len(o.debug) == n
}
