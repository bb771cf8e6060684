// Package sim implements the frame loop that drives floating bodies.
package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/waterline/internal/buoyancy"
	"github.com/Faultbox/waterline/internal/collider"
	"github.com/Faultbox/waterline/internal/config"
	"github.com/Faultbox/waterline/internal/logger"
	"github.com/Faultbox/waterline/internal/physics"
	"github.com/Faultbox/waterline/internal/water"
	"github.com/Faultbox/waterline/pkg/math"
)

// maxSubsteps bounds the fixed steps run for one frame so a long frame
// cannot stall the loop.
const maxSubsteps = 8

// Body is one simulated object.
type Body struct {
	Name   string
	Object *buoyancy.Object
	Rigid  *physics.RigidBody // nil for non-physical modes
}

// State is a snapshot of a body for reporting.
type State struct {
	Name      string
	Mode      buoyancy.Mode
	Position  math.Vec3
	Velocity  math.Vec3
	Submerged float32
}

// Simulation owns the world, the shared water query and every body.
type Simulation struct {
	cfg   config.SimulationConfig
	world *physics.World
	water *water.Registry
	stage *buoyancy.TransformStage

	bodies []*Body

	time        float32
	accumulator float32
	frames      int
	steps       int

	log *zap.Logger
}

// New creates a simulation from a validated config.
func New(cfg *config.Config) (*Simulation, error) {
	log := logger.Named("sim")

	field, err := cfg.Water.Build()
	if err != nil {
		return nil, fmt.Errorf("building water: %w", err)
	}

	s := &Simulation{
		cfg:   cfg.Simulation,
		world: physics.NewWorld(),
		water: water.NewRegistry(field),
		stage: buoyancy.NewTransformStage(),
		log:   log,
	}
	if cfg.Simulation.Gravity != (math.Vec3{}) {
		s.world.Gravity = cfg.Simulation.Gravity
	}

	for _, bc := range cfg.Bodies {
		if _, err := s.AddBody(bc); err != nil {
			s.Close()
			return nil, fmt.Errorf("adding body %q: %w", bc.Name, err)
		}
	}

	log.Info("simulation initialized",
		zap.String("water", string(cfg.Water.Type)),
		zap.Int("bodies", len(s.bodies)),
		zap.Duration("fixed_step", cfg.Simulation.FixedStep),
		zap.Duration("frame_step", cfg.Simulation.FrameStep))
	return s, nil
}

// AddBody builds a body from its config and adds it to the world.
func (s *Simulation) AddBody(bc config.BodyConfig) (*Body, error) {
	mode := bc.Mode
	shapes, err := collider.BuildAll(bc.Colliders)
	if err != nil {
		return nil, err
	}

	tr := physics.NewTransform(bc.Position)
	tr.Rotation = math.QuatFromEuler(bc.Rotation)

	b := &Body{Name: bc.Name}
	deps := buoyancy.Deps{
		Transform:  tr,
		Colliders:  shapes,
		Heights:    s.water,
		Transforms: s.stage,
		Syncer:     s.world,
	}
	if mode.Physical() {
		b.Rigid = physics.NewRigidBody(tr, bc.Mass)
		b.Rigid.SetDrag(bc.Drag)
		b.Rigid.SetAngularDrag(bc.AngularDrag)
		if bounds, ok := collider.UnionBounds(shapes); ok {
			b.Rigid.SetInertiaFromBounds(bounds)
		}
		deps.Body = b.Rigid
	}

	obj, err := buoyancy.New(buoyancy.Options{
		Name:             bc.Name,
		Mode:             mode,
		VoxelResolution:  bc.VoxelResolution,
		CenterOfMass:     bc.CenterOfMass,
		WaterLevelOffset: bc.WaterLevelOffset,
		Volume:           bc.Volume,
		Mass:             bc.Mass,
		WaterDensity:     s.cfg.WaterDensity,
		Gravity:          s.world.Gravity,
	}, deps)
	if err != nil {
		return nil, err
	}
	b.Object = obj

	if b.Rigid != nil {
		s.world.AddBody(b.Rigid)
	}
	s.bodies = append(s.bodies, b)

	s.log.Debug("body added",
		zap.String("body", bc.Name),
		zap.Stringer("mode", mode),
		zap.Int("voxels", len(obj.Voxels())),
		zap.Float32("density", obj.Density()))
	return b, nil
}

// RemoveBody destroys a body and drops it from the world.
func (s *Simulation) RemoveBody(name string) bool {
	for i, b := range s.bodies {
		if b.Name != name {
			continue
		}
		b.Object.Destroy()
		if b.Rigid != nil {
			s.world.RemoveBody(b.Rigid)
		}
		s.bodies = append(s.bodies[:i], s.bodies[i+1:]...)
		return true
	}
	return false
}

// Step advances one frame of dt seconds.
func (s *Simulation) Step(ctx context.Context, dt float32) error {
	// 1. Collect world-space sample points
	for _, b := range s.bodies {
		b.Object.Fetch()
		b.Object.Register()
	}

	// 2. Resolve the shared wave query
	if err := s.water.Resolve(ctx, s.time); err != nil {
		return fmt.Errorf("resolving water heights: %w", err)
	}

	// 3. Read back heights
	for _, b := range s.bodies {
		b.Object.Sample(dt)
	}

	// 4. Fixed steps
	fixed := s.cfg.FixedStepSeconds()
	s.accumulator += dt
	n := 0
	for s.accumulator >= fixed && n < maxSubsteps {
		for _, b := range s.bodies {
			b.Object.ApplyForces()
		}
		s.world.Step(fixed)
		s.accumulator -= fixed
		s.steps++
		n++
	}
	if n == maxSubsteps && s.accumulator >= fixed {
		s.log.Warn("frame too long; dropping fixed steps",
			zap.Float32("dt", dt),
			zap.Float32("dropped", s.accumulator))
		s.accumulator = 0
	}

	// 5. Start next frame's transforms
	for _, b := range s.bodies {
		b.Object.Schedule()
	}

	s.time += dt
	s.frames++
	return nil
}

// Run steps Duration/FrameStep frames. report, when non-nil, is called every
// ReportEvery of simulated time and once more with the final state unless the
// last frame already reported. A cancelled ctx stops the loop without a final
// report.
func (s *Simulation) Run(ctx context.Context, report func([]State)) error {
	dt := s.cfg.FrameStepSeconds()
	total := frameCount(s.cfg.Duration, s.cfg.FrameStep)
	every := frameCount(s.cfg.ReportEvery, s.cfg.FrameStep)

	s.log.Info("starting simulation loop",
		zap.Duration("duration", s.cfg.Duration),
		zap.Int("frames", total))

	reported := false
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(ctx, dt); err != nil {
			return err
		}

		reported = false
		if report != nil && every > 0 && i%every == 0 {
			report(s.States())
			reported = true
		}
	}
	if report != nil && !reported {
		report(s.States())
	}

	s.log.Info("simulation finished",
		zap.Int("frames", s.frames),
		zap.Int("steps", s.steps),
		zap.Duration("elapsed", time.Duration(total)*s.cfg.FrameStep))
	return nil
}

// frameCount is the number of whole steps of length step covering d.
// Remainders under a microsecond are dropped so that durations such as
// 3s at 60 Hz, which do not divide evenly in nanoseconds, do not gain a frame.
func frameCount(d, step time.Duration) int {
	if d <= 0 || step <= 0 {
		return 0
	}
	n := int(d / step)
	if d%step > time.Microsecond {
		n++
	}
	return n
}

// States returns a snapshot of every body in insertion order.
func (s *Simulation) States() []State {
	states := make([]State, 0, len(s.bodies))
	for _, b := range s.bodies {
		st := State{
			Name:      b.Name,
			Mode:      b.Object.Mode(),
			Position:  b.Object.Transform().Position,
			Submerged: b.Object.SubmergedAmount(),
		}
		if b.Rigid != nil {
			st.Velocity = b.Rigid.Velocity
		}
		states = append(states, st)
	}
	return states
}

// Body returns the named body, or nil.
func (s *Simulation) Body(name string) *Body {
	for _, b := range s.bodies {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Bodies returns every body in insertion order.
func (s *Simulation) Bodies() []*Body { return s.bodies }

// World returns the physics world.
func (s *Simulation) World() *physics.World { return s.world }

// Water returns the shared height query.
func (s *Simulation) Water() *water.Registry { return s.water }

// Time returns the simulated time in seconds.
func (s *Simulation) Time() float32 { return s.time }

// Frames returns the number of frames stepped.
func (s *Simulation) Frames() int { return s.frames }

// Steps returns the number of fixed steps run.
func (s *Simulation) Steps() int { return s.steps }

// Close releases every body.
func (s *Simulation) Close() {
	s.log.Info("closing simulation")

	for _, b := range s.bodies {
		b.Object.Destroy()
	}
	s.stage.Close()
}
