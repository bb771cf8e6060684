package buoyancy

import (
	"testing"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/waterline/internal/collider"
	"github.com/Faultbox/waterline/internal/logger"
	"github.com/Faultbox/waterline/internal/physics"
	"github.com/Faultbox/waterline/pkg/math"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(nil) })
	return logs
}

func unitBox() []collider.Shape {
	return []collider.Shape{collider.NewBox(math.Vec3{}, math.Splat(1))}
}

func newVoxelObject(t *testing.T, level float32, body *fakeBody) (*Object, *fakeHeights) {
	t.Helper()
	heights := newFakeHeights(level)
	o, err := New(Options{Name: "crate", Mode: PhysicalVoxel, VoxelResolution: 0.5}, Deps{
		Transform: physics.NewTransform(math.Vec3{}),
		Colliders: unitBox(),
		Body:      body,
		Heights:   heights,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(o.Destroy)
	return o, heights
}

func TestObjectAtSurface(t *testing.T) {
	body := &fakeBody{mass: 500, drag: 1, angularDrag: 0.05}
	o, _ := newVoxelObject(t, 0, body)

	if !o.checkInvariant() {
		t.Fatal("runtime arrays do not match voxel count")
	}
	if len(o.Voxels()) != 8 {
		t.Fatalf("expected 8 voxels, got %d", len(o.Voxels()))
	}

	frame(o, 0.02)

	if len(body.forces) != 8 {
		t.Fatalf("expected 8 applied forces, got %d", len(body.forces))
	}
	a := float32(1000 * 9.81 / 8)
	want := 4 * a * (math32.Sqrt(0.25) + math32.Sqrt(0.75))
	if got := body.totalForce().Y; math32.Abs(got-want) > 0.05 {
		t.Errorf("expected total lift %f, got %f", want, got)
	}
	if math32.Abs(o.SubmergedAmount()-0.5) > 1e-5 {
		t.Errorf("expected submerged 0.5, got %f", o.SubmergedAmount())
	}
	if math32.Abs(o.PercentSubmerged()-0.125) > 1e-5 {
		t.Errorf("expected smoothed percent 0.125, got %f", o.PercentSubmerged())
	}
	if math32.Abs(body.drag-2.25) > 1e-5 {
		t.Errorf("expected drag 2.25, got %f", body.drag)
	}
	if math32.Abs(body.angularDrag-0.1125) > 1e-5 {
		t.Errorf("expected angular drag 0.1125, got %f", body.angularDrag)
	}

	for i, d := range o.Debug() {
		if d.Submersion < 0 || d.Submersion > 1 {
			t.Errorf("voxel %d: submersion %f out of range", i, d.Submersion)
		}
	}
}

func TestObjectAboveWater(t *testing.T) {
	body := &fakeBody{mass: 500, drag: 1}
	o, _ := newVoxelObject(t, -10, body)

	frame(o, 0.02)

	if len(body.forces) != 0 {
		t.Errorf("expected no forces above water, got %d", len(body.forces))
	}
	if o.SubmergedAmount() != 0 {
		t.Errorf("expected submerged 0, got %f", o.SubmergedAmount())
	}
	if body.drag != 1 {
		t.Errorf("expected baseline drag 1, got %f", body.drag)
	}
}

func TestObjectFullySubmerged(t *testing.T) {
	body := &fakeBody{mass: 100, drag: 0.5, velocity: math.Vec3{Y: -2}}
	o, _ := newVoxelObject(t, 10, body)

	frame(o, 0.02)

	a := float32(1000 * 9.81 / 8)
	for i, f := range body.forces {
		// damping adds 0.005 * 100 * 2 upward
		if math32.Abs(f.force.Y-(a+1)) > 1e-2 {
			t.Errorf("voxel %d: expected force %f, got %f", i, a+1, f.force.Y)
		}
	}
	if math32.Abs(o.SubmergedAmount()-1) > 1e-5 {
		t.Errorf("expected submerged 1, got %f", o.SubmergedAmount())
	}

	for i := 0; i < 40; i++ {
		o.ApplyForces()
		if o.SubmergedAmount() > 1+1e-5 {
			t.Fatalf("submerged amount exceeds 1: %f", o.SubmergedAmount())
		}
	}
	if math32.Abs(o.PercentSubmerged()-1) > 1e-3 {
		t.Errorf("expected smoothed percent near 1, got %f", o.PercentSubmerged())
	}
	if math32.Abs(body.drag-(0.5+0.5*10*o.PercentSubmerged())) > 1e-4 {
		t.Errorf("drag compounded instead of tracking baseline: %f", body.drag)
	}
}

func TestObjectLiftIncreasesWithDepth(t *testing.T) {
	var prev float32 = -1
	for _, level := range []float32{-1, -0.5, -0.25, 0, 0.25, 0.5, 1, 2} {
		body := &fakeBody{mass: 10}
		o, _ := newVoxelObject(t, level, body)
		frame(o, 0.02)

		lift := body.totalForce().Y
		if lift < prev {
			t.Errorf("lift decreased at water level %f: %f < %f", level, lift, prev)
		}
		prev = lift
	}
}

func TestObjectFollowsTransform(t *testing.T) {
	body := &fakeBody{mass: 10}
	o, heights := newVoxelObject(t, 0, body)

	o.Transform().Position = math.Vec3{X: 3, Y: 1}
	o.Schedule()
	o.Fetch()
	o.Register()

	pts := heights.points[o.ID()]
	if len(pts) != 8 {
		t.Fatalf("expected 8 registered points, got %d", len(pts))
	}
	for i, p := range pts {
		want := o.Voxels()[i].Add(math.Vec3{X: 3, Y: 1})
		if p.Distance(want) > 1e-5 {
			t.Errorf("point %d: expected %v, got %v", i, want, p)
		}
	}
}

func TestObjectWithoutWaterData(t *testing.T) {
	body := &fakeBody{mass: 10}
	o, err := New(Options{Mode: PhysicalVoxel, VoxelResolution: 0.5}, Deps{
		Transform: physics.NewTransform(math.Vec3{Y: -50}),
		Colliders: unitBox(),
		Body:      body,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	frame(o, 0.02)

	if len(body.forces) != 0 {
		t.Errorf("expected no forces without water data, got %d", len(body.forces))
	}
	for i, h := range o.WaterHeights() {
		if h != surfacedHeight {
			t.Errorf("voxel %d: expected surfaced height, got %f", i, h)
		}
	}
}

func TestObjectCenterOfMass(t *testing.T) {
	body := &fakeBody{mass: 10}
	o, err := New(Options{Mode: PhysicalVoxel, VoxelResolution: 0.5, CenterOfMass: math.Vec3{X: 0.1}}, Deps{
		Transform: physics.NewTransform(math.Vec3{}),
		Colliders: []collider.Shape{collider.NewBox(math.Vec3{Y: 1}, math.Splat(1))},
		Body:      body,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	want := math.Vec3{X: 0.1, Y: 1}
	if body.centerOfMass.Distance(want) > 1e-5 {
		t.Errorf("expected center of mass %v, got %v", want, body.centerOfMass)
	}
	if d := o.Density(); math32.Abs(d-10) > 1e-4 {
		t.Errorf("expected density 10, got %f", d)
	}
}

func TestObjectCreatesMissingBody(t *testing.T) {
	logs := observeLogs(t)

	o, err := New(Options{Mode: Physical, Mass: 3, Volume: 1}, Deps{
		Transform: physics.NewTransform(math.Vec3{}),
		Heights:   newFakeHeights(0),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	if o.Body() == nil {
		t.Fatal("expected a rigid body to be created")
	}
	if m := o.Body().Mass(); m != 3 {
		t.Errorf("expected mass 3, got %f", m)
	}
	if n := logs.FilterMessage("object had no rigid body; one has been added").Len(); n != 1 {
		t.Errorf("expected 1 warning, got %d", n)
	}
}

func TestObjectAddsMissingCollider(t *testing.T) {
	logs := observeLogs(t)

	o, err := New(Options{Mode: PhysicalVoxel}, Deps{
		Transform: physics.NewTransform(math.Vec3{}),
		Body:      &fakeBody{mass: 1},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	if len(o.Voxels()) == 0 {
		t.Error("expected voxels from the default collider")
	}
	if n := logs.FilterMessage("object had no colliders; a unit box collider has been added").Len(); n != 1 {
		t.Errorf("expected 1 warning, got %d", n)
	}
}

func TestObjectNoVoxels(t *testing.T) {
	logs := observeLogs(t)
	body := &fakeBody{mass: 10, drag: 1}

	// Two small spheres far apart: the single grid cell center lies between them.
	o, err := New(Options{Mode: PhysicalVoxel, VoxelResolution: 20}, Deps{
		Transform: physics.NewTransform(math.Vec3{}),
		Colliders: []collider.Shape{
			&collider.Sphere{Center: math.Vec3{X: -5}, Radius: 0.1},
			&collider.Sphere{Center: math.Vec3{X: 5}, Radius: 0.1},
		},
		Body:    body,
		Heights: newFakeHeights(100),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	frame(o, 0.02)

	if len(o.Voxels()) != 0 {
		t.Fatalf("expected no voxels, got %d", len(o.Voxels()))
	}
	if len(body.forces) != 0 {
		t.Errorf("expected no forces, got %d", len(body.forces))
	}
	if o.Volume() != 0 || o.Density() != 0 {
		t.Errorf("expected zero volume and density, got %f/%f", o.Volume(), o.Density())
	}
	if logs.FilterMessage("voxelization produced no voxels; object will not float").Len() != 1 {
		t.Error("expected a warning about the empty voxel set")
	}
}

func TestObjectPhysicalSinglePoint(t *testing.T) {
	body := &fakeBody{mass: 10}
	o, err := New(Options{Mode: Physical, Volume: 2}, Deps{
		Transform: physics.NewTransform(math.Vec3{}),
		Body:      body,
		Heights:   newFakeHeights(0),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	frame(o, 0.02)

	if len(body.forces) != 1 {
		t.Fatalf("expected 1 force, got %d", len(body.forces))
	}
	want := math32.Sqrt(DefaultVoxelResolution) * 1000 * 9.81 * 2
	if got := body.forces[0].force.Y; math32.Abs(got-want) > 0.05 {
		t.Errorf("expected lift %f, got %f", want, got)
	}
	if math32.Abs(o.SubmergedAmount()-DefaultVoxelResolution) > 1e-5 {
		t.Errorf("expected submerged %f, got %f", DefaultVoxelResolution, o.SubmergedAmount())
	}
}

func TestObjectPhysicalVolumeFromColliders(t *testing.T) {
	o, err := New(Options{Mode: Physical}, Deps{
		Transform: physics.NewTransform(math.Vec3{}),
		Colliders: []collider.Shape{collider.NewBox(math.Vec3{}, math.Vec3{X: 2, Y: 1, Z: 1})},
		Body:      &fakeBody{mass: 4},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	if o.Volume() != 2 {
		t.Errorf("expected volume 2 from collider bounds, got %f", o.Volume())
	}
	if o.Density() != 2 {
		t.Errorf("expected density 2, got %f", o.Density())
	}
}

func TestObjectSuspendsAutoSync(t *testing.T) {
	syncer := &fakeSyncer{current: true}
	o, err := New(Options{Mode: PhysicalVoxel, VoxelResolution: 0.5}, Deps{
		Transform: physics.NewTransform(math.Vec3{}),
		Colliders: unitBox(),
		Body:      &fakeBody{mass: 10},
		Heights:   newFakeHeights(0),
		Syncer:    syncer,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	frame(o, 0.02)

	if len(syncer.auto) != 2 || syncer.auto[0] || !syncer.auto[1] {
		t.Errorf("expected auto sync off then on, got %v", syncer.auto)
	}
	if syncer.synced != 1 {
		t.Errorf("expected 1 explicit sync, got %d", syncer.synced)
	}
}

func TestObjectNonPhysicalSnapsToSurface(t *testing.T) {
	heights := newFakeHeights(1)
	tr := physics.NewTransform(math.Vec3{X: 2, Y: 5})
	o, err := New(Options{Mode: NonPhysical, WaterLevelOffset: 0.2}, Deps{
		Transform: tr,
		Heights:   heights,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	frame(o, 0.5)

	if math32.Abs(tr.Position.Y-1.2) > 1e-5 {
		t.Errorf("expected y 1.2, got %f", tr.Position.Y)
	}
	if tr.Position.X != 2 {
		t.Errorf("expected x unchanged, got %f", tr.Position.X)
	}
	if o.Body() != nil {
		t.Error("expected no rigid body in non-physical mode")
	}

	heights.normal = math.Vec3{X: 1, Y: 1}.Normalize()
	frame(o, 0.5)

	up := tr.Up()
	if up.X <= 0 {
		t.Errorf("expected up to lean toward the surface normal, got %v", up)
	}
	if up.Dot(heights.normal) >= 1-1e-4 {
		t.Errorf("expected partial alignment, got %v", up)
	}
}

func TestObjectNonPhysicalWithoutData(t *testing.T) {
	tr := physics.NewTransform(math.Vec3{Y: 5})
	o, err := New(Options{Mode: NonPhysical}, Deps{Transform: tr})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	frame(o, 0.02)

	if tr.Position.Y != 5 {
		t.Errorf("expected transform untouched, got y=%f", tr.Position.Y)
	}
}

func TestObjectNonPhysicalVoxelIsInert(t *testing.T) {
	logs := observeLogs(t)
	heights := newFakeHeights(3)
	tr := physics.NewTransform(math.Vec3{})
	o, err := New(Options{Mode: NonPhysicalVoxel, VoxelResolution: 0.5}, Deps{
		Transform: tr,
		Colliders: unitBox(),
		Heights:   heights,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Destroy()

	frame(o, 0.02)
	frame(o, 0.02)

	if tr.Position != (math.Vec3{}) {
		t.Errorf("expected transform untouched, got %v", tr.Position)
	}
	if len(o.Voxels()) != 8 {
		t.Errorf("expected voxels to be built, got %d", len(o.Voxels()))
	}
	if len(heights.points) != 0 {
		t.Error("expected no wave query registration")
	}
	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 1 {
		t.Errorf("expected exactly one warning, got %d", n)
	}
}

func TestObjectDisableReleases(t *testing.T) {
	stage := NewTransformStage()
	defer stage.Close()
	heights := newFakeHeights(0)
	body := &fakeBody{mass: 10}

	o, err := New(Options{Mode: PhysicalVoxel, VoxelResolution: 0.5}, Deps{
		Transform:  physics.NewTransform(math.Vec3{}),
		Colliders:  unitBox(),
		Body:       body,
		Heights:    heights,
		Transforms: stage,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	frame(o, 0.02)
	if stage.Pending() != 1 {
		t.Fatalf("expected 1 pending job, got %d", stage.Pending())
	}

	o.Disable()
	if stage.Pending() != 0 {
		t.Errorf("expected job released, got %d pending", stage.Pending())
	}
	if _, ok := heights.points[o.ID()]; ok {
		t.Error("expected wave registration removed")
	}

	body.forces = nil
	frame(o, 0.02)
	if len(body.forces) != 0 {
		t.Errorf("expected disabled object to apply no forces, got %d", len(body.forces))
	}

	o.Enable()
	if stage.Pending() != 1 {
		t.Errorf("expected job rescheduled on enable, got %d pending", stage.Pending())
	}
	o.Destroy()
}

func TestObjectReinit(t *testing.T) {
	body := &fakeBody{mass: 10}
	o, _ := newVoxelObject(t, 0, body)
	first := o.ID()

	o.colliders = append(o.colliders, collider.NewBox(math.Vec3{X: 1}, math.Splat(1)))
	if err := o.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if o.ID() != first {
		t.Error("expected identity to survive reinit")
	}
	if len(o.Voxels()) != 16 {
		t.Errorf("expected 16 voxels after adding a collider, got %d", len(o.Voxels()))
	}
	if !o.checkInvariant() {
		t.Error("runtime arrays do not match voxel count after reinit")
	}
	frame(o, 0.02)
	if len(body.forces) != 16 {
		t.Errorf("expected 16 forces, got %d", len(body.forces))
	}
}

func TestInstanceIDsAreUnique(t *testing.T) {
	seen := make(map[int]bool)
	for i := 0; i < 100; i++ {
		id := NewInstanceID()
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}
