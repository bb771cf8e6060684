package buoyancy

import (
	"github.com/Faultbox/waterline/pkg/math"
)

// fakeHeights reports a flat surface at a fixed height for every registered id.
type fakeHeights struct {
	level   float32
	normal  math.Vec3
	points  map[int][]math.Vec3
	removed []int
}

func newFakeHeights(level float32) *fakeHeights {
	return &fakeHeights{level: level, normal: math.Up, points: make(map[int][]math.Vec3)}
}

func (f *fakeHeights) UpdateSamplePoints(id int, points []math.Vec3) {
	f.points[id] = append([]math.Vec3(nil), points...)
}

func (f *fakeHeights) GetData(id int, heights []float32, normals []math.Vec3) bool {
	if _, ok := f.points[id]; !ok {
		return false
	}
	for i := range heights {
		heights[i] = f.level
	}
	for i := range normals {
		normals[i] = f.normal
	}
	return true
}

func (f *fakeHeights) Remove(id int) {
	delete(f.points, id)
	f.removed = append(f.removed, id)
}

type appliedForce struct {
	force, position math.Vec3
}

// fakeBody records every force applied to it.
type fakeBody struct {
	mass         float32
	drag         float32
	angularDrag  float32
	centerOfMass math.Vec3
	velocity     math.Vec3
	forces       []appliedForce
}

func (b *fakeBody) Mass() float32              { return b.mass }
func (b *fakeBody) Drag() float32              { return b.drag }
func (b *fakeBody) SetDrag(d float32)          { b.drag = d }
func (b *fakeBody) AngularDrag() float32       { return b.angularDrag }
func (b *fakeBody) SetAngularDrag(d float32)   { b.angularDrag = d }
func (b *fakeBody) SetCenterOfMass(c math.Vec3) { b.centerOfMass = c }
func (b *fakeBody) AddForceAtPosition(f, p math.Vec3) {
	b.forces = append(b.forces, appliedForce{force: f, position: p})
}
func (b *fakeBody) PointVelocity(math.Vec3) math.Vec3 { return b.velocity }

func (b *fakeBody) totalForce() math.Vec3 {
	var sum math.Vec3
	for _, f := range b.forces {
		sum = sum.Add(f.force)
	}
	return sum
}

type fakeSyncer struct {
	auto    []bool
	synced  int
	current bool
}

func (s *fakeSyncer) SetAutoSyncTransforms(on bool) {
	s.current = on
	s.auto = append(s.auto, on)
}

func (s *fakeSyncer) SyncTransforms() { s.synced++ }

// frame runs one full per-frame cycle with a single fixed step.
func frame(o *Object, dt float32) {
	o.Fetch()
	o.Register()
	o.Sample(dt)
	o.ApplyForces()
	o.Schedule()
}
