package physics

import "github.com/Faultbox/waterline/pkg/math"

// World holds rigid bodies and steps them with a fixed gravity.
type World struct {
	Gravity math.Vec3
	Bodies  []*RigidBody

	autoSync bool
	syncs    int
}

// NewWorld returns a world with default gravity (0, -9.81, 0).
func NewWorld() *World {
	return &World{
		Gravity:  math.Vec3{Y: -9.81},
		autoSync: true,
	}
}

// AddBody registers a body. Order is preserved.
func (w *World) AddBody(b *RigidBody) {
	b.world = w
	w.Bodies = append(w.Bodies, b)
}

// RemoveBody drops a body from the world.
func (w *World) RemoveBody(b *RigidBody) {
	for i, other := range w.Bodies {
		if other == b {
			w.Bodies = append(w.Bodies[:i], w.Bodies[i+1:]...)
			b.world = nil
			return
		}
	}
}

// SetAutoSyncTransforms controls whether bodies refresh their cached pose on
// every force application. Turn it off around bulk force loops and call
// SyncTransforms once afterwards.
func (w *World) SetAutoSyncTransforms(on bool) {
	w.autoSync = on
}

// AutoSyncTransforms reports the current sync mode.
func (w *World) AutoSyncTransforms() bool {
	return w.autoSync
}

// SyncTransforms refreshes every body's cached pose from its transform.
func (w *World) SyncTransforms() {
	for _, b := range w.Bodies {
		b.syncPose()
	}
	w.syncs++
}

// SyncCount returns how many explicit syncs have run.
func (w *World) SyncCount() int {
	return w.syncs
}

// Step integrates every body by dt seconds.
func (w *World) Step(dt float32) {
	for _, b := range w.Bodies {
		b.integrate(w.Gravity, dt)
	}
}
