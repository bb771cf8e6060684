package buoyancy

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/waterline/pkg/math"
)

// HeightSource is the shared per-frame wave query. Implementations must keep
// each id's registration and results isolated.
type HeightSource interface {
	UpdateSamplePoints(id int, points []math.Vec3)
	GetData(id int, heights []float32, normals []math.Vec3) bool
	Remove(id int)
}

// surfacedHeight is reported when no water data is available, so every
// sample point reads as above the surface.
var surfacedHeight float32 = -math32.MaxFloat32

// heightQuery adapts a HeightSource to one object.
type heightQuery struct {
	src HeightSource
	id  int
	log *zap.Logger

	ok     bool
	missed bool
}

func (q *heightQuery) register(points []math.Vec3) {
	if q.src == nil {
		return
	}
	q.src.UpdateSamplePoints(q.id, points)
}

// fetch fills heights and normals for this frame. Without data it reports
// every point as surfaced with an up normal.
func (q *heightQuery) fetch(heights []float32, normals []math.Vec3) {
	q.ok = q.src != nil && q.src.GetData(q.id, heights, normals)
	if q.ok {
		q.missed = false
		return
	}
	if !q.missed {
		q.missed = true
		q.log.Debug("no water data for object; treating it as surfaced")
	}
	for i := range heights {
		heights[i] = surfacedHeight
	}
	for i := range normals {
		normals[i] = math.Up
	}
}

func (q *heightQuery) release() {
	if q.src != nil {
		q.src.Remove(q.id)
	}
	q.ok = false
}
