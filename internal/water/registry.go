package water

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/waterline/internal/logger"
	"github.com/Faultbox/waterline/pkg/math"
)

// Registry batches height queries from many bodies. Each body registers its
// sample points under its own id, one Resolve evaluates every registration
// against the field, and each body then reads back only its own results.
type Registry struct {
	field Field

	mu      sync.Mutex
	entries map[int]*entry
	time    float32
}

type entry struct {
	points   []math.Vec3
	heights  []float32
	normals  []math.Vec3
	resolved bool
}

// NewRegistry returns an empty registry over field.
func NewRegistry(field Field) *Registry {
	return &Registry{
		field:   field,
		entries: make(map[int]*entry),
	}
}

// UpdateSamplePoints registers (or replaces) the points for id. Points are copied.
func (r *Registry) UpdateSamplePoints(id int, points []math.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
		logger.Named("water").Debug("sample points registered", zap.Int("id", id), zap.Int("count", len(points)))
	}
	if cap(e.points) < len(points) {
		e.points = make([]math.Vec3, len(points))
		e.heights = make([]float32, len(points))
		e.normals = make([]math.Vec3, len(points))
	}
	e.points = e.points[:len(points)]
	e.heights = e.heights[:len(points)]
	e.normals = e.normals[:len(points)]
	copy(e.points, points)
	e.resolved = false
}

// Resolve evaluates every registration at time t. Entries are processed in
// parallel; each goroutine touches only its own entry.
func (r *Registry) Resolve(ctx context.Context, t float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.time = t
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, e := range r.entries {
		e := e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i, p := range e.points {
				e.heights[i], e.normals[i] = r.field.Sample(p, t)
			}
			e.resolved = true
			return nil
		})
	}
	return g.Wait()
}

// GetData copies the last resolved results for id into heights and normals.
// It returns false, leaving the slices untouched, when id is unknown or has
// not been resolved since its points were last updated.
func (r *Registry) GetData(id int, heights []float32, normals []math.Vec3) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || !e.resolved {
		return false
	}
	copy(heights, e.heights)
	copy(normals, e.normals)
	return true
}

// Remove drops id's registration.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of registered ids.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Time returns the time of the last Resolve.
func (r *Registry) Time() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.time
}
