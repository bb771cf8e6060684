package buoyancy

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/waterline/pkg/math"
)

// defaultBatchSize is how many points one worker transforms per task.
const defaultBatchSize = 32

// TransformStage converts local sample points to world space off the frame's
// critical path. Jobs are keyed by object id; Schedule starts one, Complete
// waits for it, Release abandons it.
type TransformStage struct {
	batchSize int

	mu   sync.Mutex
	jobs map[int]*transformJob
}

type transformJob struct {
	cancel context.CancelFunc
	done   chan struct{}
	out    []math.Vec3
	err    error
}

// NewTransformStage returns an empty stage.
func NewTransformStage() *TransformStage {
	return &TransformStage{
		batchSize: defaultBatchSize,
		jobs:      make(map[int]*transformJob),
	}
}

// Schedule starts transforming local by m for id. An unfinished job for the
// same id is cancelled and replaced. local must not be mutated until the job
// completes.
func (s *TransformStage) Schedule(id int, local []math.Vec3, m math.Mat4) {
	ctx, cancel := context.WithCancel(context.Background())
	job := &transformJob{
		cancel: cancel,
		done:   make(chan struct{}),
		out:    make([]math.Vec3, len(local)),
	}

	s.mu.Lock()
	if prev, ok := s.jobs[id]; ok {
		prev.cancel()
	}
	s.jobs[id] = job
	s.mu.Unlock()

	go s.run(ctx, job, local, m)
}

func (s *TransformStage) run(ctx context.Context, job *transformJob, local []math.Vec3, m math.Mat4) {
	defer close(job.done)
	defer job.cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(local); start += s.batchSize {
		start, end := start, min(start+s.batchSize, len(local))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				job.out[i] = m.TransformPoint(local[i])
			}
			return nil
		})
	}
	job.err = g.Wait()
}

// Complete blocks until id's job finishes and returns its world-space points.
// The returned slice belongs to the caller. Calling Complete again without a
// new Schedule returns the same result. It returns nil when id has no job.
func (s *TransformStage) Complete(id int) []math.Vec3 {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	<-job.done
	if job.err != nil {
		return nil
	}
	return job.out
}

// Release cancels id's job without waiting for it and forgets the id.
// A released job never delivers its result.
func (s *TransformStage) Release(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[id]; ok {
		job.cancel()
		delete(s.jobs, id)
	}
}

// Pending returns the number of ids holding a job.
func (s *TransformStage) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Close releases every job.
func (s *TransformStage) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, job := range s.jobs {
		job.cancel()
		delete(s.jobs, id)
	}
}
