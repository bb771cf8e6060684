package buoyancy

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/waterline/pkg/math"
)

func TestSubmersion(t *testing.T) {
	tests := []struct {
		name      string
		y, h, r   float32
		wantK     float32
		wantUnder bool
	}{
		{"probe above surface", 1, 0, 0.5, 0, false},
		{"probe exactly at surface", 0.5, 0, 0.5, 0, false},
		{"center on surface", 0, 0, 0.5, 0.5, true},
		{"slightly under", 0.4, 0, 0.5, 0.1, true},
		{"deep", -5, 0, 0.5, 1, true},
		{"raised water", 2, 3, 0.25, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, under := Submersion(tt.y, tt.h, tt.r)
			if under != tt.wantUnder {
				t.Errorf("expected under=%v, got %v", tt.wantUnder, under)
			}
			if math32.Abs(k-tt.wantK) > 1e-6 {
				t.Errorf("expected k=%f, got %f", tt.wantK, k)
			}
			if k < 0 || k > 1 {
				t.Errorf("k out of range: %f", k)
			}
		})
	}
}

func TestVoxelForceMonotonic(t *testing.T) {
	archimedes := math.Vec3{Y: 100}
	prev := float32(-1)
	for i := 0; i <= 10; i++ {
		k := float32(i) / 10
		f := VoxelForce(k, 10, math.Vec3{}, archimedes)
		if f.Y < prev {
			t.Errorf("force decreased at k=%f: %f < %f", k, f.Y, prev)
		}
		prev = f.Y
	}
	if got := VoxelForce(1, 10, math.Vec3{}, archimedes); got != archimedes {
		t.Errorf("expected full force %v at k=1, got %v", archimedes, got)
	}
}

func TestVoxelForceDamping(t *testing.T) {
	f := VoxelForce(0, 100, math.Vec3{X: 4, Y: -2}, math.Vec3{Y: 50})
	want := math.Vec3{X: -2, Y: 1}
	if math32.Abs(f.X-want.X) > 1e-5 || math32.Abs(f.Y-want.Y) > 1e-5 || f.Z != 0 {
		t.Errorf("expected damping %v, got %v", want, f)
	}
}

func TestArchimedesForce(t *testing.T) {
	f := ArchimedesForce(1000, 1, math.Vec3{Y: -9.81}, 8)
	if math32.Abs(f.Y-1226.25) > 1e-2 || f.X != 0 || f.Z != 0 {
		t.Errorf("expected (0, 1226.25, 0), got %v", f)
	}
	if f := ArchimedesForce(1000, 1, math.Vec3{Y: -9.81}, 0); f != (math.Vec3{}) {
		t.Errorf("expected zero force without samples, got %v", f)
	}
}

func TestDragAdapterConvergence(t *testing.T) {
	d := newDragAdapter(1, 0.05)
	body := &fakeBody{}

	for i := 1; i <= 20; i++ {
		d.update(body, 1)
		want := 1 - math32.Pow(0.75, float32(i))
		if math32.Abs(d.percent-want) > 1e-5 {
			t.Fatalf("step %d: expected percent %f, got %f", i, want, d.percent)
		}
	}
	if math32.Abs(body.drag-(1+10*d.percent)) > 1e-4 {
		t.Errorf("expected drag %f, got %f", 1+10*d.percent, body.drag)
	}
	if math32.Abs(body.angularDrag-(0.05+0.5*d.percent)) > 1e-5 {
		t.Errorf("expected angular drag %f, got %f", 0.05+0.5*d.percent, body.angularDrag)
	}

	for i := 0; i < 50; i++ {
		d.update(body, 0)
	}
	if d.percent > 1e-5 {
		t.Errorf("expected percent to decay toward 0, got %f", d.percent)
	}
	if math32.Abs(body.drag-1) > 1e-4 {
		t.Errorf("expected drag back at baseline 1, got %f", body.drag)
	}
}
