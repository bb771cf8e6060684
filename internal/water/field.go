// Package water provides wave height fields and the shared per-frame height query.
package water

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/waterline/pkg/math"
)

// Field answers height and surface normal queries at world positions.
// Only the XZ components of p are used.
type Field interface {
	Sample(p math.Vec3, t float32) (height float32, normal math.Vec3)
}

// Flat is a still water plane.
type Flat struct {
	Level float32
}

// Sample returns the plane level and an up normal.
func (f Flat) Sample(_ math.Vec3, _ float32) (float32, math.Vec3) {
	return f.Level, math.Up
}

// Wave is one Gerstner wave component.
type Wave struct {
	Amplitude  float32   `yaml:"amplitude"`
	Direction  float32   `yaml:"direction"` // degrees
	Wavelength float32   `yaml:"wavelength"`
	Omni       bool      `yaml:"omni,omitempty"`
	Origin     math.Vec3 `yaml:"origin,omitempty"` // omni-directional source, XZ used
}

// Gerstner sums a set of Gerstner waves around a base level.
type Gerstner struct {
	Level float32
	Waves []Wave
}

// gerstnerPeak is the crest sharpness shared by all waves.
const gerstnerPeak = 0.8

// Sample evaluates every wave at p and returns the summed height and normal.
func (g *Gerstner) Sample(p math.Vec3, t float32) (float32, math.Vec3) {
	if len(g.Waves) == 0 {
		return g.Level, math.Up
	}
	countMulti := 1 / float32(len(g.Waves))
	pos := p.XZ()

	var height float32
	var normal math.Vec3
	for _, w := range g.Waves {
		if w.Amplitude == 0 || w.Wavelength <= 0 {
			normal = normal.Add(math.Vec3{Y: countMulti})
			continue
		}
		k := 2 * math32.Pi / w.Wavelength
		speed := math32.Sqrt(9.8 * k)
		qi := gerstnerPeak / (w.Amplitude * k * float32(len(g.Waves)))

		var wind, origin math.Vec2
		if w.Omni {
			origin = w.Origin.XZ()
			wind = pos.Sub(origin).Normalize()
		} else {
			rad := w.Direction * math32.Pi / 180
			wind = math.Vec2{X: math32.Sin(rad), Y: math32.Cos(rad)}
		}

		phase := wind.Dot(pos.Sub(origin))*k - t*speed
		c, s := math32.Cos(phase), math32.Sin(phase)

		height += s * w.Amplitude * countMulti
		normal = normal.Add(math.Vec3{
			X: -wind.X * k * w.Amplitude * c,
			Y: 1 - qi*k*w.Amplitude*s,
			Z: -wind.Y * k * w.Amplitude * c,
		}.Scale(countMulti))
	}
	return g.Level + height, normal.Normalize()
}

// Heightmap is a static grid of surface heights with bilinear lookup.
// Heights are indexed [x][z]; cell (0,0) sits at Origin.
type Heightmap struct {
	Origin   math.Vec3
	CellSize float32
	Heights  [][]float32
}

// Sample interpolates the four surrounding grid heights.
func (h *Heightmap) Sample(p math.Vec3, _ float32) (float32, math.Vec3) {
	height := h.heightAt(p.X, p.Z)

	// Central differences over one cell for the normal.
	d := h.CellSize
	dx := h.heightAt(p.X+d, p.Z) - h.heightAt(p.X-d, p.Z)
	dz := h.heightAt(p.X, p.Z+d) - h.heightAt(p.X, p.Z-d)
	n := math.Vec3{X: -dx, Y: 2 * d, Z: -dz}.Normalize()
	return height, n
}

func (h *Heightmap) heightAt(worldX, worldZ float32) float32 {
	sizeX := len(h.Heights)
	if sizeX == 0 || h.CellSize <= 0 {
		return h.Origin.Y
	}
	sizeZ := len(h.Heights[0])
	if sizeZ == 0 {
		return h.Origin.Y
	}

	fx := (worldX - h.Origin.X) / h.CellSize
	fz := (worldZ - h.Origin.Z) / h.CellSize
	x0 := clampIndex(int(math32.Floor(fx)), sizeX)
	z0 := clampIndex(int(math32.Floor(fz)), sizeZ)
	x1 := clampIndex(x0+1, sizeX)
	z1 := clampIndex(z0+1, sizeZ)

	tx := math.Clamp(fx-float32(x0), 0, 1)
	tz := math.Clamp(fz-float32(z0), 0, 1)

	south := math.Lerp(h.Heights[x0][z0], h.Heights[x1][z0], tx)
	north := math.Lerp(h.Heights[x0][z1], h.Heights[x1][z1], tx)
	return h.Origin.Y + math.Lerp(south, north, tz)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Kind names a field type in scene files.
type Kind string

const (
	KindFlat      Kind = "flat"
	KindGerstner  Kind = "gerstner"
	KindHeightmap Kind = "heightmap"
)

// Spec describes a water field in a scene file.
type Spec struct {
	Type     Kind        `yaml:"type"`
	Level    float32     `yaml:"level"`
	Waves    []Wave      `yaml:"waves,omitempty"`
	CellSize float32     `yaml:"cell_size,omitempty"`
	Origin   math.Vec3   `yaml:"origin,omitempty"`
	Heights  [][]float32 `yaml:"heights,omitempty"`
}

// Build constructs the field described by s.
func (s Spec) Build() (Field, error) {
	switch s.Type {
	case KindFlat, "":
		return Flat{Level: s.Level}, nil
	case KindGerstner:
		for i, w := range s.Waves {
			if w.Wavelength <= 0 {
				return nil, fmt.Errorf("wave %d: wavelength must be positive", i)
			}
		}
		return &Gerstner{Level: s.Level, Waves: s.Waves}, nil
	case KindHeightmap:
		if s.CellSize <= 0 {
			return nil, fmt.Errorf("heightmap cell_size must be positive")
		}
		if len(s.Heights) == 0 {
			return nil, fmt.Errorf("heightmap has no rows")
		}
		for i, row := range s.Heights {
			if len(row) != len(s.Heights[0]) {
				return nil, fmt.Errorf("heightmap row %d has %d cells, want %d", i, len(row), len(s.Heights[0]))
			}
		}
		origin := s.Origin
		origin.Y += s.Level
		return &Heightmap{Origin: origin, CellSize: s.CellSize, Heights: s.Heights}, nil
	default:
		return nil, fmt.Errorf("unknown water type %q", s.Type)
	}
}
