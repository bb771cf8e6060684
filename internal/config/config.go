// Package config handles simulation and scene configuration loading.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/waterline/internal/buoyancy"
	"github.com/Faultbox/waterline/internal/collider"
	"github.com/Faultbox/waterline/internal/water"
	"github.com/Faultbox/waterline/pkg/math"
)

// Config holds the simulation settings and the scene.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Water      water.Spec       `yaml:"water"`
	Bodies     []BodyConfig     `yaml:"bodies"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SimulationConfig holds stepping settings.
type SimulationConfig struct {
	FixedStep    time.Duration `yaml:"fixed_step"` // physics step
	FrameStep    time.Duration `yaml:"frame_step"` // render frame
	Duration     time.Duration `yaml:"duration"`
	Gravity      math.Vec3     `yaml:"gravity"`
	WaterDensity float32       `yaml:"water_density"`
	ReportEvery  time.Duration `yaml:"report_every"` // body state log interval, 0 disables
}

// BodyConfig describes one floating body.
type BodyConfig struct {
	Name             string          `yaml:"name"`
	Mode             buoyancy.Mode   `yaml:"mode"`
	Mass             float32         `yaml:"mass"`
	Drag             float32         `yaml:"drag"`
	AngularDrag      float32         `yaml:"angular_drag"`
	VoxelResolution  float32         `yaml:"voxel_resolution,omitempty"`
	CenterOfMass     math.Vec3       `yaml:"center_of_mass,omitempty"`
	WaterLevelOffset float32         `yaml:"water_level_offset,omitempty"`
	Volume           float32         `yaml:"volume,omitempty"`
	Position         math.Vec3       `yaml:"position"`
	Rotation         math.Vec3       `yaml:"rotation,omitempty"` // Euler degrees
	Colliders        []collider.Spec `yaml:"colliders"`
}

// FixedStepSeconds returns the physics step in seconds.
func (s SimulationConfig) FixedStepSeconds() float32 {
	return float32(s.FixedStep.Seconds())
}

// FrameStepSeconds returns the frame step in seconds.
func (s SimulationConfig) FrameStepSeconds() float32 {
	return float32(s.FrameStep.Seconds())
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid config")

// Default returns a Config with sensible default values: one crate in still water.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			FixedStep:    20 * time.Millisecond,
			FrameStep:    time.Second / 60,
			Duration:     10 * time.Second,
			Gravity:      math.Vec3{Y: -9.81},
			WaterDensity: buoyancy.DefaultWaterDensity,
			ReportEvery:  time.Second,
		},
		Water: water.Spec{
			Type: water.KindFlat,
		},
		Bodies: []BodyConfig{
			{
				Name:            "crate",
				Mode:            buoyancy.PhysicalVoxel,
				Mass:            400,
				Drag:            0.1,
				AngularDrag:     0.05,
				VoxelResolution: buoyancy.DefaultVoxelResolution,
				Position:        math.Vec3{Y: 2},
				Colliders: []collider.Spec{
					{Type: collider.KindBox, Size: math.Splat(1)},
				},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the config for values the simulation cannot run with.
func (c *Config) Validate() error {
	sim := c.Simulation
	if sim.FixedStep <= 0 {
		return fmt.Errorf("%w: fixed_step must be positive, got %v", ErrInvalid, sim.FixedStep)
	}
	if sim.FrameStep <= 0 {
		return fmt.Errorf("%w: frame_step must be positive, got %v", ErrInvalid, sim.FrameStep)
	}
	if sim.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %v", ErrInvalid, sim.Duration)
	}
	if sim.WaterDensity <= 0 {
		return fmt.Errorf("%w: water_density must be positive, got %v", ErrInvalid, sim.WaterDensity)
	}
	if _, err := c.Water.Build(); err != nil {
		return fmt.Errorf("%w: water: %v", ErrInvalid, err)
	}

	names := make(map[string]bool, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.Name == "" {
			return fmt.Errorf("%w: body %d has no name", ErrInvalid, i)
		}
		if names[b.Name] {
			return fmt.Errorf("%w: duplicate body name %q", ErrInvalid, b.Name)
		}
		names[b.Name] = true
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: body %q: %v", ErrInvalid, b.Name, err)
		}
	}
	return nil
}

// Validate checks a single body.
func (b BodyConfig) Validate() error {
	mode := b.Mode
	if !mode.Valid() {
		return fmt.Errorf("unknown buoyancy mode %v", mode)
	}
	if b.Mass < 0 {
		return fmt.Errorf("mass must not be negative, got %v", b.Mass)
	}
	if b.VoxelResolution < 0 {
		return fmt.Errorf("voxel_resolution must not be negative, got %v", b.VoxelResolution)
	}
	if !mode.Physical() && (b.Drag != 0 || b.AngularDrag != 0) {
		return fmt.Errorf("drag is only used by physical modes, got mode %s", mode)
	}
	_, err := collider.BuildAll(b.Colliders)
	return err
}
