// Package main is the entry point for the waterline buoyancy simulator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/waterline/internal/config"
	"github.com/Faultbox/waterline/internal/logger"
	"github.com/Faultbox/waterline/internal/sim"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", path)
		return
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Waterline ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	// Create simulation
	s, err := sim.New(cfg)
	if err != nil {
		logger.Error("failed to create simulation", zap.Error(err))
		os.Exit(1)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run the frame loop; Run reports the final state itself
	if err := s.Run(ctx, reportStates); err != nil {
		if code := exitCode(err); code != 0 {
			logger.Error("simulation error", zap.Error(err))
			s.Close()
			logger.Sync()
			os.Exit(code)
		}
		logger.Info("simulation interrupted")
		reportStates(s.States())
		return
	}

	logger.Info("simulation closed normally")
}

// exitCode maps a Run error to the process exit status. An interrupt is a
// clean stop.
func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	return 1
}

func reportStates(states []sim.State) {
	for _, st := range states {
		logger.Info("body",
			zap.String("name", st.Name),
			zap.Stringer("mode", st.Mode),
			logger.Vec3("position", st.Position),
			logger.Vec3("velocity", st.Velocity),
			zap.Float32("submerged", st.Submerged))
	}
}
