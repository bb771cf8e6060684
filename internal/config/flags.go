package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagDuration    = flag.Duration("duration", 0, "Simulated time to run")
	flagFrameStep   = flag.Duration("dt", 0, "Frame step")
	flagFixedStep   = flag.Duration("fixed-dt", 0, "Physics step")
	flagLogFile     = flag.String("log-file", "", "Write logs to this file as well")
	flagWriteConfig = flag.String("write-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the --write-config destination, if any.
func WriteConfigPath() string {
	return *flagWriteConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagDuration > 0 {
		cfg.Simulation.Duration = *flagDuration
	}
	if *flagFrameStep > 0 {
		cfg.Simulation.FrameStep = *flagFrameStep
	}
	if *flagFixedStep > 0 {
		cfg.Simulation.FixedStep = *flagFixedStep
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
