package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers    = flag.Int("workers", -1, "Extraction workers (0 = one per CPU)")
	flagChunk      = flag.Int("chunk", 0, "Face chunk size")
	flagSubdiv     = flag.Int("subdiv", 0, "Enable subdivision at the given level")
	flagNoHide     = flag.Bool("no-hide", false, "Ignore hidden vertex flags")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers >= 0 {
		cfg.Extraction.Workers = *flagWorkers
	}
	if *flagChunk > 0 {
		cfg.Extraction.FaceChunk = *flagChunk
	}
	if *flagSubdiv > 0 {
		cfg.Subdivision.Enabled = true
		cfg.Subdivision.Level = *flagSubdiv
	}
	if *flagNoHide {
		cfg.Extraction.UseHide = false
	}
	if *flagWindowed {
		cfg.Viewer.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
}
