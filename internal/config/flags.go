package config

import "flag"

// Flags holds command-line overrides. Zero values leave the loaded
// config untouched.
type Flags struct {
	Config      string
	Debug       bool
	LogFile     string
	Mode        string
	Triangulate bool
	Preview     bool
	PreviewSize int
	Workers     int
	OutputDir   string
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write JSON logs to this file")
	fs.StringVar(&f.Mode, "mode", "", "Packing mode: indexed or dedup")
	fs.BoolVar(&f.Triangulate, "triangulate", false, "Fan-triangulate polygons instead of truncating them")
	fs.BoolVar(&f.Preview, "preview", false, "Write a .webp preview next to each output")
	fs.IntVar(&f.PreviewSize, "size", 0, "Preview edge length in pixels")
	fs.IntVar(&f.Workers, "workers", 0, "Batch worker count")
	fs.StringVar(&f.OutputDir, "out-dir", "", "Batch output directory")
}

// Apply applies the flag overrides to cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Mode != "" {
		cfg.Pack.Mode = f.Mode
	}
	if f.Triangulate {
		cfg.Pack.Triangulate = true
	}
	if f.Preview {
		cfg.Preview.Enabled = true
	}
	if f.PreviewSize > 0 {
		cfg.Preview.Size = f.PreviewSize
	}
	if f.Workers > 0 {
		cfg.Batch.Workers = f.Workers
	}
	if f.OutputDir != "" {
		cfg.Batch.OutputDir = f.OutputDir
	}
}
