package config

import (
	flag "github.com/spf13/pflag"
)

// Flags holds CLI overrides. Zero values leave the loaded config untouched.
type Flags struct {
	ConfigPath   string
	LogLevel     string
	LogFile      string
	MetricsAddr  string
	Extraction   string
	Parallelism  int
	Force        bool
	SkipDownload bool
}

// Register binds the flags to a flag set.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "Path to world catalog (worlds.yaml or worlds.json)")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.LogFile, "log-file", "", "Write rotated logs to this file")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")
	fs.StringVarP(&f.Extraction, "out", "o", "", "Extraction root directory")
	fs.IntVarP(&f.Parallelism, "jobs", "j", 0, "Concurrent image tool runs")
	fs.BoolVarP(&f.Force, "force", "f", false, "Re-export worlds whose extraction already exists")
	fs.BoolVar(&f.SkipDownload, "skip-download", false, "Do not run steamcmd")
}

// Apply applies CLI flag overrides to the config (highest priority).
func (f *Flags) Apply(cfg *Config) {
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.MetricsAddr != "" {
		cfg.Metrics.Addr = f.MetricsAddr
	}
	if f.Extraction != "" {
		cfg.Paths.Extraction = f.Extraction
	}
	if f.Parallelism > 0 {
		cfg.Export.Parallelism = f.Parallelism
	}
	if f.Force {
		cfg.Export.Force = true
	}
	if f.SkipDownload {
		cfg.Export.SkipDownload = true
	}
}
