// Package main implements dzmaps, the DayZ map exporter.
//
// Usage:
//
//	dzmaps                        Export every world in the catalog
//	dzmaps <world>...             Export the named worlds
//	dzmaps basefiles              Write the overview index.html
//	dzmaps cfg2json <file>        Print a parsed config file as JSON
//	dzmaps fmt <file>             Print a config file in canonical form
//	dzmaps config [--save <file>] Show or save the effective configuration
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"

	"github.com/woozymasta/rvcfg/internal/config"
	"github.com/woozymasta/rvcfg/internal/logger"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
)

// GlobalFlags holds the global CLI flags that apply to all commands.
type GlobalFlags struct {
	NoColor bool // Disable color output
	Verbose int  // Verbosity level: 0=normal, 1=-v (info), 2=-vv (debug)
	Quiet   bool // Suppress progress bars and info messages
}

func main() {
	var cf config.Flags
	cf.Register(flag.CommandLine)

	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress and info messages")
	)

	// Stop at the command name so subcommands parse their own flags.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `dzmaps - DayZ world exporter

Downloads DayZ (or a workshop terrain) with steamcmd, extracts the world
PBOs, reads the cfgWorlds class and renders the satellite layers into a
leaflet tile pyramid with data.json metadata.

Usage:
  dzmaps [options] [command | world...]

Commands:
  (none)            Export every world in the catalog
  <world>...        Export the named worlds
  basefiles         Write the overview index.html into the extraction root
  cfg2json <file>   Parse a config file and print it as JSON (or --yaml)
  fmt <file>        Parse a config file and print it in canonical form
  config            Show the effective configuration (secrets redacted);
                    --save <file> writes it to a file instead

Options:
%s
Environment Variables:
  GAME_DATA_PATH    steamcmd install dir of the game
  WS_DATA_PATH      steamcmd install dir for workshop items
  EXTRACTION_PATH   Output root
  STEAM_USER, STEAM_PASSWORD, STEAM_GUARD
  FORCE_EXPORT      Re-export existing worlds when set
  EXPORT_HOST       Same as FORCE_EXPORT, set on the export host
  NO_COLOR          Disable color output
`, flag.CommandLine.FlagUsages())
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("dzmaps version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		os.Exit(0)
	}

	// Check NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(1)
	}

	globals := GlobalFlags{
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
	}
	initColors(globals.NoColor)

	args := flag.Args()
	command := ""
	if len(args) > 0 {
		command = args[0]
	}

	// Commands that do not need the catalog
	switch command {
	case "cfg2json", "fmt":
		os.Exit(runFileCommand(cf, globals, command, args[1:]))
	case "help":
		flag.Usage()
		os.Exit(0)
	}

	os.Exit(run(cf, globals, command, args))
}

// runFileCommand runs cfg2json or fmt with logging set up from the global
// flags alone. It returns the exit code.
func runFileCommand(cf config.Flags, globals GlobalFlags, command string, args []string) int {
	cfg := config.Default()
	cf.Apply(cfg)
	if err := setupLogging(cfg, globals); err != nil {
		errorf("Error: %v", err)
		return 1
	}
	defer logger.Sync()

	if command == "fmt" {
		return runFmt(args, os.Stdout, os.Stderr)
	}
	return runCfg2JSON(args, os.Stdout, os.Stderr)
}

// run loads the catalog and runs a catalog command. It returns the exit code.
func run(cf config.Flags, globals GlobalFlags, command string, args []string) int {
	cfg, err := config.Load(cf.ConfigPath)
	if err != nil {
		errorf("Error: %v", err)
		return 1
	}
	cf.Apply(cfg)
	if err := setupLogging(cfg, globals); err != nil {
		errorf("Error: %v", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "config":
		return runConfig(cfg, args[1:], os.Stdout, os.Stderr)
	case "basefiles":
		return runBasefiles(cfg)
	case "":
		return runExport(ctx, cfg, nil, progressWriter(globals))
	default:
		return runExport(ctx, cfg, args, progressWriter(globals))
	}
}

// setupLogging applies -v/-q to the configured level and initializes the logger.
func setupLogging(cfg *config.Config, g GlobalFlags) error {
	applyVerbosity(cfg, g)
	return logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
}

// applyVerbosity maps -v/-q onto the log level.
func applyVerbosity(cfg *config.Config, g GlobalFlags) {
	switch {
	case g.Quiet:
		cfg.Logging.Level = "error"
	case g.Verbose >= 2:
		cfg.Logging.Level = "debug"
	case g.Verbose == 1 && cfg.Logging.Level != "debug":
		cfg.Logging.Level = "info"
	}
}

// progressWriter returns where progress bars are drawn, or nil when they are
// suppressed or stderr is not a terminal.
func progressWriter(g GlobalFlags) io.Writer {
	if g.Quiet {
		return nil
	}
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return os.Stderr
}
