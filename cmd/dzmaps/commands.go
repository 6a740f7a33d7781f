package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/rvcfg"
	"github.com/woozymasta/rvcfg/internal/config"
	"github.com/woozymasta/rvcfg/internal/logger"
	"github.com/woozymasta/rvcfg/internal/pipeline"
)

// outputTail is how much tool output is shown when a tool fails.
const outputTail = 2000

// runExport exports the given worlds, or the whole catalog when worlds is empty.
func runExport(ctx context.Context, cfg *config.Config, worlds []string, progress io.Writer) int {
	var metrics *pipeline.Metrics
	if addr := cfg.Metrics.Addr; addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = pipeline.NewMetrics(reg)

		go func() {
			logger.Info("metrics endpoint", zap.String("addr", addr), zap.String("path", "/metrics"))
			if err := pipeline.ServeMetrics(ctx, addr, reg); err != nil {
				logger.Warn("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	e := pipeline.New(cfg, &pipeline.ExecRunner{Log: logger.Named("tool")}, &pipeline.Options{
		Logger:   logger.Named("pipeline"),
		Metrics:  metrics,
		Progress: progress,
	})
	if err := e.EnsureDirs(); err != nil {
		errorf("Error: %v", err)
		return 1
	}

	if len(worlds) == 0 {
		if len(cfg.WorldNames()) == 0 {
			warnf("No worlds in the catalog")
			return 0
		}

		header("Exporting all %d worlds", len(cfg.WorldNames()))
		results, err := e.ExportAll(ctx)
		for _, res := range results {
			reportResult(res)
		}
		if err != nil {
			reportError(err)
			return 1
		}

		successf("Done")
		return 0
	}

	for _, name := range worlds {
		header("Exporting %s", name)
		res, err := e.Export(ctx, name)
		if err != nil {
			reportError(err)
			return 1
		}
		reportResult(res)
	}

	successf("Done")
	return 0
}

// reportResult prints the outcome of one world export.
func reportResult(res pipeline.Result) {
	if res.Skipped {
		warnf("Skipped %s: %s exists (use --force or FORCE_EXPORT)", res.World, res.Dir)
		return
	}
	successf("Exported %s in %s: %d layers, %d columns", res.World, res.Duration.Round(time.Millisecond), res.Layers, res.Columns)
}

// reportError prints an export error and, for tool failures, the end of the tool output.
func reportError(err error) {
	errorf("Error: %v", err)

	var te *pipeline.ToolError
	if errors.As(err, &te) && te.Output != "" {
		out := te.Output
		if len(out) > outputTail {
			out = "..." + out[len(out)-outputTail:]
		}
		fmt.Fprintln(os.Stderr, strings.TrimRight(out, "\n"))
	}
}

// runBasefiles writes the overview page.
func runBasefiles(cfg *config.Config) int {
	e := pipeline.New(cfg, nil, &pipeline.Options{Logger: logger.Named("pipeline")})
	if err := e.EnsureDirs(); err != nil {
		errorf("Error: %v", err)
		return 1
	}
	if err := e.WriteOverview(); err != nil {
		errorf("Error: %v", err)
		return 1
	}

	successf("Wrote overview for %d worlds", len(cfg.Worlds))
	return 0
}

// runConfig prints the effective configuration, or saves it with --save.
func runConfig(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	save := fs.String("save", "", "Write the configuration to this file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *save != "" {
		if err := cfg.SaveTo(*save); err != nil {
			errorf("Error: %v", err)
			return 1
		}
		successf("Saved configuration to %s", *save)
		return 0
	}

	b, err := cfg.Marshal()
	if err != nil {
		errorf("Error: %v", err)
		return 1
	}

	_, _ = stdout.Write(b)
	return 0
}

// parseFlags holds parser switches shared by cfg2json and fmt.
type parseFlags struct {
	stripComments  bool
	unescapeQuotes bool
	issues         bool
}

func (p *parseFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&p.stripComments, "strip-comments", false, "Remove // and /* */ comments before parsing")
	fs.BoolVar(&p.unescapeQuotes, "unescape-quotes", false, "Collapse doubled quotes in strings")
	fs.BoolVar(&p.issues, "issues", false, "Print skipped lines and other diagnostics to stderr")
}

// parse reads and parses one file ("-" is stdin).
func (p *parseFlags) parse(path string, stdin io.Reader, stderr io.Writer) (*rvcfg.Node, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	doc, err := rvcfg.ParseDocument(b, &rvcfg.ParseOptions{
		Logger:         logger.Named("rvcfg"),
		StripComments:  p.stripComments,
		UnescapeQuotes: p.unescapeQuotes,
	})
	if err != nil {
		return nil, err
	}

	if p.issues {
		for _, it := range doc.Issues {
			fmt.Fprintln(stderr, it.String())
		}
	}

	return doc.Root, nil
}

// runCfg2JSON prints a config file as JSON or YAML.
func runCfg2JSON(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cfg2json", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		pf     parseFlags
		asYAML = fs.Bool("yaml", false, "Print YAML instead of JSON")
		pretty = fs.BoolP("pretty", "p", false, "Indent JSON output")
	)
	pf.register(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: dzmaps cfg2json [options] <file|->\n\nOptions:\n%s", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	root, err := pf.parse(fs.Arg(0), os.Stdin, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var out []byte
	switch {
	case *asYAML:
		out, err = yaml.Marshal(root)
	case *pretty:
		var compact []byte
		compact, err = root.MarshalJSON()
		if err == nil {
			var buf bytes.Buffer
			err = json.Indent(&buf, compact, "", "  ")
			out = append(buf.Bytes(), '\n')
		}
	default:
		out, err = root.MarshalJSON()
		out = append(out, '\n')
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	_, _ = stdout.Write(out)
	return 0
}

// runFmt prints a config file in canonical form, or rewrites it with --write.
func runFmt(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		pf     parseFlags
		indent = fs.String("indent", "    ", "Indentation for nested classes")
		write  = fs.BoolP("write", "w", false, "Rewrite the file in place")
	)
	pf.register(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: dzmaps fmt [options] <file|->\n\nOptions:\n%s", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	path := fs.Arg(0)
	root, err := pf.parse(path, os.Stdin, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	opt := &rvcfg.FormatOptions{Indent: *indent}
	if *write && path != "-" {
		err = rvcfg.EncodeFile(path, root, opt)
	} else {
		err = rvcfg.Encode(stdout, root, opt)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}
