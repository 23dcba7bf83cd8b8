// Command processor merges media-performance tables from the command line.
//
//	processor -in ./exports -benchmark benchmarks.xlsx -out merged.csv
//	processor -benchmark benchmarks.xlsx -out merged.xlsx google.csv meta.xlsx
//	processor -in ./exports -watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mediamerge/internal/config"
	"mediamerge/internal/dataprocessing"
	"mediamerge/internal/exporter"
	"mediamerge/internal/files"
	"mediamerge/internal/infrastructure"
	"mediamerge/internal/validation"
	"mediamerge/pkg/contracts"
	"mediamerge/pkg/contracts/domain"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

const (
	defaultOut   = "merged_media_data.csv"
	defaultQuiet = 2 * time.Second
)

type options struct {
	in         string
	benchmark  string
	out        string
	bom        bool
	watch      bool
	quiet      time.Duration
	noChannel  bool
	inputs     []string
	precision  int
	maxFiles   int
	extensions []string
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(exitFailed)
	}
	logger := infrastructure.WithComponent(infrastructure.NewLogger(cfg.Logging, os.Stderr), "processor")

	os.Exit(run(ctx, os.Args[1:], cfg, logger, os.Stdout, os.Stderr))
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{
		precision:  cfg.Export.Precision,
		maxFiles:   cfg.Pipeline.MaxFiles,
		extensions: cfg.Pipeline.AllowedExtensions,
	}
	fs.StringVar(&opts.in, "in", "", "input directory; xlsx/csv tables are merged in name order")
	fs.StringVar(&opts.benchmark, "benchmark", "", "benchmark spreadsheet with Channel, Benchmark CPM and Benchmark ROAS")
	fs.StringVar(&opts.out, "out", defaultOut, "output file; the extension selects csv or xlsx")
	fs.BoolVar(&opts.bom, "bom", cfg.Export.BOM, "prefix CSV output with a UTF-8 byte order mark")
	fs.BoolVar(&opts.watch, "watch", false, "re-run whenever tables in -in change")
	fs.DurationVar(&opts.quiet, "quiet", defaultQuiet, "quiet period before a watched change triggers a run")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	fs.BoolVar(&opts.noChannel, "no-channel", cfg.Pipeline.DistinguishNoChannel, `mark tables without a Channel column "No Channel"`)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.version {
		return opts, nil
	}

	if opts.in != "" {
		opts.inputs = append(opts.inputs, opts.in)
	}
	opts.inputs = append(opts.inputs, fs.Args()...)

	switch {
	case len(opts.inputs) == 0:
		return nil, errors.New("no input: pass -in or table files")
	case opts.watch && opts.in == "":
		return nil, errors.New("-watch requires -in")
	case opts.quiet <= 0:
		return nil, errors.New("-quiet must be positive")
	}
	return opts, nil
}

// run executes the command and returns the process exit code. Results go
// to stdout, diagnostics to stderr.
func run(ctx context.Context, args []string, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		return exitOK
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	validator := validation.NewFileValidator(opts.extensions, opts.maxFiles, logger)
	for _, input := range opts.inputs {
		if err := validator.ValidateInputPath(input); err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
	}
	if opts.benchmark != "" {
		if err := validator.ValidateFile(opts.benchmark); err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
	}
	if _, err := validator.ValidateOutputPath(opts.out); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	processing := dataprocessing.DefaultOptions()
	processing.DistinguishNoChannel = opts.noChannel

	r := &runner{
		opts:      opts,
		discovery: files.NewDiscovery(opts.extensions),
		pipeline:  dataprocessing.NewPipeline(processing, logger),
		logger:    logger,
		stdout:    stdout,
		stderr:    stderr,
	}

	code := r.runOnce(ctx)
	if !opts.watch {
		return code
	}

	err = r.discovery.Watch(ctx, opts.in, opts.quiet, logger, func(ctx context.Context) {
		r.runOnce(ctx)
	}, opts.out)
	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "watch failed")
		return exitFailed
	}
	return exitOK
}

type runner struct {
	opts      *options
	discovery *files.Discovery
	pipeline  *dataprocessing.Pipeline
	logger    *slog.Logger
	stdout    io.Writer
	stderr    io.Writer
}

// runOnce loads the benchmark, merges every input table and writes the
// dataset. The benchmark is reloaded each run so watch mode picks up edits.
// Neither the benchmark nor a previous output is ever merged as a table.
func (r *runner) runOnce(ctx context.Context) int {
	ctx = infrastructure.EnsureTraceID(ctx)

	paths, err := r.discovery.Resolve(r.opts.inputs, r.opts.benchmark, r.opts.out)
	if err != nil {
		fmt.Fprintln(r.stderr, err)
		return exitFailed
	}
	if len(paths) == 0 {
		fmt.Fprintln(r.stderr, "no tables found")
		return exitFailed
	}

	var bench *domain.BenchmarkTable
	if r.opts.benchmark != "" {
		bench, err = r.pipeline.LoadBenchmark(ctx, domain.Upload{Path: r.opts.benchmark})
		if err != nil {
			fmt.Fprintf(r.stderr, "benchmark: %v\n", err)
			return exitFailed
		}
	}

	uploads := make([]domain.Upload, len(paths))
	for i, p := range paths {
		uploads[i] = domain.Upload{Name: filepath.Base(p), Path: p}
	}

	result, err := r.pipeline.Process(ctx, uploads, bench, func(u domain.ProgressUpdate) {
		if u.Stage == domain.StageTableFailed {
			fmt.Fprintf(r.stderr, "[%d/%d] %s failed: %s\n", u.Index, u.Total, u.File, u.Message)
		}
	})
	if err != nil {
		fmt.Fprintf(r.stderr, "no table could be processed (%d failed)\n", len(result.Failures))
		return exitFailed
	}

	writeOpts := exporter.DefaultWriteOptions()
	writeOpts.BOMPrefix = r.opts.bom
	writeOpts.Precision = r.opts.precision
	if err := exporter.WriteFile(r.opts.out, result.Dataset, writeOpts, r.logger); err != nil {
		fmt.Fprintf(r.stderr, "write %s: %v\n", r.opts.out, err)
		return exitFailed
	}

	for _, sum := range dataprocessing.Summarize(result.Dataset) {
		r.logger.InfoContext(ctx, "channel summary",
			slog.String("channel", sum.Channel),
			slog.Int("rows", sum.Rows),
			slog.Float64("total_spend", sum.TotalSpend),
			slog.Float64("total_revenue", sum.TotalRevenue),
			slog.Any("mean_cpm", sum.MeanCPM),
			slog.Any("mean_roas", sum.MeanROAS))
	}

	fmt.Fprintf(r.stdout, "merged %d of %d tables, %d rows, %d columns -> %s\n",
		result.Processed, len(uploads), result.RowsMerged, len(result.Dataset.Columns), r.opts.out)
	return exitOK
}
