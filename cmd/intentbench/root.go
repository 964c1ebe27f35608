package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/greynewell/intentbench/client"
	"github.com/greynewell/intentbench/config"
	"github.com/greynewell/intentbench/dataset"
	"github.com/greynewell/intentbench/errors"
	"github.com/greynewell/intentbench/eval"
	"github.com/greynewell/intentbench/health"
	"github.com/greynewell/intentbench/lifecycle"
	"github.com/greynewell/intentbench/logging"
	"github.com/greynewell/intentbench/metrics"
	"github.com/greynewell/intentbench/parallel"
	"github.com/greynewell/intentbench/report"
	"github.com/greynewell/intentbench/server"
	"github.com/greynewell/intentbench/trace"
)

// fail wraps err with the exit code its error code maps to.
func fail(err error) error {
	if err == nil {
		return nil
	}
	return cliError{code: errors.ExitCode(errors.Code(err)), err: err}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := config.Default()
	var configPath, envFile string

	root := &cobra.Command{
		Use:           "intentbench [flags] <dataset.tsv>",
		Short:         "Benchmark an intent classification API against a labeled dataset",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fail(errors.Newf(errors.CodeValidation, "expected one dataset path, got %d arguments", len(args)))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Flags(), flags, configPath, envFile)
			if err != nil {
				return fail(err)
			}
			return fail(bench(cmd.Context(), cfg, args[0], stdout, stderr))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.Flags()
	f.StringVarP(&flags.URL, "url", "u", "", "base URL for the intents API (required)")
	f.IntVar(&flags.ModelIndex, "model-index", flags.ModelIndex, "model to evaluate when the service serves several")
	f.IntVarP(&flags.Jobs, "jobs", "j", flags.Jobs, "number of requests to run in parallel")
	f.StringVarP(&flags.Output, "output", "o", "", "write incorrect answers as TSV to this file (- for stdout)")
	f.DurationVar(&flags.RetryInterval, "retry-interval", flags.RetryInterval, "delay between readiness probes")
	f.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "per-request timeout")
	f.Float64Var(&flags.Rate, "rate", flags.Rate, "maximum requests per second (0 = unlimited)")
	f.StringVar(&flags.Format, "format", flags.Format, "report format: text, json or yaml")
	f.StringVar(&flags.ReportFile, "report-file", "", "also write the report to this file, format chosen by extension")
	f.StringVar(&flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	f.StringVar(&flags.TraceFile, "trace-file", "", "write OpenTelemetry spans to this file")
	f.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "log level: debug, info, warn, error")
	f.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "log format: text or json")
	f.BoolVar(&flags.NoProgress, "no-progress", false, "disable the progress bar")
	f.StringVar(&configPath, "config", "", "YAML config file (env "+config.EnvPrefix+"_CONFIG)")
	f.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newVersionCommand(stdout))
	return root
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(stdout, "intentbench", version)
		},
	}
}

// resolveConfig layers flag > env > config file > default.
func resolveConfig(fs *pflag.FlagSet, flags config.Config, configPath, envFile string) (config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return config.Config{}, errors.Wrapf(errors.CodeValidation, err, "load %s", envFile)
		}
	}
	if configPath == "" {
		configPath = os.Getenv(config.EnvPrefix + "_CONFIG")
	}

	cfg, err := config.Load(configPath, config.EnvPrefix)
	if err != nil {
		return cfg, err
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "url":
			cfg.URL = flags.URL
		case "model-index":
			cfg.ModelIndex = flags.ModelIndex
		case "jobs":
			cfg.Jobs = flags.Jobs
		case "output":
			cfg.Output = flags.Output
		case "retry-interval":
			cfg.RetryInterval = flags.RetryInterval
		case "timeout":
			cfg.Timeout = flags.Timeout
		case "rate":
			cfg.Rate = flags.Rate
		case "format":
			cfg.Format = flags.Format
		case "report-file":
			cfg.ReportFile = flags.ReportFile
		case "metrics-addr":
			cfg.MetricsAddr = flags.MetricsAddr
		case "trace-file":
			cfg.TraceFile = flags.TraceFile
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "log-format":
			cfg.LogFormat = flags.LogFormat
		case "no-progress":
			cfg.NoProgress = flags.NoProgress
		}
	})

	return cfg, cfg.Validate()
}

func bench(parent context.Context, cfg config.Config, datasetPath string, stdout, stderr io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(errors.CodeValidation, err, "log level")
	}
	log := logging.New("intentbench", level, logging.WithWriter(stderr), logging.WithFormat(cfg.LogFormat))

	// Human-facing lines share stdout with the text report only.
	console := stdout
	if cfg.Format != report.FormatText {
		console = stderr
	}

	return lifecycle.Run(parent, func(ctx context.Context) error {
		shutdownTrace, err := trace.Setup(ctx, cfg.TraceFile, version)
		if err != nil {
			return err
		}
		lifecycle.OnShutdown(ctx, lifecycle.Hook(shutdownTrace))

		opts := []client.Option{client.WithTimeout(cfg.Timeout), client.WithPoolSize(cfg.Jobs)}
		if cfg.ModelIndex > 0 {
			opts = append(opts, client.WithModel(strconv.Itoa(cfg.ModelIndex)))
		}
		svc := client.New(cfg.URL, opts...)
		report.Banner(console, svc.BaseURL())

		rows, err := dataset.Load(datasetPath)
		if err != nil {
			return err
		}
		report.Loaded(console, len(rows), sourceName(datasetPath))
		if len(rows) == 0 {
			report.Empty(console)
			return eval.ErrEmptyDataset
		}

		runID := uuid.NewString()
		reg := metrics.NewRegistry()
		reg.SetDatasetSize(len(rows))
		tracker := health.New("intentbench", version, len(rows))
		tracker.SetRunID(runID)
		if cfg.MetricsAddr != "" {
			srv := server.New(cfg.MetricsAddr)
			srv.Handle("/metrics", reg.Handler())
			srv.Handle("GET /healthz", tracker.Liveness())
			srv.Handle("GET /status", tracker.Status())
			if err := srv.Start(); err != nil {
				return err
			}
			lifecycle.OnShutdown(ctx, srv.Shutdown)
			log.Info(ctx, "serving metrics", "addr", srv.ListenAddr())
		}

		pool := parallel.NewPool(cfg.Jobs, parallel.WithRate(cfg.Rate))
		if pool.Limited() {
			log.Info(ctx, "request rate limited", "per_second", cfg.Rate)
		}

		observers := []eval.Observer{metricsObserver{reg}, tracker}
		var bar *report.Progress
		if !cfg.NoProgress {
			if f, ok := stderr.(*os.File); ok && report.IsTerminal(f) {
				bar = report.NewProgress(stderr, len(rows))
				observers = append(observers, bar)
			}
		}

		st, runErr := eval.Run(ctx, eval.Options{
			RunID:         runID,
			URL:           svc.BaseURL(),
			Rows:          rows,
			Service:       svc,
			Pool:          pool,
			RetryInterval: cfg.RetryInterval,
			ModelIndex:    cfg.ModelIndex,
			Logger:        log,
			Observers:     observers,
			OnNotReady:    reg.NotReady,
			OnStart: func(_ context.Context, info *client.Info) {
				report.Models(console, info, cfg.ModelIndex)
				tracker.SetPhase(health.PhaseRunning)
			},
		})
		bar.Finish()
		if runErr != nil {
			tracker.SetPhase(health.PhaseInterrupted)
		} else {
			tracker.SetPhase(health.PhaseDone)
		}
		if st == nil {
			return runErr
		}

		if err := report.Write(stdout, cfg.Format, st); err != nil {
			return err
		}
		if cfg.ReportFile != "" {
			if err := report.WriteFile(cfg.ReportFile, st); err != nil {
				return err
			}
		}
		if cfg.Output != "" {
			if err := writeMisclassified(cfg.Output, st, console, stdout); err != nil {
				return err
			}
		}
		return runErr
	}, lifecycle.WithSignalHandler(func(sig os.Signal) {
		log.Warn(context.Background(), "interrupted, finishing with partial results", "signal", sig.String())
	}))
}

func writeMisclassified(path string, st *eval.Statistics, console, stdout io.Writer) error {
	fmt.Fprintf(console, "Incorrect answers to be written to %s\n", report.Destination(path))
	w, err := report.Open(path, stdout)
	if err != nil {
		return err
	}
	if err := report.Misclassified(w, st.Misclassified); err != nil {
		w.Close()
		return errors.Wrapf(errors.CodeInternal, err, "write %s", report.Destination(path))
	}
	return w.Close()
}

func sourceName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}
