// Command etl-runner executes one staging-to-warehouse load and exits.
// Configuration comes from a YAML file overlaid by environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"agrimart/internal/blob"
	"agrimart/internal/report"
	"agrimart/internal/warehouse"
)

type runnerConfig struct {
	JobName       string                  `yaml:"job_name"`
	LogLevel      string                  `yaml:"log_level"`
	MetricsListen string                  `yaml:"metrics_listen"`
	Storage       warehouse.StorageConfig `yaml:"storage"`
	Report        reportConfig            `yaml:"report"`
}

type reportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
}

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("etl-runner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var configPath, jobName string
	fs.StringVar(&configPath, "config", "", "path to yaml config (optional)")
	fs.StringVar(&jobName, "job", "", "job name recorded in the execution log (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 2
	}
	if jobName != "" {
		cfg.JobName = jobName
	}
	if cfg.JobName == "" {
		cfg.JobName = "staging_to_dw"
	}

	log := newLogger(stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := run(ctx, cfg, log)
	if rep != nil {
		fmt.Fprintf(stdout, "run %d (%s): %s read=%d inserted=%d updated=%d skipped=%d\n",
			rep.RunID, rep.JobName, rep.Status,
			rep.Totals.Read, rep.Totals.Inserted, rep.Totals.Updated, rep.Totals.Skipped)
	}
	if err != nil {
		log.Error("run failed", "error", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (runnerConfig, error) {
	var cfg runnerConfig
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304: operator-supplied config path
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.Storage = warehouse.StorageConfigFromEnv(cfg.Storage)
	if v := os.Getenv("AGRIMART_METRICS_LISTEN"); v != "" {
		cfg.MetricsListen = v
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func run(ctx context.Context, cfg runnerConfig, log *slog.Logger) (*warehouse.RunReport, error) {
	store, err := warehouse.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.DB().Close() }()

	opts := []warehouse.Option{warehouse.WithLogger(log)}

	reg := prometheus.NewRegistry()
	opts = append(opts, warehouse.WithMetrics(warehouse.NewPrometheusRecorder(reg)))
	if cfg.MetricsListen != "" {
		srv := serveMetrics(cfg.MetricsListen, reg, log)
		defer shutdownMetrics(srv, log)
	}

	if cfg.Report.Enabled {
		bs, err := blob.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		opts = append(opts, warehouse.WithReportSink(report.NewArchiver(bs, cfg.Report.Prefix)))
	}

	return warehouse.New(store, opts...).Run(ctx, cfg.JobName)
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics listener stopped", "error", err)
		}
	}()
	return srv
}

func shutdownMetrics(srv *http.Server, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("metrics shutdown", "error", err)
	}
}
