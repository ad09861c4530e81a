// Command poolbench drives configurable workloads against the pool
// implementations and reports throughput and pool statistics.
package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Yortw/PoolSharp/pkg/config"
	"github.com/Yortw/PoolSharp/pkg/logger"
	"github.com/Yortw/PoolSharp/pkg/metrics"
	"github.com/Yortw/PoolSharp/pkg/pool"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:     "poolbench",
		Short:   "Workload driver for the pool library",
		Version: version,
	}
	root.AddCommand(newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a get/put workload and print a JSON report",
		RunE:  runWorkload,
	}

	flags := cmd.Flags()
	flags.String("config", "", "Path to a YAML workload config")
	flags.String("name", "bench", "Workload name (labels logs and metrics)")
	flags.Int("maximum-size", 128, "Idle capacity bound, 0 for unlimited")
	flags.String("timing", "on_return", "Reinitialization timing: on_return, on_take, async")
	flags.Bool("strict-returns", false, "Fail Put on duplicate returns")
	flags.Bool("fill", false, "Pre-populate the pool before the run")
	flags.Bool("unsynchronized", false, "Use the single-goroutine pool variant")
	flags.Int("goroutines", 0, "Concurrent workers (default: NumCPU)")
	flags.Int("operations", 0, "Get/put cycles per worker")
	flags.Int("value-bytes", 0, "Pooled payload size in bytes")
	flags.Duration("hold", 0, "Simulated work between get and put")
	flags.Bool("metrics", false, "Serve Prometheus metrics during the run")
	flags.String("metrics-addr", "", "Metrics listen address")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("report", "", "Write the JSON report to this file instead of stdout")

	viper.SetEnvPrefix("POOLBENCH")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)

	return cmd
}

// buildConfig merges the config file (when given) with flag and environment
// overrides bound through viper.
func buildConfig() (*config.BenchConfig, error) {
	var cfg *config.BenchConfig
	if path := viper.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.NewBenchConfig(viper.GetString("name"))
		cfg.Pool.MaximumSize = viper.GetInt("maximum-size")
		cfg.Pool.Timing = viper.GetString("timing")
	}

	cfg.Pool.StrictReturns = cfg.Pool.StrictReturns || viper.GetBool("strict-returns")
	cfg.Pool.Fill = cfg.Pool.Fill || viper.GetBool("fill")
	cfg.Pool.Unsynchronized = cfg.Pool.Unsynchronized || viper.GetBool("unsynchronized")

	if n := viper.GetInt("goroutines"); n > 0 {
		cfg.Workload.Goroutines = n
	}
	if cfg.Pool.Unsynchronized {
		cfg.Workload.Goroutines = 1
	}
	if n := viper.GetInt("operations"); n > 0 {
		cfg.Workload.Operations = n
	}
	if n := viper.GetInt("value-bytes"); n > 0 {
		cfg.Workload.ValueBytes = n
	}
	if d := viper.GetDuration("hold"); d > 0 {
		cfg.Workload.HoldTime = d
	}
	if viper.GetBool("metrics") {
		cfg.Observability.MetricsEnabled = true
	}
	if addr := viper.GetString("metrics-addr"); addr != "" {
		cfg.Observability.MetricsAddr = addr
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Observability.LogLevel = lvl
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// payload is the pooled value for the synthetic workload.
type payload struct {
	data []byte
	uses int64
}

// Dispose implements pool.Disposable so eviction and shutdown paths are
// exercised by the bench.
func (p *payload) Dispose() {
	p.data = nil
}

// report is the JSON document emitted at the end of a run.
type report struct {
	Name       string        `json:"name"`
	Variant    string        `json:"variant"`
	Timing     string        `json:"timing"`
	Goroutines int           `json:"goroutines"`
	Operations int           `json:"operations_total"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	OpsPerSec  float64       `json:"ops_per_sec"`
	Stats      pool.Stats    `json:"pool_stats"`
}

func runWorkload(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Development: cfg.Observability.LogDevelopment,
	}); err != nil {
		return err
	}
	log := logger.With(zap.String("workload", cfg.Name))
	defer func() { _ = logger.Sync() }()

	policy := pool.Policy[*payload]{
		Name:        cfg.Name,
		MaximumSize: cfg.Pool.MaximumSize,
		Timing:      cfg.Timing(),
		Factory: func() *payload {
			return &payload{data: make([]byte, cfg.Workload.ValueBytes)}
		},
		Reinitialize: func(p *payload) error {
			p.uses = 0
			return nil
		},
		ErrorOnDuplicateReturn: cfg.Pool.StrictReturns,
	}

	var rep report
	if cfg.Pool.Unsynchronized {
		rep, err = runUnsync(cfg, policy, log)
	} else {
		rep, err = runConcurrent(cfg, policy, log)
	}
	if err != nil {
		return err
	}

	return writeReport(cfg, rep)
}

func runConcurrent(cfg *config.BenchConfig, policy pool.Policy[*payload], log *zap.Logger) (report, error) {
	p, err := pool.New(policy)
	if err != nil {
		return report{}, err
	}
	defer func() { _ = p.Close() }()

	if cfg.Pool.Fill {
		if err := p.Fill(); err != nil {
			return report{}, err
		}
	}

	stopMetrics := startMetrics(cfg, p.Stats, log)
	defer stopMetrics()

	log.Info("starting workload",
		zap.Int("goroutines", cfg.Workload.Goroutines),
		zap.Int("operations", cfg.Workload.Operations),
		zap.String("timing", cfg.Pool.Timing))

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workload.Goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for op := 0; op < cfg.Workload.Operations; op++ {
				v, err := p.Get()
				if err != nil {
					log.Error("get failed", zap.Error(err))
					return
				}
				v.uses++
				if cfg.Workload.HoldTime > 0 {
					time.Sleep(cfg.Workload.HoldTime)
				}
				if err := p.Put(v); err != nil {
					log.Error("put failed", zap.Error(err))
					return
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	total := cfg.Workload.Goroutines * cfg.Workload.Operations
	return report{
		Name:       cfg.Name,
		Variant:    "concurrent",
		Timing:     cfg.Pool.Timing,
		Goroutines: cfg.Workload.Goroutines,
		Operations: total,
		Elapsed:    elapsed,
		OpsPerSec:  float64(total) / elapsed.Seconds(),
		Stats:      p.Stats(),
	}, nil
}

func runUnsync(cfg *config.BenchConfig, policy pool.Policy[*payload], log *zap.Logger) (report, error) {
	p, err := pool.NewUnsync(policy)
	if err != nil {
		return report{}, err
	}
	defer func() { _ = p.Close() }()

	if cfg.Pool.Fill {
		if err := p.Fill(); err != nil {
			return report{}, err
		}
	}

	stopMetrics := startMetrics(cfg, p.Stats, log)
	defer stopMetrics()

	log.Info("starting workload",
		zap.Int("operations", cfg.Workload.Operations),
		zap.String("timing", cfg.Pool.Timing))

	start := time.Now()
	for op := 0; op < cfg.Workload.Operations; op++ {
		v, err := p.Get()
		if err != nil {
			return report{}, err
		}
		v.uses++
		if cfg.Workload.HoldTime > 0 {
			time.Sleep(cfg.Workload.HoldTime)
		}
		if err := p.Put(v); err != nil {
			return report{}, err
		}
	}
	elapsed := time.Since(start)

	return report{
		Name:       cfg.Name,
		Variant:    "unsynchronized",
		Timing:     cfg.Pool.Timing,
		Goroutines: 1,
		Operations: cfg.Workload.Operations,
		Elapsed:    elapsed,
		OpsPerSec:  float64(cfg.Workload.Operations) / elapsed.Seconds(),
		Stats:      p.Stats(),
	}, nil
}

// startMetrics wires the pool's stats into the Prometheus collectors and
// serves the scrape endpoint when enabled. The returned stop function
// performs a final update and shuts the server down.
func startMetrics(cfg *config.BenchConfig, source metrics.StatsSource, log *zap.Logger) func() {
	if !cfg.Observability.MetricsEnabled {
		return func() {}
	}

	collector := metrics.NewCollector(cfg.Name, source)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              cfg.Observability.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		ticker := time.NewTicker(cfg.Observability.ReportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				collector.Update()
			case <-done:
				return
			}
		}
	}()

	log.Info("serving metrics", zap.String("addr", cfg.Observability.MetricsAddr))

	return func() {
		close(done)
		collector.Update()
		_ = server.Close()
	}
}

func writeReport(cfg *config.BenchConfig, rep report) error {
	data, err := gojson.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}

	if path := viper.GetString("report"); path != "" {
		return os.WriteFile(path, append(data, '\n'), 0o600)
	}

	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
