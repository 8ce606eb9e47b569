package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"adas-actuation-core/utils"
)

func main() {
	var (
		cfgPath     = flag.String("config", "", "YAML config file (defaults apply when empty)")
		scenPath    = flag.String("scenario", "closed_loop/scenarios/stop_and_go.json", "Scenario JSON file")
		family      = flag.String("family", "", "Vehicle family, overrides the config")
		interceptor = flag.Bool("interceptor", false, "Pedal interceptor fitted, overrides the config")
		recordPath  = flag.String("record", "", "SQLite file to record the run into")
		metricsAddr = flag.String("metrics", "", "Listen address for /metrics")
		logLevel    = flag.String("log", "", "trace|debug|info|warn|error|critical")
		buses       = flag.String("buses", "", "Bus map, e.g. 0=vcan0,1=vcan1")
	)
	flag.Parse()

	cfg := DefaultConfig()
	if *cfgPath != "" {
		loaded, err := LoadConfigFile(*cfgPath)
		if err != nil {
			fatal("config: " + err.Error())
		}
		cfg = loaded
	}

	var o FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "family":
			o.Family = family
		case "interceptor":
			o.Interceptor = interceptor
		case "record":
			o.RecorderPath = recordPath
		case "metrics":
			o.MetricsAddr = metricsAddr
		case "log":
			o.LogLevel = logLevel
		}
	})
	busMap, err := parseBuses(*buses)
	if err != nil {
		fatal(err.Error())
	}
	o.Buses = busMap
	o.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fatal("config: " + err.Error())
	}

	log, err := utils.NewFileLogger(cfg.Logging.File, utils.ParseLevel(cfg.Logging.Level), cfg.Logging.Stdout)
	if err != nil {
		fatal("cannot open " + cfg.Logging.File + ": " + err.Error())
	}
	defer log.Close()

	scen, err := LoadScenario(*scenPath)
	if err != nil {
		log.Critical("Scenario %s: %v", *scenPath, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := NewRunner(ctx, cfg, scen, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		os.Exit(1)
	}
	defer runner.Close()

	g, gCtx := errgroup.WithContext(ctx)
	runCtx, stopRun := context.WithCancel(gCtx)
	defer stopRun()

	g.Go(func() error {
		// the metrics server follows the run
		defer stopRun()
		return runner.Run(runCtx)
	})
	if cfg.Metrics.Listen != "" {
		g.Go(func() error {
			return runMetricsServer(runCtx, cfg.Metrics.Listen, log)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Critical("Run failed: %v", err)
		os.Exit(1)
	}
}

func runMetricsServer(ctx context.Context, addr string, log *utils.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return errors.Wrap(err, "metrics server")
	}
}

// parseBuses reads "0=vcan0,1=vcan1".
func parseBuses(s string) (map[int]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	out := map[int]string{}
	for _, part := range strings.Split(s, ",") {
		bus, iface, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, errors.Errorf("bad bus entry %q, want N=iface", part)
		}
		n, err := strconv.Atoi(bus)
		if err != nil {
			return nil, errors.Wrapf(err, "bus entry %q", part)
		}
		out[n] = iface
	}
	return out, nil
}

func fatal(msg string) {
	_, _ = os.Stderr.WriteString("ERROR: " + msg + "\n")
	os.Exit(1)
}
