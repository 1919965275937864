package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/uirunner/pkg/browser/pwdriver"
	"github.com/entrhq/uirunner/pkg/command"
	"github.com/entrhq/uirunner/pkg/logging"
	"github.com/entrhq/uirunner/pkg/probe"
	"github.com/entrhq/uirunner/pkg/report"
	"github.com/entrhq/uirunner/pkg/session"
	"github.com/entrhq/uirunner/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// probeOptions holds the probe command flags
type probeOptions struct {
	URL         string
	Engine      string
	Headed      bool
	Install     bool
	ReportFile  string
	TraceFile   string
	MetricsAddr string
	Timeout     time.Duration
}

var probeOpts probeOptions

var probeCmd = &cobra.Command{
	Use:   "probe [script.yaml]",
	Short: "Run a scripted probe against a page",
	Long: `Launches a browser, runs the steps of a probe script as recorded commands,
prints the command history and optionally writes it as a JSON or YAML report.

With --url and no script, the page is opened and its body awaited.`,
	Example: `  # Open a page and check that it renders
  uirunner probe --url https://example.com

  # Run a script and keep a YAML report
  uirunner probe account.yaml --report out/account.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := resolveScript(args, probeOpts.URL)
		if err != nil {
			return err
		}

		base, stop := context.WithCancel(cmd.Context())
		defer stop()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		go func() {
			select {
			case <-sigChan:
				fmt.Fprintln(cmd.ErrOrStderr(), "\nStopping after the current step...")
				stop()
			case <-base.Done():
			}
		}()

		ctx := base
		if probeOpts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(base, probeOpts.Timeout)
			defer cancel()
		}

		return runProbe(ctx, cmd, script)
	},
}

func init() {
	f := probeCmd.Flags()
	f.StringVar(&probeOpts.URL, "url", "", "Page to open before the first step")
	f.StringVar(&probeOpts.Engine, "engine", "", "Browser engine: chromium, firefox or webkit (overrides config)")
	f.BoolVar(&probeOpts.Headed, "headed", false, "Show the browser window")
	f.BoolVar(&probeOpts.Install, "install", false, "Download the Playwright driver and browser first")
	f.StringVar(&probeOpts.ReportFile, "report", "", "Write the command history to this file (.json, .yaml or .yml)")
	f.StringVar(&probeOpts.TraceFile, "trace", "", "Write OpenTelemetry spans for every command to this file")
	f.StringVar(&probeOpts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running, e.g. :9090")
	f.DurationVar(&probeOpts.Timeout, "timeout", 0, "Stop starting new steps after this long")
	rootCmd.AddCommand(probeCmd)
}

func resolveScript(args []string, url string) (*probe.Script, error) {
	if len(args) == 0 {
		if url == "" {
			return nil, errors.New("either a script or --url is required")
		}
		return &probe.Script{
			Name: "probe " + url,
			URL:  url,
			Steps: []probe.Step{{
				Name:   "Wait for page body",
				Action: probe.ActionWaitVisible,
				Target: &probe.Locator{CSS: "body"},
			}},
		}, nil
	}

	script, err := probe.LoadScript(args[0])
	if err != nil {
		return nil, err
	}
	if url != "" {
		script.URL = url
	}
	return script, nil
}

//nolint:gocyclo
func runProbe(ctx context.Context, cmd *cobra.Command, script *probe.Script) error {
	logger, _ := logging.NewLogger("cli")
	defer logger.Close()

	browserCfg, timing, err := loadConfig()
	if err != nil {
		return err
	}
	if probeOpts.Engine != "" {
		browserCfg.Engine = probeOpts.Engine
	}
	if probeOpts.Headed {
		browserCfg.Headless = false
	}
	if probeOpts.Install {
		browserCfg.Install = true
	}

	var observers []command.Observer

	if probeOpts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		observers = append(observers, telemetry.NewMetrics(reg))
		srv := &http.Server{
			Addr:              probeOpts.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("metrics server: %v", err)
			}
		}()
		defer srv.Close()
		logger.Infof("serving metrics on %s", probeOpts.MetricsAddr)
	}

	var tracer *telemetry.TracerProvider
	if probeOpts.TraceFile != "" {
		traceOut, err := os.Create(probeOpts.TraceFile)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		defer traceOut.Close()
		tracer, err = telemetry.NewTracerProvider("uirunner", traceOut)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracer.Shutdown(shutdownCtx); err != nil {
				logger.Warnf("failed to flush traces: %v", err)
			}
		}()
	}

	launcher := pwdriver.NewLauncher(logger.Component("pwdriver"))
	if err := launcher.Initialize(browserCfg.Engine, browserCfg.Install); err != nil {
		return err
	}
	defer func() {
		if err := launcher.Shutdown(); err != nil {
			logger.Warnf("launcher shutdown: %v", err)
		}
	}()

	driver, err := launcher.Launch(pwdriver.OptionsFrom(browserCfg, timing))
	if err != nil {
		return err
	}

	opts := []session.Option{
		session.WithTiming(timing),
		session.WithLogger(logger.Component("session")),
	}
	for _, o := range observers {
		opts = append(opts, session.WithObserver(o))
	}
	s := session.New(driver, opts...)
	if tracer != nil {
		s.Runner().AddObserver(telemetry.NewTracer(tracer.Provider(), telemetry.WithSessionID(s.ID())))
	}

	logger.Infof("running probe %q (%d steps) in session %s", script.Name, len(script.Steps), s.ID())
	res, runErr := probe.NewRunner(s).Run(ctx, script)

	if err := s.Close(); err != nil {
		logger.Warnf("%v", err)
	}

	rep := report.New(s)
	if err := report.Print(cmd.OutOrStdout(), rep); err != nil {
		return err
	}
	if probeOpts.ReportFile != "" {
		if err := rep.WriteFile(probeOpts.ReportFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", probeOpts.ReportFile)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d steps skipped\n", res.Skipped)
	}

	if runErr != nil {
		return fmt.Errorf("probe failed: %w", runErr)
	}
	return nil
}
