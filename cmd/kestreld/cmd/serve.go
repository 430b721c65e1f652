package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kestrelhttp/kestrel/config"
	"github.com/kestrelhttp/kestrel/logging"
	"github.com/kestrelhttp/kestrel/metrics"
	"github.com/kestrelhttp/kestrel/middleware"
	"github.com/kestrelhttp/kestrel/panicbridge"
	"github.com/kestrelhttp/kestrel/reqctx"
	"github.com/kestrelhttp/kestrel/server"
	"github.com/kestrelhttp/kestrel/wsutil"
)

var (
	cfgFile        string
	serveHost      string
	servePort      int
	metricsAddr    string
	rateLimitRPS   float64
	rateLimitBurst int
	logLevel       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a kestrel server",
	Long: `serve loads a configuration file (if given), applies any flag
overrides, and runs a kestrel server until it receives SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "path to a YAML or TOML config file")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides config file)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config file)")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
	serveCmd.Flags().Float64Var(&rateLimitRPS, "rate-limit-rps", 0, "if > 0, enable the rate-limiting middleware at this rate per second")
	serveCmd.Flags().IntVar(&rateLimitBurst, "rate-limit-burst", 10, "token bucket burst size for --rate-limit-rps")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if cfgFile != "" {
		loaded, err := config.LoadFile(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config file: %w", err)
		}
		cfg = loaded
	}
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger := logging.New(logging.WithLevel(logging.ParseLevel(logLevel)), logging.WithPrefix("kestreld"))
	logging.Default = logger

	rec := metrics.New()
	if metricsAddr != "" {
		go func() {
			logger.Info("starting metrics listener", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, rec.Handler()); err != nil {
				logger.Error("metrics listener exited", "error", err.Error())
			}
		}()
	}

	srv := server.New(cfg, wsutil.DefaultCollaborators())
	srv.UseMetrics(rec)
	srv.OnPanic(func(ctx *reqctx.Context) {
		rec.PanicRecovered()
		if info, ok := ctx.PanicInfo(); ok {
			panicbridge.DefaultHandler(info, ctx)
		}
	})

	srv.RequestMiddleware(middleware.RequestTimer, 0)
	srv.RequestMiddleware(middleware.RequestID, 10)
	if rateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(rateLimitRPS, rateLimitBurst, middleware.ByRemoteAddr)
		srv.RequestMiddleware(limiter.Middleware(), 20)
	}

	srv.ResponseMiddleware(middleware.Logging(logger), 0)
	srv.ResponseMiddleware(middleware.Metrics(rec), 10)

	ctrl, err := srv.Run()
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	logger.Info("server listening", "host", cfg.Host, "port", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutdown requested")
	ctrl.Shutdown()
	return ctrl.Wait()
}
