package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matiks/matiks-monitor/internal/scheduler"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	onceFlag         bool
	everyMinutesFlag int
	portFlag         string
	noServerFlag     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a cycle now, then keep running on the configured interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("every-minutes") {
			cfg.RunEveryMinutes = everyMinutesFlag
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = portFlag
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx := cmd.Context()
		monitor, err := newMonitoringService(ctx, cfg)
		if err != nil {
			return err
		}

		if onceFlag {
			_, err := monitor.RunMonitoring(ctx)
			return err
		}

		logrus.Info("Starting Matiks monitor")

		sched := scheduler.NewService(cfg, monitor)

		var httpServer *http.Server
		if !noServerFlag {
			httpServer = newHTTPServer(fmt.Sprintf(":%s", cfg.Port), newRouter(&server{
				ctx:       ctx,
				monitor:   monitor,
				scheduler: sched,
			}))
			go func() {
				logrus.Infof("HTTP server starting on port %s", cfg.Port)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logrus.Fatalf("HTTP server failed: %v", err)
				}
			}()
		}

		go func() {
			if _, err := monitor.RunMonitoring(ctx); err != nil {
				logrus.Errorf("Initial monitoring cycle failed: %v", err)
			}
		}()

		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()

		<-ctx.Done()
		logrus.Info("Shutting down...")

		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logrus.Errorf("Server forced to shutdown: %v", err)
			}
		}

		logrus.Info("Monitor exited")
		return nil
	},
}

func init() {
	flags := runCmd.Flags()
	flags.BoolVar(&onceFlag, "once", false, "run one cycle and exit")
	flags.IntVar(&everyMinutesFlag, "every-minutes", 0, "minutes between cycles (RUN_EVERY_MINUTES)")
	flags.StringVar(&portFlag, "port", "", "HTTP port (PORT)")
	flags.BoolVar(&noServerFlag, "no-server", false, "do not start the HTTP server")
}
