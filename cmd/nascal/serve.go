package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appLog "nascal/internal/log"
	"nascal/internal/snapshot"
	"nascal/internal/web"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner HTTP API and ICS feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := loadApp()
		if err != nil {
			return err
		}
		if flagListen != "" {
			cfg.Listen = flagListen
		}

		appLog.Info("nascal serving",
			"listen", cfg.Listen,
			"data_dir", cfg.DataDir,
			"year", cfg.Year,
			"events", st.Len(),
		)

		if cfg.SnapshotCron != "" {
			runner := snapshot.New(st.Path())
			if err := runner.Start(cfg.SnapshotCron); err != nil {
				return err
			}
			defer runner.Stop()
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- web.StartServer(cfg, st)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			return nil
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "HTTP listen address (overrides config)")
}
