package main

import (
	"github.com/spf13/cobra"

	"nascal/internal/config"
	appLog "nascal/internal/log"
	"nascal/internal/store"
)

var (
	flagConfigPath string
	flagDataDir    string
)

var rootCmd = &cobra.Command{
	Use:   "nascal",
	Short: "Event planner for the Nascente 2016 school year",
	Long: `nascal keeps the calendar for the Arquipélago da Nascente school
year: dated events with optional times, grouped into a month view.

Events persist in a single JSON file and can be exported, imported and
served over HTTP (including an ICS subscription feed).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "nascal.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data", "", "data directory (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadApp is the composition root: it loads the config, applies the log
// level, opens the store, loads persisted state and ensures the seed event.
func loadApp() (*config.Config, *store.Store, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}

	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	st := store.New(cfg.DataDir)
	if err := st.Load(); err != nil {
		return nil, nil, err
	}
	if err := st.EnsureSeedEvent(); err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}
