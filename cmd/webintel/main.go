package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/website-intel/internal/config"
)

var (
	Version = "0.1.0"

	configPath string
)

func main() {
	root := &cobra.Command{
		Use:           "webintel",
		Short:         "Website intelligence dashboard",
		Long:          "Dashboard and CLI for the website-intelligence API: submit a URL, watch the scan, browse history and export results.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// path config.yaml
	def := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", def, "Path to config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the charm logger from the log section of the config.
func newLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "webintel",
	})
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	}
	return logger, nil
}

func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config load error: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "webintel %s\n", Version)
		},
	}
}
