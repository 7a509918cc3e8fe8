package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Str("app", "ringsoak").
		Logger()
}

func newRootCommand() *cobra.Command {
	var cfgFile string
	v := viper.New()

	cmd := &cobra.Command{
		Use:          "ringsoak",
		Short:        "Soak test for ringcast channels",
		Long:         `Runs one producer and several consumers against a ringcast channel, with some consumers deliberately slow, and reports what each consumer received and lost.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, cfgFile)
			if err != nil {
				return err
			}

			logger := newLogger(cmd.OutOrStdout(), cfg.LogLevel)
			logger.Info().
				Str("config_file", v.ConfigFileUsed()).
				Int("capacity", cfg.Capacity).
				Int("readers", cfg.Readers).
				Int("batch", cfg.Batch).
				Int("writes", cfg.Writes).
				Msg("Configuration loaded successfully")

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Metrics.Enabled {
				if err := NewMetricsServer(cfg.Metrics.Addr, reg, logger).Start(ctx); err != nil {
					return err
				}
			}

			report, err := runSoak(ctx, cfg, reg, logger)
			if err != nil {
				return err
			}
			report.Log(logger)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	flags.Int("capacity", 1024, "Ring capacity")
	flags.Int("readers", 4, "Number of consumers")
	flags.Int("batch", 16, "Values per write, at most the capacity")
	flags.Int("writes", 100000, "Total values to write")
	flags.Duration("interval", 0, "Pause between batches")
	flags.Int("slow-every", 0, "Make every Nth consumer slow (0 disables)")
	flags.Duration("slow-delay", 10*time.Millisecond, "Pause a slow consumer takes after each read")
	flags.Duration("timeout", time.Minute, "Abort the run after this long")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("metrics-enabled", false, "Enable Prometheus metrics server")
	flags.String("metrics-addr", ":2112", "Address to listen on for metrics server")

	_ = v.BindPFlag("capacity", flags.Lookup("capacity"))
	_ = v.BindPFlag("readers", flags.Lookup("readers"))
	_ = v.BindPFlag("batch", flags.Lookup("batch"))
	_ = v.BindPFlag("writes", flags.Lookup("writes"))
	_ = v.BindPFlag("interval", flags.Lookup("interval"))
	_ = v.BindPFlag("slow_every", flags.Lookup("slow-every"))
	_ = v.BindPFlag("slow_delay", flags.Lookup("slow-delay"))
	_ = v.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
	_ = v.BindPFlag("metrics.addr", flags.Lookup("metrics-addr"))

	return cmd
}
