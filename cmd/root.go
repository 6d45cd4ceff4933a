// Package cmd contains the Pulseboard CLI.
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/pulseboard/pulseboard/api"
	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/scheduler"
	"github.com/pulseboard/pulseboard/store"
	"github.com/pulseboard/pulseboard/store/jsonstore"
	"github.com/pulseboard/pulseboard/store/sqlitestore"
	"github.com/pulseboard/pulseboard/tracker"
	"github.com/spf13/cobra"
)

var rootCmdPersistentFlags struct {
	LogFile    string
	ConfigFile string
	LogLevel   string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogFile, "log-file", "", "File to write logs to")
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Path to config file (default: search for config.yml in current dir, ~/.pulseboard, /etc/pulseboard)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

var rootCmd = &cobra.Command{
	Use:   "pulseboard",
	Short: "Pulseboard is a self-hosted fitness tracking dashboard",
	Long:  `Pulseboard tracks workouts and body weight per user, computes training summaries and serves them through a JSON API with session authentication.`,
	Example: `pulseboard --config config.yml
  pulseboard -c /path/to/config.yml --log-level debug`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if rootCmdPersistentFlags.LogLevel != "" {
			setLogLevel(rootCmdPersistentFlags.LogLevel)
		}
		logToFile()
	},
	Run: root,
}

func loadConfig() (*config.Config, error) {
	return config.Load(rootCmdPersistentFlags.ConfigFile)
}

func root(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	st, err := newStore(cfg)
	if err != nil {
		log.Fatalf("failed to open record store: %v", err)
	}
	defer st.Close() //nolint:errcheck

	t := tracker.New(cfg, st)

	sched, err := scheduler.New()
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	if err := addJobs(sched, cfg, t); err != nil {
		log.Fatalf("failed to schedule jobs: %v", err)
	}
	sched.Start()
	defer sched.Stop() //nolint:errcheck

	server, err := api.New(ctx, cfg, t, sched)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	go func() {
		log.Info("starting API server", "listen", cfg.Listen)
		if err := server.Run(); err != nil {
			log.Error("API server error", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Info("pulseboard started successfully", "backend", cfg.Storage.Backend)
	<-c
	log.Info("shutting down gracefully...")

	cancel()
	time.Sleep(2 * time.Second)
}

func newStore(cfg *config.Config) (store.RecordStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendSQLite:
		return sqlitestore.New(cfg.Storage.SQLitePath)
	default:
		return jsonstore.New(cfg.Storage.DataDir)
	}
}

func addJobs(sched *scheduler.Scheduler, cfg *config.Config, t *tracker.Tracker) error {
	sweep := cfg.Cache.SweepIntervalDuration()
	return sched.AddJob(
		"snapshot-sweep",
		"Snapshot cache sweep",
		sweep.String(),
		gocron.DurationJob(sweep),
		func(_ context.Context) error {
			removed := t.PruneSnapshots()
			stats := t.GetCacheStats()
			log.Debug("swept snapshot caches",
				"removed", removed,
				"activityHits", stats.Activities.Hits,
				"activityMisses", stats.Activities.Misses,
				"weightHits", stats.Weights.Hits,
				"weightMisses", stats.Weights.Misses,
			)
			return nil
		},
	)
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Warnf("unknown log level %s, defaulting to info", level)
		log.SetLevel(log.InfoLevel)
	}
}

func logToFile() {
	if rootCmdPersistentFlags.LogFile == "" {
		return
	}
	file, err := os.OpenFile(rootCmdPersistentFlags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		log.Errorf("failed to open log file: %v", err)
		return
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.Info("logging to both console and file", "file", rootCmdPersistentFlags.LogFile)
}

func Execute() error {
	return rootCmd.Execute()
}
