package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/discochess/shardpile"
	"github.com/discochess/shardpile/internal/stats"
	"github.com/discochess/shardpile/internal/stats/logger"
	promstats "github.com/discochess/shardpile/internal/stats/prometheus"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	v   *viper.Viper
	out io.Writer

	logger    *zap.Logger
	collector stats.Collector
	registry  *prometheus.Registry
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}

	root := &cobra.Command{
		Use:   "shardpile",
		Short: "Hash-partitioned CSV stores",
		Long: `Shardpile splits tabular data into a fixed number of CSV shard files by
hashing a key column, so every row with the same key lands in the same
shard. Directories are compatible with pdpart.

Every flag can also be set through the environment as SHARDPILE_<FLAG>,
with dashes replaced by underscores, or in a .env file.

Examples:
  # Create a store with 200 gzip shards keyed on user_id
  shardpile init -d ./events --by user_id --partitions 200 --compression gzip

  # Load a CSV file into it in chunks
  shardpile append -d ./events events-2024.csv.gz

  # Reset and load in one go
  shardpile ingest -d ./events --by user_id https://example.com/events.csv.zst

  # Show shard balance
  shardpile stats -d ./events`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringP("dir", "d", "./data", "store directory")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Int("workers", 0, "shard files written in parallel (0 = default)")
	pf.String("metrics-out", "", "write Prometheus metrics to this textfile on exit")

	root.AddCommand(
		newInitCmd(a),
		newAppendCmd(a),
		newIngestCmd(a),
		newLsCmd(a),
		newStatsCmd(a),
		newVerifyCmd(a),
		newCatCmd(a),
		newPublishCmd(a),
	)
	return root
}

// setup loads .env files, binds flags and environment to viper and builds
// the logger and stats collector.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	a.v.SetEnvPrefix("shardpile")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if a.v.GetBool("verbose") {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	a.logger, err = cfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	if a.v.GetString("metrics-out") != "" {
		a.registry = prometheus.NewRegistry()
		a.collector = promstats.New(a.registry)
	} else {
		a.collector = logger.New(a.logger.Named("stats"))
	}
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if c, ok := a.collector.(*logger.Collector); ok {
		c.Summary()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if path := a.v.GetString("metrics-out"); path != "" && a.registry != nil {
		return promstats.WriteTextfile(path, a.registry)
	}
	return nil
}

// storeOptions returns the library options shared by every command.
func (a *app) storeOptions() []shardpile.Option {
	opts := []shardpile.Option{
		shardpile.WithLogger(a.logger.Named("shardpile")),
		shardpile.WithStats(a.collector),
	}
	if n := a.v.GetInt("workers"); n > 0 {
		opts = append(opts, shardpile.WithWorkers(n))
	}
	return opts
}

// openStore opens the store named by --dir, optionally overriding its key
// column with --by.
func (a *app) openStore() (*shardpile.Store, error) {
	opts := a.storeOptions()
	if by := a.v.GetString("by"); by != "" {
		opts = append(opts, shardpile.WithKeyColumn(by))
	}
	s, err := shardpile.Open(a.v.GetString("dir"), opts...)
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", a.v.GetString("dir"), err)
	}
	return s, nil
}
