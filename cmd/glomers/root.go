package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arya-analytics/glomers"
	"github.com/arya-analytics/glomers/transport/stdio"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logLevel      string
	retryInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "glomers",
	Short: "Cluster node speaking line-delimited JSON on stdin and stdout",
	Long: `Runs a single node of a simulated cluster. The node reads one JSON envelope
per line from stdin and writes its replies and outbound requests to stdout.
It answers the init handshake, generates cluster-wide unique ids and reliably
diffuses broadcast values to its neighbors. Logs are written to stderr.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         run,
}

// Execute runs the root command and exits non-zero if the node fails.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().DurationVar(&retryInterval, "retry-interval", 0, "time between retransmissions of unacknowledged requests")
}

func run(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := stdio.New(os.Stdin, os.Stdout, stdio.Config{Logger: logger.Named("stdio")})
	defer func() { _ = t.Close() }()

	n, err := glomers.Open(t, glomers.WithLogger(logger), glomers.WithRetryInterval(retryInterval))
	if err != nil {
		return err
	}
	logger.Info("node started")
	err = n.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		logger.Error("node failed", zap.Error(err))
		return err
	}
	logger.Info("node stopped")
	return nil
}

// newLogger builds a production logger that writes to stderr, leaving stdout
// to the protocol.
func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
