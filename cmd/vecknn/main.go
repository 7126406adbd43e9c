// Command vecknn tunes and evaluates a k-NN or ball classifier on a dataset.
//
// Usage:
//
//	vecknn [flags] <stem>[.in]
//
// The command reads `<stem>.cfg`, `<stem>.in` and `<stem>.test`, prints the
// error rate of each split and writes `<stem>.predic`. Flags override the
// cfg file. The stem may be a local path, s3://bucket/prefix/stem or
// minio://bucket/prefix/stem.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/vecknn"
	"github.com/hupe1980/vecknn/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const metricsNamespace = "vecknn"

var example = `# tune K in 3..7 on iris.in, 20% validation
vecknn iris

# ball classifier, radius swept from 0.1 to 2 in steps of 0.1
vecknn --ball --d 0.1..0.1..2 iris.in

# zstd compressed data in S3, JSON logs and a metrics file
vecknn --log-format json --metrics-file vecknn.prom s3://datasets/uci/iris.in.zst
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "vecknn <stem>[.in]",
		Short:        "Tune and evaluate a k-NN or ball classifier",
		Long:         "Tune K (or the ball radius D) on a validation split of <stem>.in, then report the error on the training, validation and test splits and write the test predictions to <stem>.predic.",
		Example:      example,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			return run(c.Context(), args[0], c.Flags(), out, errOut)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, arg string, fs *pflag.FlagSet, out, errOut io.Writer) (err error) {
	loc, err := parseLocation(arg)
	if err != nil {
		return err
	}
	mc, err := config.LoadMinio(fs)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, loc, mc)
	if err != nil {
		return err
	}
	stem, codec := vecknn.Stem(loc.name)

	cfg, err := vecknn.New(vecknn.WithStore(store)).LoadConfig(ctx, stem, fs)
	if err != nil {
		return err
	}

	logger, closer := newLogger(cfg, errOut)
	defer func() {
		err = errors.Join(err, closer.Close())
	}()

	opts := []vecknn.Option{
		vecknn.WithStore(store),
		vecknn.WithCodec(codec),
		vecknn.WithLogger(logger),
	}
	var metrics *vecknn.PrometheusCollector
	if cfg.MetricsFile != "" {
		metrics = vecknn.NewPrometheusCollector(metricsNamespace)
		opts = append(opts, vecknn.WithMetricsCollector(metrics))
	}

	report, err := vecknn.New(opts...).Run(ctx, stem, cfg)
	if metrics != nil {
		if werr := metrics.WriteToTextfile(cfg.MetricsFile); werr != nil {
			err = errors.Join(err, fmt.Errorf("write metrics: %w", werr))
		}
	}
	if err != nil {
		return err
	}

	_, err = report.WriteTo(out)
	return err
}

// newLogger builds the logger selected by the log_* settings. Logs go to
// errOut unless a log file is configured.
func newLogger(cfg *config.Config, errOut io.Writer) (*vecknn.Logger, io.Closer) {
	level := vecknn.ParseLevel(cfg.LogLevel)
	jsonFormat := cfg.LogFormat == "json"

	if cfg.LogFile != "" {
		return vecknn.NewFileLogger(vecknn.FileLoggerConfig{
			Filename: cfg.LogFile,
			JSON:     jsonFormat,
			Level:    level,
		})
	}

	opts := &slog.HandlerOptions{Level: level}
	if jsonFormat {
		return vecknn.NewLogger(slog.NewJSONHandler(errOut, opts)), nopCloser{}
	}
	return vecknn.NewLogger(slog.NewTextHandler(errOut, opts)), nopCloser{}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
