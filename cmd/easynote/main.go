// Command easynote is a terminal client for the EasyNote bookkeeping
// service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/easynote/easynote-go"
	"github.com/easynote/easynote-go/core"
	"github.com/easynote/easynote-go/internal/config"
	"github.com/easynote/easynote-go/internal/telemetry"
	"github.com/easynote/easynote-go/session"
	"github.com/easynote/easynote-go/session/redisstore"
)

const usage = `usage: easynote [-env file] <command> [args]

commands:
  login <username> [password]
  register <username> <password> [nickname]
  logout
  whoami
  ledgers
  expenses <ledger-id> [page]
  incomes <ledger-id> [page]
  categories [income|expense]
  family
  cards
  messages [page]
  unread
  navigate <path>
  serve [-addr :8000] [-dir ./dist]
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app is everything a command needs.
type app struct {
	client   *easynote.Client
	registry *prometheus.Registry
	logger   *zap.Logger
	in       io.Reader
	out      io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("easynote", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { fmt.Fprint(stderr, usage) }
	envFile := flags.String("env", "", "load variables from this .env file")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "easynote: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "easynote: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	shutdown, err := telemetry.Setup(ctx, "easynote", cfg.OTLPEndpoint, cfg.OTLPInsecure)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	a, err := newApp(ctx, cfg, logger, stdin, stdout, stderr)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return 1
	}
	defer func() { _ = a.client.Close() }()

	err = a.dispatch(ctx, flags.Arg(0), flags.Args()[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "easynote: %v\n\n%s", err, usage)
		return 2
	default:
		// Pipeline failures were already shown by the notifier.
		if _, ok := core.AsFailure(err); !ok {
			fmt.Fprintf(stderr, "easynote: %v\n", err)
		}
		return 1
	}
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), lvl)), nil
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	storage, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	opts := []easynote.Option{
		easynote.WithBaseURL(cfg.APIBase),
		easynote.WithTimeout(cfg.Timeout),
		easynote.WithStorage(storage),
		easynote.WithLogger(easynote.NewZapLogger(logger.Sugar())),
		easynote.WithNotifier(easynote.NewConsoleNotifier(stderr)),
		easynote.WithPrompter(easynote.NewConsolePrompter(stdin, stderr)),
		easynote.WithMetrics(easynote.NewPrometheusMetrics(registry)),
	}
	if cfg.Trace {
		opts = append(opts,
			easynote.WithOTelTransport(true),
			easynote.WithTracer(easynote.NewOpenTelemetryTracer(otel.Tracer("easynote"))),
		)
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, easynote.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}

	client, err := easynote.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &app{client: client, registry: registry, logger: logger, in: stdin, out: stdout}, nil
}

func newStorage(cfg config.Config) (session.TokenStorage, error) {
	if cfg.RedisAddr == "" {
		return session.NewFileStorage(cfg.TokenFile), nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return redisstore.New(rdb, redisstore.WithPrefix(cfg.RedisPrefix), redisstore.WithTTL(cfg.RedisTTL))
}
