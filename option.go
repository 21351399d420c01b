package easynote

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/easynote/easynote-go/core"
	"github.com/easynote/easynote-go/router"
	"github.com/easynote/easynote-go/session"
)

// Option configures a Client.
// Returns error for validation failures.
type Option func(*config) error

type config struct {
	baseURL       string
	timeout       time.Duration
	httpClient    *http.Client
	otelTransport bool
	storage       session.TokenStorage
	logger        Logger
	notifier      core.Notifier
	prompter      core.Prompter
	metrics       Metrics
	tracer        Tracer
	routes        []router.Route
	limiter       *rate.Limiter
	messages      *core.Messages
	titles        router.TitleSetter
	hooks         []func(from, to router.Target)
}

// Sentinel errors for configuration validation
var (
	ErrBaseURLEmpty  = errors.New("base URL cannot be empty")
	ErrTimeoutBad    = errors.New("timeout must be positive")
	ErrHTTPClientNil = errors.New("http client cannot be nil")
	ErrStorageNil    = errors.New("token storage cannot be nil")
	ErrLoggerNil     = errors.New("logger cannot be nil")
	ErrNotifierNil   = errors.New("notifier cannot be nil")
	ErrPrompterNil   = errors.New("prompter cannot be nil")
	ErrMetricsNil    = errors.New("metrics cannot be nil")
	ErrTracerNil     = errors.New("tracer cannot be nil")
	ErrRoutesEmpty   = errors.New("routes cannot be empty")
	ErrLimiterNil    = errors.New("rate limiter cannot be nil")
	ErrTitleNil      = errors.New("title setter cannot be nil")
	ErrHookNil       = errors.New("navigation hook cannot be nil")
	ErrClockNil      = errors.New("clock cannot be nil")
)

// WithBaseURL sets the API base URL, e.g. "https://easynote.example.com/api".
//
// Default: core.DefaultBaseURL
func WithBaseURL(baseURL string) Option {
	return func(c *config) error {
		if baseURL == "" {
			return ErrBaseURLEmpty
		}
		c.baseURL = baseURL
		return nil
	}
}

// WithTimeout bounds every request. Ignored when WithHTTPClient is used.
//
// Default: core.DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return ErrTimeoutBad
		}
		c.timeout = d
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for every API call.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		if client == nil {
			return ErrHTTPClientNil
		}
		c.httpClient = client
		return nil
	}
}

// WithOTelTransport wraps the HTTP transport with otelhttp. The transport
// uses the global OpenTelemetry tracer provider and propagator.
//
// Default: false
func WithOTelTransport(enabled bool) Option {
	return func(c *config) error {
		c.otelTransport = enabled
		return nil
	}
}

// WithStorage sets where the token survives restarts, e.g. a
// session.FileStorage or a redisstore.Storage.
//
// Default: session.NewMemoryStorage()
func WithStorage(storage session.TokenStorage) Option {
	return func(c *config) error {
		if storage == nil {
			return ErrStorageNil
		}
		c.storage = storage
		return nil
	}
}

// WithLogger sets an optional logger shared by every component.
//
// Example:
//
//	client, err := easynote.New(ctx,
//	    easynote.WithBaseURL("https://easynote.example.com/api"),
//	    easynote.WithLogger(slog.Default()),
//	)
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return ErrLoggerNil
		}
		c.logger = logger
		return nil
	}
}

// WithNotifier sets where failure notifications go.
//
// Default: notifications are logged
func WithNotifier(n core.Notifier) Option {
	return func(c *config) error {
		if n == nil {
			return ErrNotifierNil
		}
		c.notifier = n
		return nil
	}
}

// WithPrompter sets who answers the session-expired prompt.
//
// Default: the prompt is declined
func WithPrompter(p core.Prompter) Option {
	return func(c *config) error {
		if p == nil {
			return ErrPrompterNil
		}
		c.prompter = p
		return nil
	}
}

// WithMetrics sets the metrics sink.
//
// Default: NoopMetrics
func WithMetrics(m Metrics) Option {
	return func(c *config) error {
		if m == nil {
			return ErrMetricsNil
		}
		c.metrics = m
		return nil
	}
}

// WithTracer sets the tracer opening one span per API call.
//
// Default: NoopTracer
func WithTracer(t Tracer) Option {
	return func(c *config) error {
		if t == nil {
			return ErrTracerNil
		}
		c.tracer = t
		return nil
	}
}

// WithRoutes replaces the page table.
//
// Default: router.DefaultRoutes()
func WithRoutes(routes []router.Route) Option {
	return func(c *config) error {
		if len(routes) == 0 {
			return ErrRoutesEmpty
		}
		c.routes = routes
		return nil
	}
}

// WithRateLimit delays calls so that at most limiter's rate reaches the
// server.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(c *config) error {
		if limiter == nil {
			return ErrLimiterNil
		}
		c.limiter = limiter
		return nil
	}
}

// WithMessages overrides the user-facing texts of the pipeline.
func WithMessages(m core.Messages) Option {
	return func(c *config) error {
		c.messages = &m
		return nil
	}
}

// WithTitleSetter receives the page title on every navigation.
func WithTitleSetter(t router.TitleSetter) Option {
	return func(c *config) error {
		if t == nil {
			return ErrTitleNil
		}
		c.titles = t
		return nil
	}
}

// WithNavigationHook adds a function called after every navigation.
func WithNavigationHook(fn func(from, to router.Target)) Option {
	return func(c *config) error {
		if fn == nil {
			return ErrHookNil
		}
		c.hooks = append(c.hooks, fn)
		return nil
	}
}
