package core

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is used when WithBaseURL is not given.
const DefaultBaseURL = "/api"

// DefaultTimeout bounds every request when neither WithTimeout nor
// WithHTTPClient is given.
const DefaultTimeout = 30 * time.Second

// Option is a function that configures the Pipeline.
// Options return errors to enable validation during construction.
type Option func(*config) error

type config struct {
	baseURL        string
	client         *http.Client
	timeout        time.Duration
	session        Session
	notifier       Notifier
	prompter       Prompter
	logger         Logger
	observer       Observer
	messages       Messages
	limiter        *rate.Limiter
	requestStages  []Stage
	responseStages []Stage
}

// Sentinel errors for configuration validation.
var (
	ErrSessionNil  = errors.New("session cannot be nil (use WithSession)")
	ErrBaseURLBad  = errors.New("base URL must be a path or an http(s) URL")
	ErrClientNil   = errors.New("http client cannot be nil")
	ErrTimeoutBad  = errors.New("timeout must be positive")
	ErrNotifierNil = errors.New("notifier cannot be nil")
	ErrPrompterNil = errors.New("prompter cannot be nil")
	ErrLoggerNil   = errors.New("logger cannot be nil")
	ErrObserverNil = errors.New("observer cannot be nil")
	ErrLimiterNil  = errors.New("rate limiter cannot be nil")
	ErrStageBad    = errors.New("stage must have a name and a function")
)

// New creates a Pipeline.
//
// WithSession is required. Everything else has a default: the base URL is
// DefaultBaseURL, requests time out after DefaultTimeout, notifications are
// written to the logger (or dropped without one) and re-authentication
// prompts are declined.
//
// Example:
//
//	pipeline, err := core.New(
//	    core.WithSession(store),
//	    core.WithBaseURL("https://easynote.example.com/api"),
//	    core.WithNotifier(notifier),
//	    core.WithPrompter(prompter),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Pipeline, error) {
	cfg := &config{
		baseURL:  DefaultBaseURL,
		timeout:  DefaultTimeout,
		messages: DefaultMessages(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if cfg.session == nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", ErrSessionNil)
	}

	client := cfg.client
	if client == nil {
		client = &http.Client{Timeout: cfg.timeout}
	}

	p := &Pipeline{
		baseURL:  strings.TrimSuffix(cfg.baseURL, "/"),
		client:   client,
		session:  cfg.session,
		notifier: cfg.notifier,
		prompter: cfg.prompter,
		logger:   cfg.logger,
		observer: cfg.observer,
		messages: cfg.messages.withDefaults(),
	}
	p.promptsDone = sync.NewCond(&p.promptMu)
	if p.notifier == nil {
		p.notifier = logNotifier{logger: cfg.logger}
	}
	if p.prompter == nil {
		p.prompter = declinePrompter{}
	}

	p.requestStages = []Stage{RequestIDStage(), BearerStage()}
	if cfg.limiter != nil {
		p.requestStages = append(p.requestStages, RateLimitStage(cfg.limiter))
	}
	p.requestStages = append(p.requestStages, cfg.requestStages...)

	p.responseStages = []Stage{p.transportStage(), p.decodeStage(), p.envelopeStage()}
	p.responseStages = append(p.responseStages, cfg.responseStages...)

	return p, nil
}

// WithSession sets the session whose token is attached to every request
// and which is invalidated on authentication failures. This is required.
func WithSession(s Session) Option {
	return func(c *config) error {
		if s == nil {
			return ErrSessionNil
		}
		c.session = s
		return nil
	}
}

// WithBaseURL sets the API base URL every path is appended to. A relative
// value such as "/api" is only useful with a custom transport.
//
// Default: "/api"
func WithBaseURL(raw string) Option {
	return func(c *config) error {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
			return ErrBaseURLBad
		}
		c.baseURL = raw
		return nil
	}
}

// WithHTTPClient sets the HTTP client. Its Timeout is the per-request
// upper bound; WithTimeout is ignored when this option is used.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		if client == nil {
			return ErrClientNil
		}
		c.client = client
		return nil
	}
}

// WithTimeout sets the per-request upper bound of the default client.
//
// Default: 30s
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return ErrTimeoutBad
		}
		c.timeout = d
		return nil
	}
}

// WithNotifier sets where failure notifications go.
func WithNotifier(n Notifier) Option {
	return func(c *config) error {
		if n == nil {
			return ErrNotifierNil
		}
		c.notifier = n
		return nil
	}
}

// WithPrompter sets who answers the session-expired prompt.
func WithPrompter(p Prompter) Option {
	return func(c *config) error {
		if p == nil {
			return ErrPrompterNil
		}
		c.prompter = p
		return nil
	}
}

// WithLogger sets an optional logger for the pipeline.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return ErrLoggerNil
		}
		c.logger = logger
		return nil
	}
}

// WithObserver sets a hook called around every request.
func WithObserver(o Observer) Option {
	return func(c *config) error {
		if o == nil {
			return ErrObserverNil
		}
		c.observer = o
		return nil
	}
}

// WithMessages overrides the user-facing texts. Empty fields keep their
// default.
func WithMessages(m Messages) Option {
	return func(c *config) error {
		c.messages = m
		return nil
	}
}

// WithRateLimit delays outgoing calls so that at most limiter's rate
// reaches the server. Waiting is not retrying: a call still runs once.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(c *config) error {
		if limiter == nil {
			return ErrLimiterNil
		}
		c.limiter = limiter
		return nil
	}
}

// WithRequestStages appends stages that run after the built-in request
// stages, just before the request is sent.
func WithRequestStages(stages ...Stage) Option {
	return func(c *config) error {
		for _, s := range stages {
			if s.Name == "" || s.Fn == nil {
				return ErrStageBad
			}
		}
		c.requestStages = append(c.requestStages, stages...)
		return nil
	}
}

// WithResponseStages appends stages that run after a call has been
// classified as successful.
func WithResponseStages(stages ...Stage) Option {
	return func(c *config) error {
		for _, s := range stages {
			if s.Name == "" || s.Fn == nil {
				return ErrStageBad
			}
		}
		c.responseStages = append(c.responseStages, stages...)
		return nil
	}
}
