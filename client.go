package easynote

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/easynote/easynote-go/api"
	"github.com/easynote/easynote-go/core"
	"github.com/easynote/easynote-go/router"
	"github.com/easynote/easynote-go/session"
)

// Client is an EasyNote session: one token store shared by the request
// pipeline, the resource bindings and the router.
type Client struct {
	store    *session.Store
	pipeline *core.Pipeline
	service  *session.Service
	router   *router.Router
	api      *api.Client
	logger   Logger
	metrics  Metrics

	unsubscribe []func()
}

// New creates a Client and hydrates its session from storage.
//
// Example:
//
//	client, err := easynote.New(ctx,
//	    easynote.WithBaseURL("https://easynote.example.com/api"),
//	    easynote.WithStorage(session.NewFileStorage(path)),
//	    easynote.WithNotifier(easynote.NewConsoleNotifier(os.Stderr)),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create client: %v", err)
//	}
//	defer client.Close()
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	cfg.applyDefaults()

	c := &Client{logger: cfg.logger, metrics: cfg.metrics}

	storeOpts := []session.Option{session.WithStorage(cfg.storage)}
	if cfg.logger != nil {
		storeOpts = append(storeOpts, session.WithLogger(cfg.logger))
	}
	store, err := session.New(ctx, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	c.store = store

	c.pipeline, err = core.New(cfg.pipelineOptions(store)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	c.api, err = api.New(c.pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	c.service, err = session.NewService(store, c.api.Users.Session())
	if err != nil {
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}

	c.router, err = router.New(cfg.routerOptions(store)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	c.unsubscribe = append(c.unsubscribe,
		store.Subscribe(c.sessionEnded),
		c.router.Watch(store),
	)
	c.recordAuthenticated()
	return c, nil
}

func (cfg *config) applyDefaults() {
	if cfg.storage == nil {
		cfg.storage = session.NewMemoryStorage()
	}
	if cfg.metrics == nil {
		cfg.metrics = &NoopMetrics{}
	}
	if cfg.tracer == nil {
		cfg.tracer = &NoopTracer{}
	}
}

func (cfg *config) pipelineOptions(store *session.Store) []core.Option {
	opts := []core.Option{
		core.WithSession(store),
		core.WithObserver(&instrumentation{metrics: cfg.metrics, tracer: cfg.tracer}),
	}
	if cfg.baseURL != "" {
		opts = append(opts, core.WithBaseURL(cfg.baseURL))
	}
	if client := cfg.client(); client != nil {
		opts = append(opts, core.WithHTTPClient(client))
	} else if cfg.timeout > 0 {
		opts = append(opts, core.WithTimeout(cfg.timeout))
	}
	if cfg.logger != nil {
		opts = append(opts, core.WithLogger(cfg.logger))
	}
	if cfg.notifier != nil {
		opts = append(opts, core.WithNotifier(cfg.notifier))
	}
	if cfg.prompter != nil {
		opts = append(opts, core.WithPrompter(cfg.prompter))
	}
	if cfg.messages != nil {
		opts = append(opts, core.WithMessages(*cfg.messages))
	}
	if cfg.limiter != nil {
		opts = append(opts, core.WithRateLimit(cfg.limiter))
	}
	return opts
}

// client returns the HTTP client to hand to the pipeline, or nil to let
// the pipeline build its own.
func (cfg *config) client() *http.Client {
	if !cfg.otelTransport {
		return cfg.httpClient
	}

	client := &http.Client{Timeout: core.DefaultTimeout}
	if cfg.timeout > 0 {
		client.Timeout = cfg.timeout
	}
	if cfg.httpClient != nil {
		copied := *cfg.httpClient
		client = &copied
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = otelhttp.NewTransport(base)
	return client
}

func (cfg *config) routerOptions(store *session.Store) []router.Option {
	opts := []router.Option{router.WithAuthState(store)}
	if cfg.routes != nil {
		opts = append(opts, router.WithRoutes(cfg.routes))
	}
	if cfg.titles != nil {
		opts = append(opts, router.WithTitleSetter(cfg.titles))
	}
	if cfg.logger != nil {
		opts = append(opts, router.WithLogger(cfg.logger))
	}
	for _, hook := range cfg.hooks {
		opts = append(opts, router.WithNavigationHook(hook))
	}
	return opts
}

// Session returns the session store.
func (c *Client) Session() *session.Store {
	return c.store
}

// Pipeline returns the request pipeline.
func (c *Client) Pipeline() *core.Pipeline {
	return c.pipeline
}

// API returns the resource bindings.
func (c *Client) API() *api.Client {
	return c.api
}

// Router returns the router.
func (c *Client) Router() *router.Router {
	return c.router
}

// Login authenticates and navigates to the page the login screen was
// opened for, or to the home page.
func (c *Client) Login(ctx context.Context, creds session.Credentials) error {
	if err := c.service.Login(ctx, creds); err != nil {
		return err
	}
	return c.afterLogin(ctx)
}

// Register creates an account, which also logs in.
func (c *Client) Register(ctx context.Context, r session.Registration) error {
	if err := c.service.Register(ctx, r); err != nil {
		return err
	}
	return c.afterLogin(ctx)
}

func (c *Client) afterLogin(ctx context.Context) error {
	c.recordAuthenticated()
	if c.store.Profile() == nil {
		if err := c.service.FetchProfile(ctx); err != nil && c.logger != nil {
			c.logger.Debug("continuing without profile", "error", err)
		}
	}
	_, err := c.router.Push(ctx, loginRedirect(c.router.Current()))
	return err
}

// loginRedirect picks the destination after a login. Only in-app paths
// are honored.
func loginRedirect(from router.Target) string {
	dest := from.Query().Get(router.RedirectParam)
	if !strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "//") {
		return router.DefaultHomePath
	}
	return dest
}

// Logout ends the session. The router follows to the login page.
func (c *Client) Logout(ctx context.Context) {
	c.service.Logout(ctx)
}

// FetchProfile refreshes the profile of the logged-in user.
func (c *Client) FetchProfile(ctx context.Context) error {
	return c.service.FetchProfile(ctx)
}

// Navigate moves the router to path.
func (c *Client) Navigate(ctx context.Context, path string) (router.Target, error) {
	return c.router.Push(ctx, path)
}

// Close waits for open prompts and stops listening to session events.
// Requests issued concurrently with or after Close no longer prompt for
// re-authentication.
func (c *Client) Close() error {
	c.pipeline.Close()
	for _, unsubscribe := range c.unsubscribe {
		unsubscribe()
	}
	c.unsubscribe = nil
	return nil
}

func (c *Client) sessionEnded(e session.Event) {
	c.metrics.IncCounter(MetricSessionEnded, map[string]string{"reason": string(e.Reason)})
	c.recordAuthenticated()
}

func (c *Client) recordAuthenticated() {
	v := 0.0
	if c.store.IsAuthenticated() {
		v = 1
	}
	c.metrics.SetGauge(MetricAuthenticated, v, map[string]string{})
}
