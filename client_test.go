package easynote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/easynote/easynote-go/core"
	"github.com/easynote/easynote-go/router"
	"github.com/easynote/easynote-go/session"
)

const (
	loginReply   = `{"success":true,"code":200,"msg":"ok","data":{"token":"abc","tokenType":"Bearer","userInfo":{"id":1,"username":"amy"}}}`
	ledgersReply = `{"success":true,"code":200,"data":[{"id":1,"name":"Home"}]}`
	expiredReply = `{"success":false,"code":2001,"message":"expired"}`
	okReply      = `{"success":true,"code":200,"data":null}`
)

type recordingNotifier struct {
	mu    sync.Mutex
	notes []core.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note core.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) all() []core.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]core.Notification(nil), n.notes...)
}

type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]int
	gauges   map[string]float64
	observed map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		counters: make(map[string]int),
		gauges:   make(map[string]float64),
		observed: make(map[string]int),
	}
}

func metricKey(name string, tags map[string]string) string {
	parts := []string{name}
	for _, k := range keys(tags) {
		parts = append(parts, k+"="+tags[k])
	}
	return strings.Join(parts, ",")
}

func (m *recordingMetrics) IncCounter(name string, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metricKey(name, tags)]++
}

func (m *recordingMetrics) ObserveHistogram(name string, _ float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed[metricKey(name, tags)]++
}

func (m *recordingMetrics) SetGauge(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[metricKey(name, tags)] = value
}

func (m *recordingMetrics) counter(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

func (m *recordingMetrics) gauge(key string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[key]
}

// apiServer serves canned envelopes by path and records the Authorization
// header of every request.
type apiServer struct {
	*httptest.Server

	mu      sync.Mutex
	replies map[string]string
	status  map[string]int
	auth    []string
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{
		replies: map[string]string{
			"/api/auth/login":  loginReply,
			"/api/auth/logout": okReply,
			"/api/ledger/my":   ledgersReply,
		},
		status: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.auth = append(s.auth, r.Header.Get("Authorization"))
		reply, ok := s.replies[r.URL.Path]
		status := s.status[r.URL.Path]
		s.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
		}
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) set(path string, status int, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[path] = reply
	s.status[path] = status
}

func (s *apiServer) lastAuth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.auth) == 0 {
		return ""
	}
	return s.auth[len(s.auth)-1]
}

func newClient(t *testing.T, server *apiServer, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithBaseURL(server.URL + "/api")}
	c, err := New(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func loggedIn(t *testing.T) *session.MemoryStorage {
	t.Helper()
	storage := session.NewMemoryStorage()
	require.NoError(t, storage.Save(context.Background(), "abc"))
	return storage
}

func TestNew_OptionsValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "defaults", opts: nil},
		{name: "empty base URL", opts: []Option{WithBaseURL("")}, wantErr: ErrBaseURLEmpty},
		{name: "bad base URL", opts: []Option{WithBaseURL("ftp://easynote")}, wantErr: core.ErrBaseURLBad},
		{name: "zero timeout", opts: []Option{WithTimeout(0)}, wantErr: ErrTimeoutBad},
		{name: "nil http client", opts: []Option{WithHTTPClient(nil)}, wantErr: ErrHTTPClientNil},
		{name: "nil storage", opts: []Option{WithStorage(nil)}, wantErr: ErrStorageNil},
		{name: "nil logger", opts: []Option{WithLogger(nil)}, wantErr: ErrLoggerNil},
		{name: "nil notifier", opts: []Option{WithNotifier(nil)}, wantErr: ErrNotifierNil},
		{name: "nil prompter", opts: []Option{WithPrompter(nil)}, wantErr: ErrPrompterNil},
		{name: "nil metrics", opts: []Option{WithMetrics(nil)}, wantErr: ErrMetricsNil},
		{name: "nil tracer", opts: []Option{WithTracer(nil)}, wantErr: ErrTracerNil},
		{name: "no routes", opts: []Option{WithRoutes(nil)}, wantErr: ErrRoutesEmpty},
		{name: "bad route", opts: []Option{WithRoutes([]router.Route{{Path: "home"}})}, wantErr: router.ErrRouteBad},
		{name: "nil limiter", opts: []Option{WithRateLimit(nil)}, wantErr: ErrLimiterNil},
		{name: "nil title setter", opts: []Option{WithTitleSetter(nil)}, wantErr: ErrTitleNil},
		{name: "nil hook", opts: []Option{WithNavigationHook(nil)}, wantErr: ErrHookNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(context.Background(), tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c.Session())
			assert.NotNil(t, c.Pipeline())
			assert.NotNil(t, c.API())
			assert.NotNil(t, c.Router())
			assert.Equal(t, core.DefaultBaseURL, c.Pipeline().BaseURL())
			require.NoError(t, c.Close())
		})
	}
}

func TestClient_Login(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	metrics := newRecordingMetrics()
	var titles []string
	c := newClient(t, server,
		WithMetrics(metrics),
		WithTitleSetter(router.TitleSetterFunc(func(title string) { titles = append(titles, title) })),
	)
	assert.Equal(t, 0.0, metrics.gauge(MetricAuthenticated))

	_, err := c.API().Ledgers.Mine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", server.lastAuth(), "no header without a token")

	require.NoError(t, c.Login(ctx, session.Credentials{Username: "amy", Password: "pw"}))

	assert.Equal(t, "abc", c.Session().Token())
	assert.True(t, c.Session().IsAuthenticated())
	assert.Equal(t, "amy", c.Session().Profile().Username)
	assert.Equal(t, router.DefaultHomePath, c.Router().Current().FullPath)
	assert.Equal(t, []string{"首页 - EasyNote"}, titles)
	assert.Equal(t, 1.0, metrics.gauge(MetricAuthenticated))

	env, err := c.API().Ledgers.Mine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Home", env.Data[0].Name)
	assert.Equal(t, "Bearer abc", server.lastAuth())

	assert.Equal(t, 2, metrics.counter(MetricRequests+",method=GET,outcome=success"))
	assert.Equal(t, 1, metrics.counter(MetricRequests+",method=POST,outcome=success"))
}

func TestClient_LoginReturnsToRequestedPage(t *testing.T) {
	ctx := context.Background()

	t.Run("in-app redirect", func(t *testing.T) {
		c := newClient(t, newAPIServer(t))

		target, err := c.Navigate(ctx, "/ledger/3")
		require.NoError(t, err)
		assert.Equal(t, "/login?redirect=/ledger/3", target.FullPath)

		require.NoError(t, c.Login(ctx, session.Credentials{Username: "amy", Password: "pw"}))
		assert.Equal(t, "/ledger/3", c.Router().Current().FullPath)
		assert.Equal(t, "3", c.Router().Current().Params["id"])
	})

	t.Run("foreign redirect goes home", func(t *testing.T) {
		c := newClient(t, newAPIServer(t))

		_, err := c.Navigate(ctx, "/login?redirect=//evil.example.com")
		require.NoError(t, err)

		require.NoError(t, c.Login(ctx, session.Credentials{}))
		assert.Equal(t, router.DefaultHomePath, c.Router().Current().FullPath)
	})
}

func TestClient_LoginFailure(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.set("/api/auth/login", http.StatusOK, `{"success":false,"code":400,"message":"wrong password"}`)
	notifier := &recordingNotifier{}
	c := newClient(t, server, WithNotifier(notifier))

	err := c.Login(ctx, session.Credentials{Username: "amy", Password: "nope"})
	assert.ErrorIs(t, err, core.ErrRequestFailed)
	assert.False(t, c.Session().IsAuthenticated())
	assert.Equal(t, "", c.Router().Current().FullPath, "no navigation on failure")

	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "wrong password", notes[0].Message)
}

func TestClient_AuthExpired(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.set("/api/ledger/my", http.StatusOK, expiredReply)

	storage := loggedIn(t)
	notifier := &recordingNotifier{}
	metrics := newRecordingMetrics()
	prompts := 0
	c := newClient(t, server,
		WithStorage(storage),
		WithNotifier(notifier),
		WithMetrics(metrics),
		WithPrompter(core.PrompterFunc(func(context.Context, core.Prompt) (bool, error) {
			prompts++
			return true, nil
		})),
	)
	_, err := c.Navigate(ctx, "/ledger")
	require.NoError(t, err)
	require.Equal(t, "/ledger", c.Router().Current().FullPath)

	_, err = c.API().Ledgers.Mine(ctx)
	require.ErrorIs(t, err, core.ErrAuthExpired)
	c.Pipeline().Wait()

	assert.Empty(t, notifier.all(), "no generic notification for an expired session")
	assert.Equal(t, 1, prompts)

	persisted, _ := storage.Load(ctx)
	assert.Equal(t, "", persisted)
	assert.False(t, c.Session().IsAuthenticated())
	assert.Equal(t, router.DefaultLoginPath, c.Router().Current().FullPath)

	assert.Equal(t, 1, metrics.counter(MetricRequests+",method=GET,outcome=auth_expired"))
	assert.Equal(t, 1, metrics.counter(MetricSessionEnded+",reason=invalidated"))
	assert.Equal(t, 0.0, metrics.gauge(MetricAuthenticated))
}

func TestClient_AuthExpiredDeclined(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.set("/api/ledger/my", http.StatusOK, expiredReply)

	c := newClient(t, server, WithStorage(loggedIn(t)))
	_, err := c.Navigate(ctx, "/ledger")
	require.NoError(t, err)

	_, err = c.API().Ledgers.Mine(ctx)
	require.ErrorIs(t, err, core.ErrAuthExpired)
	c.Pipeline().Wait()

	assert.True(t, c.Session().IsAuthenticated(), "the default prompter declines")
	assert.Equal(t, "/ledger", c.Router().Current().FullPath)
}

func TestClient_TransportUnauthorized(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.set("/api/ledger/my", http.StatusUnauthorized, `{"msg":"token invalid"}`)

	storage := loggedIn(t)
	notifier := &recordingNotifier{}
	c := newClient(t, server,
		WithStorage(storage),
		WithNotifier(notifier),
		WithPrompter(core.PrompterFunc(func(context.Context, core.Prompt) (bool, error) {
			t.Error("a transport 401 must not prompt")
			return false, nil
		})),
	)
	_, err := c.Navigate(ctx, "/expense")
	require.NoError(t, err)

	_, err = c.API().Ledgers.Mine(ctx)
	require.ErrorIs(t, err, core.ErrUnauthorized)

	persisted, _ := storage.Load(ctx)
	assert.Equal(t, "", persisted)
	assert.False(t, c.Session().IsAuthenticated())
	assert.Equal(t, router.DefaultLoginPath, c.Router().Current().FullPath)
	assert.Len(t, notifier.all(), 1)
}

func TestClient_Timeout(t *testing.T) {
	ctx := context.Background()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	notifier := &recordingNotifier{}
	c, err := New(ctx,
		WithBaseURL(server.URL+"/api"),
		WithTimeout(50*time.Millisecond),
		WithStorage(loggedIn(t)),
		WithNotifier(notifier),
	)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.API().Ledgers.Mine(ctx)
	require.ErrorIs(t, err, core.ErrTimeout)

	notes := notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "request timed out", notes[0].Message)
	assert.Equal(t, "abc", c.Session().Token())
	assert.True(t, c.Session().IsAuthenticated())
}

func TestClient_UnauthenticatedNavigation(t *testing.T) {
	c := newClient(t, newAPIServer(t))

	target, err := c.Navigate(context.Background(), "/ledger")
	require.NoError(t, err)
	assert.Equal(t, "/login?redirect=/ledger", target.FullPath)
	assert.Equal(t, "登录 - EasyNote", c.Router().Title())
}

func TestClient_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("logged in", func(t *testing.T) {
		server := newAPIServer(t)
		storage := loggedIn(t)
		metrics := newRecordingMetrics()
		c := newClient(t, server, WithStorage(storage), WithMetrics(metrics))
		_, err := c.Navigate(ctx, "/family")
		require.NoError(t, err)

		c.Logout(ctx)

		assert.Equal(t, "Bearer abc", server.lastAuth(), "logout is sent with the old token")
		assert.False(t, c.Session().IsAuthenticated())
		assert.Nil(t, c.Session().Profile())
		persisted, _ := storage.Load(ctx)
		assert.Equal(t, "", persisted)
		assert.Equal(t, router.DefaultLoginPath, c.Router().Current().FullPath)
		assert.Equal(t, 1, metrics.counter(MetricSessionEnded+",reason=logout"))
	})

	t.Run("already logged out", func(t *testing.T) {
		c := newClient(t, newAPIServer(t))

		assert.NotPanics(t, func() { c.Logout(ctx) })
		assert.Equal(t, "", c.Session().Token())
		assert.Nil(t, c.Session().Profile())
		assert.Equal(t, router.DefaultLoginPath, c.Router().Current().FullPath)
	})

	t.Run("remote failure still logs out", func(t *testing.T) {
		server := newAPIServer(t)
		server.set("/api/auth/logout", http.StatusInternalServerError, `{}`)
		c := newClient(t, server, WithStorage(loggedIn(t)))

		c.Logout(ctx)
		assert.False(t, c.Session().IsAuthenticated())
		assert.Equal(t, router.DefaultLoginPath, c.Router().Current().FullPath)
	})
}

func TestClient_FetchProfile(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.set("/api/user/current", http.StatusOK, `{"success":true,"code":200,"data":{"id":1,"username":"amy","nickname":"Amy"}}`)
	c := newClient(t, server, WithStorage(loggedIn(t)))

	require.NoError(t, c.FetchProfile(ctx))
	assert.Equal(t, "Amy", c.Session().Profile().DisplayName())
}

func TestClient_Close(t *testing.T) {
	ctx := context.Background()
	c := newClient(t, newAPIServer(t), WithStorage(loggedIn(t)))
	_, err := c.Navigate(ctx, "/income")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	c.Session().Clear(ctx, session.ReasonLogout)

	assert.Equal(t, "/income", c.Router().Current().FullPath, "closed clients stop following the session")
}

func TestClient_Tracing(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(ctx) }()

	server := newAPIServer(t)
	server.set("/api/ledger/my", http.StatusOK, expiredReply)
	c := newClient(t, server,
		WithStorage(loggedIn(t)),
		WithTracer(NewOpenTelemetryTracer(provider.Tracer("easynote"))),
		WithOTelTransport(true),
	)

	_, err := c.API().Ledgers.Mine(ctx)
	require.Error(t, err)
	c.Pipeline().Wait()

	var names []string
	var own sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
		if span.Name() == "GET /ledger/my" {
			own = span
		}
	}
	sort.Strings(names)
	require.NotNil(t, own, "spans: %v", names)

	attrs := map[string]string{}
	for _, kv := range own.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "GET", attrs["http.method"])
	assert.Equal(t, "auth_expired", attrs["easynote.outcome"])
	assert.Equal(t, "2001", attrs["easynote.code"])
	assert.Equal(t, "Error", own.Status().Code.String())
}

func TestLoginRedirect(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{from: "", want: "/home"},
		{from: "/login", want: "/home"},
		{from: "/login?redirect=/ledger/3", want: "/ledger/3"},
		{from: "/login?redirect=%2Fexpense%3Fpage%3D2", want: "/expense?page=2"},
		{from: "/login?redirect=https://evil.example.com", want: "/home"},
		{from: "/login?redirect=//evil.example.com", want: "/home"},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, loginRedirect(router.Target{FullPath: tt.from}))
		})
	}
}
