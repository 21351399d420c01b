package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const validToken = "good"

type fakeSession struct {
	mu          sync.Mutex
	token       string
	invalidated []string
}

func (s *fakeSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeSession) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *fakeSession) Invalidate(_ context.Context, token string, _ error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return false
	}
	s.token = ""
	s.invalidated = append(s.invalidated, token)
	return true
}

func (s *fakeSession) invalidations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.invalidated...)
}

// testServer runs the health service behind interceptors that only accept
// validToken, and records the authorization metadata of every call.
type testServer struct {
	mu     sync.Mutex
	seen   []string
	before func()
}

func (s *testServer) check(ctx context.Context) error {
	md, _ := metadata.FromIncomingContext(ctx)
	s.mu.Lock()
	s.seen = append(s.seen, md.Get(authorizationKey)...)
	before := s.before
	s.mu.Unlock()
	if before != nil {
		before()
	}

	token, err := MetadataTokenExtractor(ctx)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if token != validToken {
		return status.Error(codes.Unauthenticated, "token invalid")
	}
	return nil
}

func (s *testServer) headers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func newConn(t *testing.T, i *Interceptor) (*grpc.ClientConn, *testServer) {
	t.Helper()

	ts := &testServer{}
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			if err := ts.check(ctx); err != nil {
				return nil, err
			}
			return handler(ctx, req)
		}),
		grpc.StreamInterceptor(func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
			if err := ts.check(ss.Context()); err != nil {
				return err
			}
			return handler(srv, ss)
		}),
	)
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(i.UnaryClientInterceptor()),
		grpc.WithStreamInterceptor(i.StreamClientInterceptor()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, ts
}

func newHealthClient(t *testing.T, i *Interceptor) (healthpb.HealthClient, *testServer) {
	t.Helper()
	conn, ts := newConn(t, i)
	return healthpb.NewHealthClient(conn), ts
}

func newInterceptor(t *testing.T, s Session, opts ...Option) *Interceptor {
	t.Helper()
	i, err := New(append([]Option{WithSession(s)}, opts...)...)
	require.NoError(t, err)
	return i
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "missing session", wantErr: ErrSessionNil},
		{name: "nil session", opts: []Option{WithSession(nil)}, wantErr: ErrSessionNil},
		{name: "nil logger", opts: []Option{WithSession(&fakeSession{}), WithLogger(nil)}, wantErr: ErrLoggerNil},
		{name: "nil error handler", opts: []Option{WithSession(&fakeSession{}), WithErrorHandler(nil)}, wantErr: ErrErrorHandlerNil},
		{name: "valid", opts: []Option{WithSession(&fakeSession{}), WithExcludedMethods("/a/B")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, err := New(tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, i)
				return
			}
			require.NoError(t, err)
			assert.True(t, i.excludedMethods["/a/B"])
		})
	}
}

func TestUnaryClientInterceptor(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		s := &fakeSession{token: validToken}
		client, ts := newHealthClient(t, newInterceptor(t, s))

		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
		assert.Equal(t, []string{"Bearer good"}, ts.headers())
		assert.Equal(t, validToken, s.Token())
	})

	t.Run("rejected token clears the session", func(t *testing.T) {
		s := &fakeSession{token: "stale"}
		client, _ := newHealthClient(t, newInterceptor(t, s))

		_, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSessionRejected)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		assert.Equal(t, "", s.Token())
		assert.Equal(t, []string{"stale"}, s.invalidations())
	})

	t.Run("no token sends no metadata", func(t *testing.T) {
		s := &fakeSession{}
		client, ts := newHealthClient(t, newInterceptor(t, s))

		_, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		assert.ErrorIs(t, err, ErrSessionRejected)
		assert.Empty(t, ts.headers())
	})

	t.Run("newer session survives a late rejection", func(t *testing.T) {
		s := &fakeSession{token: "old"}
		client, ts := newHealthClient(t, newInterceptor(t, s))
		ts.mu.Lock()
		ts.before = func() { s.set("new") }
		ts.mu.Unlock()

		_, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		assert.ErrorIs(t, err, ErrSessionRejected)
		assert.Equal(t, "new", s.Token())
		assert.Empty(t, s.invalidations())
	})

	t.Run("excluded methods", func(t *testing.T) {
		s := &fakeSession{token: "stale"}
		client, ts := newHealthClient(t, newInterceptor(t, s, WithExcludedMethods(healthpb.Health_Check_FullMethodName)))

		_, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		assert.NotErrorIs(t, err, ErrSessionRejected)
		assert.Empty(t, ts.headers())
		assert.Equal(t, "stale", s.Token())
	})

	t.Run("other failures leave the session", func(t *testing.T) {
		s := &fakeSession{token: validToken}
		client, _ := newHealthClient(t, newInterceptor(t, s))

		_, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown"})
		assert.Equal(t, codes.NotFound, status.Code(err))
		assert.Equal(t, validToken, s.Token())
	})

	t.Run("custom error handler", func(t *testing.T) {
		s := &fakeSession{token: "stale"}
		custom := errors.New("please log in")
		client, _ := newHealthClient(t, newInterceptor(t, s, WithErrorHandler(func(error) error { return custom })))

		_, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		assert.ErrorIs(t, err, custom)
		assert.Equal(t, "", s.Token())
	})
}

func TestStreamClientInterceptor(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := &fakeSession{token: validToken}
		client, ts := newHealthClient(t, newInterceptor(t, s))

		stream, err := client.Watch(ctx, &healthpb.HealthCheckRequest{})
		require.NoError(t, err)
		resp, err := stream.Recv()
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
		assert.Equal(t, []string{"Bearer good"}, ts.headers())
	})

	t.Run("rejection on receive clears the session", func(t *testing.T) {
		ctx := context.Background()
		s := &fakeSession{token: "stale"}
		conn, _ := newConn(t, newInterceptor(t, s))

		stream, err := conn.NewStream(ctx, &healthpb.Health_ServiceDesc.Streams[0], healthpb.Health_Watch_FullMethodName)
		require.NoError(t, err)

		err = stream.RecvMsg(&healthpb.HealthCheckResponse{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSessionRejected)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		assert.Equal(t, []string{"stale"}, s.invalidations())
	})
}

func TestMetadataTokenExtractor(t *testing.T) {
	tests := []struct {
		name      string
		md        metadata.MD
		wantToken string
		wantErr   error
	}{
		{name: "no metadata"},
		{name: "no authorization", md: metadata.Pairs("x-request-id", "1")},
		{name: "bearer", md: metadata.Pairs("authorization", "Bearer abc"), wantToken: "abc"},
		{name: "lowercase scheme", md: metadata.Pairs("authorization", "bearer abc"), wantToken: "abc"},
		{name: "wrong scheme", md: metadata.Pairs("authorization", "Basic abc"), wantErr: ErrInvalidAuthFormat},
		{name: "no scheme", md: metadata.Pairs("authorization", "abc"), wantErr: ErrInvalidAuthFormat},
		{name: "two values", md: metadata.Pairs("authorization", "Bearer a", "authorization", "Bearer b"), wantErr: ErrMultipleAuthHeaders},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}

			token, err := MetadataTokenExtractor(ctx)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestDefaultErrorHandler(t *testing.T) {
	assert.NoError(t, DefaultErrorHandler(nil))

	other := status.Error(codes.Unavailable, "down")
	assert.Equal(t, other, DefaultErrorHandler(other))

	plain := errors.New("plain")
	assert.Equal(t, plain, DefaultErrorHandler(plain))

	rejected := DefaultErrorHandler(status.Error(codes.Unauthenticated, "token invalid"))
	assert.ErrorIs(t, rejected, ErrSessionRejected)
	assert.Equal(t, codes.Unauthenticated, status.Code(rejected))
	assert.Equal(t, "token invalid", status.Convert(rejected).Message())
	assert.Contains(t, rejected.Error(), "session rejected by server")
}
