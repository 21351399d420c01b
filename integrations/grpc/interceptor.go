package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const authorizationKey = "authorization"

// Interceptor attaches the session token to outgoing gRPC calls.
type Interceptor struct {
	session         Session
	errorHandler    ErrorHandler
	excludedMethods map[string]bool
	logger          Logger
}

// New creates an Interceptor. WithSession is required.
func New(opts ...Option) (*Interceptor, error) {
	i := &Interceptor{
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if i.session == nil {
		return nil, fmt.Errorf("invalid interceptor configuration: %w", ErrSessionNil)
	}
	return i, nil
}

// UnaryClientInterceptor returns a grpc.UnaryClientInterceptor that sends
// the session token.
func (i *Interceptor) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		if i.excludedMethods[method] {
			return invoker(ctx, method, req, reply, cc, opts...)
		}

		ctx, token := i.attach(ctx, method)
		err := invoker(ctx, method, req, reply, cc, opts...)
		return i.handle(ctx, method, token, err)
	}
}

// StreamClientInterceptor returns a grpc.StreamClientInterceptor that
// sends the session token. A rejection can arrive when the stream opens or
// on any later receive.
func (i *Interceptor) StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		if i.excludedMethods[method] {
			return streamer(ctx, desc, cc, method, opts...)
		}

		ctx, token := i.attach(ctx, method)
		stream, err := streamer(ctx, desc, cc, method, opts...)
		if err != nil {
			return nil, i.handle(ctx, method, token, err)
		}
		return &wrappedClientStream{ClientStream: stream, interceptor: i, method: method, token: token}, nil
	}
}

// attach adds the bearer to ctx and returns the token it used.
func (i *Interceptor) attach(ctx context.Context, method string) (context.Context, string) {
	token := i.session.Token()
	if token == "" {
		if i.logger != nil {
			i.logger.Debug("calling without credentials", "method", method)
		}
		return ctx, ""
	}
	return metadata.AppendToOutgoingContext(ctx, authorizationKey, "Bearer "+token), token
}

func (i *Interceptor) handle(ctx context.Context, method, token string, err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Unauthenticated {
		if i.session.Invalidate(context.WithoutCancel(ctx), token, err) && i.logger != nil {
			i.logger.Info("session cleared after unauthenticated response", "method", method)
		}
	}
	return i.errorHandler(err)
}

// wrappedClientStream checks every receive for a rejection.
type wrappedClientStream struct {
	grpc.ClientStream
	interceptor *Interceptor
	method      string
	token       string
}

func (w *wrappedClientStream) RecvMsg(m any) error {
	err := w.ClientStream.RecvMsg(m)
	if err == nil || status.Code(err) != codes.Unauthenticated {
		return err
	}
	return w.interceptor.handle(w.Context(), w.method, w.token, err)
}
