// Package grpc carries an EasyNote session over gRPC.
//
// The client interceptors attach the session token as "authorization:
// Bearer <token>" metadata and treat an Unauthenticated status the way the
// HTTP pipeline treats a 401: the session is invalidated, provided it still
// holds the token the call was made with, and every subscriber of the
// session (the router among them) is told.
//
// # Basic Usage
//
//	interceptor, err := easynotegrpc.New(
//	    easynotegrpc.WithSession(client.Session()),
//	    easynotegrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	conn, err := grpc.NewClient(addr,
//	    grpc.WithTransportCredentials(creds),
//	    grpc.WithUnaryInterceptor(interceptor.UnaryClientInterceptor()),
//	    grpc.WithStreamInterceptor(interceptor.StreamClientInterceptor()),
//	)
//
// # Errors
//
// Rejections are returned wrapped so that both checks work:
//
//	if errors.Is(err, easynotegrpc.ErrSessionRejected) {
//	    // The session has already been cleared.
//	}
//	if status.Code(err) == codes.Unauthenticated {
//	    // Same condition, seen as a gRPC status.
//	}
//
// # Servers
//
// MetadataTokenExtractor reads the token back on the server side, for
// services that sit behind the same login.
package grpc
