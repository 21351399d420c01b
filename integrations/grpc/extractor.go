package grpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/metadata"
)

// TokenExtractor extracts the session token from incoming gRPC metadata.
type TokenExtractor func(ctx context.Context) (string, error)

// Extractor errors
var (
	// ErrMultipleAuthHeaders indicates multiple authorization metadata entries were provided.
	ErrMultipleAuthHeaders = errors.New("multiple authorization metadata entries are not allowed")

	// ErrInvalidAuthFormat indicates the authorization metadata format is invalid.
	ErrInvalidAuthFormat = errors.New("invalid authorization metadata format, expected: Bearer <token>")
)

// MetadataTokenExtractor reads the token from the "authorization" metadata
// key. A missing key yields "" and no error.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	values := md.Get(authorizationKey)
	switch len(values) {
	case 0:
		return "", nil
	case 1:
	default:
		return "", ErrMultipleAuthHeaders
	}

	parts := strings.Fields(values[0])
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidAuthFormat
	}
	return parts[1], nil
}
