package session

import (
	"errors"
	"time"
)

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Option configures a Store.
type Option func(*Store) error

// Sentinel errors for configuration validation.
var (
	ErrStorageNil = errors.New("token storage cannot be nil")
	ErrLoggerNil  = errors.New("logger cannot be nil")
	ErrClockNil   = errors.New("clock cannot be nil")
	ErrStoreNil   = errors.New("session store cannot be nil")
	ErrAuthAPINil = errors.New("auth API cannot be nil")
)

// WithStorage sets where the token is persisted.
//
// Default: a MemoryStorage
func WithStorage(storage TokenStorage) Option {
	return func(s *Store) error {
		if storage == nil {
			return ErrStorageNil
		}
		s.storage = storage
		return nil
	}
}

// WithLogger sets an optional logger for the store.
func WithLogger(logger Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return ErrLoggerNil
		}
		s.logger = logger
		return nil
	}
}

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(s *Store) error {
		if now == nil {
			return ErrClockNil
		}
		s.now = now
		return nil
	}
}
