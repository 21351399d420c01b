package easynote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/easynote/easynote-go/router"
)

// ErrTokenMalformed is reported when a request offers a session token that
// cannot be read.
var ErrTokenMalformed = errors.New("session token malformed")

// ErrorHandler writes the response when the guard middleware cannot decide
// where a request belongs. err can be checked against ErrTokenMalformed,
// router.ErrNoRoute and router.ErrRedirectLoop.
// The default handler returns 400 for ErrTokenMalformed, 404 for
// router.ErrNoRoute and 500 for everything else.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is used when WithErrorHandler is not given.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, ErrTokenMalformed):
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Session token is malformed."}`))
	case errors.Is(err, router.ErrNoRoute):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Page not found."}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Something went wrong while routing the request."}`))
	}
}

// malformedError ties an extractor error to ErrTokenMalformed while keeping
// the original cause reachable.
type malformedError struct {
	details error
}

func (e malformedError) Is(target error) bool {
	return target == ErrTokenMalformed
}

func (e malformedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTokenMalformed, e.details)
}

func (e malformedError) Unwrap() error {
	return e.details
}
