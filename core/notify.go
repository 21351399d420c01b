package core

import "context"

// Level is the severity of a Notification.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notification is a transient, non-blocking message for the user.
type Notification struct {
	Level   Level
	Message string
	Failure *Failure
}

// Notifier surfaces notifications. Implementations must not block on user
// interaction; the pipeline calls Notify before returning the failure.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Prompt is a confirmation dialog offering re-authentication.
type Prompt struct {
	Title   string
	Message string
	Confirm string
	Cancel  string
}

// Prompter asks the user to confirm a Prompt. Confirm may block until the
// user answers; the pipeline always calls it from its own goroutine.
type Prompter interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// PrompterFunc adapts a plain function to the Prompter interface.
type PrompterFunc func(ctx context.Context, p Prompt) (bool, error)

// Confirm calls f(ctx, p).
func (f PrompterFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// logNotifier is the default Notifier: it writes notifications to the logger.
type logNotifier struct {
	logger Logger
}

func (n logNotifier) Notify(_ context.Context, note Notification) {
	if n.logger == nil {
		return
	}
	n.logger.Warn("request failure", "level", note.Level, "message", note.Message)
}

// declinePrompter is the default Prompter. Without a way to ask the user,
// the session is never cleared on an application-level auth code.
type declinePrompter struct{}

func (declinePrompter) Confirm(context.Context, Prompt) (bool, error) { return false, nil }
