package core

import "fmt"

// Messages holds every user-facing text the pipeline produces.
type Messages struct {
	RequestFailed string
	Unauthorized  string
	Forbidden     string
	NotFound      string
	ServerError   string
	// StatusFailed is a format string receiving the numeric status.
	StatusFailed string
	Timeout      string
	Network      string
	Unknown      string
	Malformed    string

	SessionExpired Prompt
}

// DefaultMessages returns the stock English texts.
func DefaultMessages() Messages {
	return Messages{
		RequestFailed: "request failed",
		Unauthorized:  "unauthorized, please log in again",
		Forbidden:     "access denied",
		NotFound:      "requested address does not exist",
		ServerError:   "internal server error",
		StatusFailed:  "request failed (%d)",
		Timeout:       "request timed out",
		Network:       "network connection failed",
		Unknown:       "network error, please try again later",
		Malformed:     "unexpected response from server",
		SessionExpired: Prompt{
			Title:   "Notice",
			Message: "Your session has expired, please log in again.",
			Confirm: "Log in again",
			Cancel:  "Cancel",
		},
	}
}

// withDefaults fills empty fields from DefaultMessages so a partially
// customised set never yields blank notifications.
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&m.RequestFailed, d.RequestFailed)
	fill(&m.Unauthorized, d.Unauthorized)
	fill(&m.Forbidden, d.Forbidden)
	fill(&m.NotFound, d.NotFound)
	fill(&m.ServerError, d.ServerError)
	fill(&m.StatusFailed, d.StatusFailed)
	fill(&m.Timeout, d.Timeout)
	fill(&m.Network, d.Network)
	fill(&m.Unknown, d.Unknown)
	fill(&m.Malformed, d.Malformed)
	fill(&m.SessionExpired.Title, d.SessionExpired.Title)
	fill(&m.SessionExpired.Message, d.SessionExpired.Message)
	fill(&m.SessionExpired.Confirm, d.SessionExpired.Confirm)
	fill(&m.SessionExpired.Cancel, d.SessionExpired.Cancel)
	return m
}

func (m Messages) status(code int) string {
	return fmt.Sprintf(m.StatusFailed, code)
}
