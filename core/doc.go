/*
Package core provides the request pipeline of the EasyNote client: the single
entry point for server communication.

# Architecture

Every call flows through an explicit, ordered list of stages:

	┌──────────────────────────────────────────────┐
	│  Request stages                              │
	│  request_id → bearer → (rate_limit) → custom │
	└────────────────┬─────────────────────────────┘
	                 │  http.Client.Do (bounded by Timeout)
	                 ▼
	┌──────────────────────────────────────────────┐
	│  Response stages                             │
	│  transport → decode → envelope → custom      │
	└────────────────┬─────────────────────────────┘
	                 │  first error short-circuits
	                 ▼
	┌──────────────────────────────────────────────┐
	│  Failure report (exactly one of)             │
	│  • re-authentication prompt  (auth codes)    │
	│  • notification              (everything else)│
	└──────────────────────────────────────────────┘

# Basic Usage

	pipeline, err := core.New(
	    core.WithSession(store),
	    core.WithBaseURL("https://easynote.example.com/api"),
	    core.WithNotifier(notifier),
	    core.WithPrompter(prompter),
	)
	if err != nil {
	    log.Fatal(err)
	}

	env, err := core.Get[[]Ledger](ctx, pipeline, "/ledger/my", nil)
	if err != nil {
	    // Already shown to the user; branch on the kind if needed.
	    if errors.Is(err, core.ErrAuthExpired) {
	        return
	    }
	}
	fmt.Println(len(env.Data))

# Failure Taxonomy

	Envelope success=false, code ∈ {401,2001,2002,2003}  ErrAuthExpired   prompt, then clear on confirm
	Envelope success=false, any other code               ErrRequestFailed notification
	Envelope without a success field                     none             treated as success
	HTTP 401                                             ErrUnauthorized  clear immediately + notification
	HTTP 403 / 404 / 500 / other non-2xx                 ErrForbidden, ErrNotFound, ErrServerError, ErrHTTPStatus
	No response, deadline reached                        ErrTimeout
	No response, connection failed or broke off          ErrNetwork
	No response, anything else                           ErrUnknown
	Caller canceled the context                          ErrCanceled      no notification
	2xx body that is not an envelope                     ErrMalformed

Clearing the session always compares against the token the failed call
sent, so a response that arrives after a logout or a fresh login never
touches the newer session.
*/
package core
