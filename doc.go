/*
Package easynote is a client for the EasyNote family finance API.

A Client owns one session and shares it between three parts:

  - the request pipeline (package core), which attaches the token to every
    call, unwraps the response envelope and classifies failures;
  - the resource bindings (package api), one method per endpoint;
  - the router (package router), which decides which page a visitor may
    see and follows the session back to the login page when it ends.

The session itself lives in package session. Nothing in this module keeps
global state: every Client is independent.

# Quick Start

	ctx := context.Background()
	client, err := easynote.New(ctx,
	    easynote.WithBaseURL("https://easynote.example.com/api"),
	    easynote.WithStorage(session.NewFileStorage(tokenPath)),
	    easynote.WithNotifier(easynote.NewConsoleNotifier(os.Stderr)),
	    easynote.WithPrompter(easynote.NewConsolePrompter(os.Stdin, os.Stderr)),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer client.Close()

	if err := client.Login(ctx, session.Credentials{Username: "amy", Password: pw}); err != nil {
	    log.Fatal(err)
	}

	ledgers, err := client.API().Ledgers.Mine(ctx)
	if err != nil {
	    // The user has already been notified; err is a *core.Failure.
	    return
	}
	for _, l := range ledgers.Data {
	    fmt.Println(l.Name)
	}

# Failures

Every failed call is reported once through the Notifier and then returned.
Use errors.Is against the core sentinels to branch on the kind:

	_, err := client.API().Expenses.Delete(ctx, id)
	switch {
	case errors.Is(err, core.ErrAuthExpired):
	    // A re-authentication prompt is open; the session is cleared only
	    // if the user confirms.
	case errors.Is(err, core.ErrUnauthorized):
	    // The session is already cleared and the router is on /login.
	case errors.Is(err, core.ErrTimeout):
	    // The session is untouched.
	}

# Session Lifecycle

Login and Register establish the session and navigate to the page the
login screen was opened for. Logout always ends the session locally, even
when the server cannot be reached. An invalidated session publishes a
session.Event; the router and the session metrics are subscribers.

# Serving the Front-End

GuardMiddleware applies the same route table on the server that hosts the
single-page front-end, so deep links are redirected before a page loads:

	guard, err := easynote.NewGuardMiddleware(
	    easynote.WithResolver(client.Router()),
	    easynote.WithExclusionURLs([]string{"/assets/", "/favicon.ico"}),
	)
	if err != nil {
	    log.Fatal(err)
	}
	http.ListenAndServe(":8080", guard.CheckRoute(spa))

Adapters for gin and echo live in framework/gin and framework/echo.

# Logging

WithLogger accepts any logger with slog-style methods, including
*slog.Logger. Adapters exist for zap, zerolog and logrus:

	client, err := easynote.New(ctx, easynote.WithLogger(easynote.NewZapLogger(zapLogger.Sugar())))

# Metrics and Tracing

WithMetrics and WithTracer receive one counter increment, one duration
observation and one span per API call. NewPrometheusMetrics and
NewOpenTelemetryTracer provide ready implementations. The session gauge
easynote_session_authenticated is 1 while logged in.
*/
package easynote
