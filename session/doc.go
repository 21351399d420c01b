/*
Package session owns the authenticated state of an EasyNote client: the bearer
token, the current user's profile and the persisted copy of the token.

A Store is the single writable cell. Service layers the login, register,
logout and profile operations on top of it, using an AuthAPI that talks to the
server through the request pipeline.

# Invariants

  - IsAuthenticated is true iff the token is non-empty, and is re-derived on
    every call.
  - The profile is never set while the token is empty.
  - Only Login and Register set a token. Invalidate only clears the token it
    was handed, so a stale response cannot undo a newer login.
  - Every clear publishes exactly one Event to subscribers.

# Persistence

The token is persisted through a TokenStorage under the single key "token".
MemoryStorage and FileStorage are provided here; package redisstore persists
to Redis.

	store, err := session.New(ctx,
	    session.WithStorage(session.NewFileStorage("/home/amy/.easynote/token")),
	)
*/
package session
