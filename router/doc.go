// Package router implements client-side navigation for EasyNote: the page
// table, the authentication guard applied on every navigation, and the
// redirect to the login page when the session ends.
//
// The guard reads only the session's authentication state:
//
//	r, err := router.New(router.WithAuthState(store))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Watch(store)()
//
//	target, err := r.Push(ctx, "/ledger")
//	// logged out: target.FullPath == "/login?redirect=/ledger"
package router
