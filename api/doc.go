// Package api contains the EasyNote resource bindings. Every method is a
// fixed HTTP method and path over a core.Executor; failures have already
// been reported to the user by the pipeline when they are returned.
//
//	c, err := api.New(pipeline)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ledgers, err := c.Ledgers.Mine(ctx)
package api
