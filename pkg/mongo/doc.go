// Package mongo wraps the official MongoDB Go driver (v2) with a retrying
// client constructor, an env-driven Config and a healthcheck closure.
//
// # Usage
//
//	var cfg mongo.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Extra driver options can be passed to New, e.g. the server monitor of
// mongostore which turns heartbeats into session store events.
package mongo
