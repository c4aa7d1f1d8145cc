// Package session provides signed-cookie HTTP sessions with pluggable
// storage back-ends.
//
// A session is an opaque id carried in a signed cookie plus a server-side
// Record holding the cookie policy and an arbitrary JSON-serializable
// payload. The Manager decides per request whether that record has to be
// created, restored, saved, touched or destroyed, and whether the cookie has
// to be (re)issued.
//
// # Architecture
//
//	┌────────┐  signed id  ┌───────────┐  Get/Set/Touch/Destroy  ┌───────┐
//	│ Client │ ──────────► │  Manager  │ ──────────────────────► │ Store │
//	└────────┘             └───────────┘                         └───────┘
//	                             │
//	                             ▼ *Session (request context)
//	                        your handler
//
// Before the handler runs the Manager verifies the cookie against every
// configured secret and loads the stored Snapshot. Unknown, invalid or
// unloadable ids get a freshly generated session. After the handler returns
// the Manager compares a content hash of the payload with the state it
// started from:
//
//   - a modified or never-saved session is written with Store.Set
//   - an unmodified, already stored session is refreshed with Toucher.Touch
//   - an unset session is removed when the unset mode is UnsetDestroy
//
// The cookie is written just before the response header when the session is
// new (and saveUninitialized is on, or it was modified), when rolling is on,
// or when a persistent session was modified.
//
// # Failure handling
//
// Session handling fails open: a disconnected store, a missing secret or a
// failed lookup serve the request without (or with a fresh) session. Store
// errors at the end of the request are returned by Handle and reported
// through the ErrorHandler by Middleware. A handler error or panic skips the
// end-of-request save.
//
// # Usage
//
//	mgr, err := session.New(
//	    session.WithSecrets(os.Getenv("SESSION_SECRET")),
//	    session.WithStore(redisstore.New(client)),
//	    session.WithCookie(session.CookieOptions{
//	        Path:     "/",
//	        HTTPOnly: true,
//	        Secure:   session.SecureAuto,
//	        SameSite: http.SameSiteLaxMode,
//	        MaxAge:   24 * time.Hour,
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mux.Handle("/", mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    sess := session.MustFromContext(r.Context())
//	    views, _ := sess.GetInt("views")
//	    sess.Set("views", views+1)
//	})))
//
// # Stores
//
// MemoryStore is a reference implementation for development and tests.
// Production back-ends live in sub-packages: redisstore, pgstore, mongostore
// and boltstore. A Store reports a missing session as (nil, nil) or as an
// error satisfying IsNotFound. Stores implementing EventSource pause session
// handling while disconnected.
//
// # Configuration
//
// Config can be populated from SESSION_* environment variables with
// pkg/config and turned into a Manager with NewFromConfig.
package session
