// Package pg provides helpers for PostgreSQL on top of the pgx/v5 driver:
// a retrying pool constructor, a healthcheck closure, goose migrations from
// an embedded filesystem and a "not found" error helper.
//
// Config fields are populated from the environment via pkg/config.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations, "migrations", slog.Default()); err != nil {
//	    log.Fatal(err)
//	}
//
// Use pg.Healthcheck(pool) as a readiness probe and pg.IsNotFoundError to
// map pgx.ErrNoRows to domain errors.
package pg
