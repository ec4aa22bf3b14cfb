// Package pg provides PostgreSQL connection pooling, goose migrations and
// error classification helpers on top of pgx.
//
// Typical startup:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
// The error helpers (IsNotFoundError, IsDuplicateKeyError, ...) let stores
// translate driver errors into domain sentinels without leaking pgx types.
package pg
