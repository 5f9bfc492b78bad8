// Package database opens the SQLite file backing the controller registry
// and applies the embedded migrations.
//
//	db, err := database.Open(cfg.Database)
//	...
//	err = db.Migrate(ctx, migrations.FS)
package database
