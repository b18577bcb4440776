package pg

import (
	"io/fs"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending migration found in dir of fsys.
func Migrate(cfg Config, fsys fs.FS, dir string) error {
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return errors.Wrap(err, "open postgres")
	}
	defer db.Close()

	if err = goose.Up(db, dir); err != nil {
		return errors.Wrap(err, "goose up")
	}
	return nil
}

// MigrationStatus prints the applied/pending state of every migration.
func MigrationStatus(cfg Config, fsys fs.FS, dir string) error {
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.Status(db, dir)
}
