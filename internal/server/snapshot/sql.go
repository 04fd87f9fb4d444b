package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/dmitrijs2005/medchat/internal/dbx"
	"github.com/dmitrijs2005/medchat/internal/server/snapshot/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

var (
	gooseUpContext = goose.UpContext

	// goose keeps its base FS and dialect in package globals.
	migrateMu sync.Mutex
)

// SQLStore keeps snapshots in the snapshots table of a SQLite or Postgres database.
type SQLStore struct {
	db      *sql.DB
	dialect dbx.Dialect
}

// NewSQLStore wraps an open database. The schema must already exist; see Migrate.
func NewSQLStore(db *sql.DB, dialect dbx.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// OpenSQLite opens (creating if needed) the database file at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between concurrent saves
	db.SetMaxOpenConns(1)

	return openSQL(ctx, db, dbx.DialectSQLite)
}

// OpenPostgres connects through pgx and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	return openSQL(ctx, db, dbx.DialectPostgres)
}

func openSQL(ctx context.Context, db *sql.DB, dialect dbx.Dialect) (*SQLStore, error) {
	s := NewSQLStore(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return s, nil
}

// Migrate applies the embedded migrations for the store's dialect.
func (s *SQLStore) Migrate(ctx context.Context) error {
	dir := "sqlite"
	if s.dialect == dbx.DialectPostgres {
		dir = "postgres"
	}
	sub, err := fs.Sub(migrations.Migrations, dir)
	if err != nil {
		return err
	}

	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(sub)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(s.dialect)); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return gooseUpContext(ctx, s.db, ".")
}

func (s *SQLStore) Load(ctx context.Context, name string) ([]byte, error) {
	query := "SELECT data FROM snapshots WHERE name = " + s.dialect.Placeholder(1)

	var data []byte
	err := s.db.QueryRowContext(ctx, query, name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return data, nil
}

func (s *SQLStore) Save(ctx context.Context, name string, data []byte) error {
	del := "DELETE FROM snapshots WHERE name = " + s.dialect.Placeholder(1)
	ins := "INSERT INTO snapshots (name, data) VALUES (" +
		s.dialect.Placeholder(1) + ", " + s.dialect.Placeholder(2) + ")"

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, del, name); err != nil {
			return fmt.Errorf("delete snapshot %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, ins, name, data); err != nil {
			return fmt.Errorf("insert snapshot %s: %w", name, err)
		}
		return nil
	})
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
