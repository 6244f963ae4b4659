package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS mappings (
		code       TEXT PRIMARY KEY,
		long_url   TEXT NOT NULL,
		document   JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS mappings_long_url_idx ON mappings (long_url);
`

// postgresCodes maps SQLSTATE codes, or their two-character class, to classes.
var postgresCodes = map[string]Class{
	"08":    ClassTransient, // connection exception
	"53":    ClassTransient, // insufficient resources
	"57P01": ClassTransient, // admin shutdown
	"57P02": ClassTransient, // crash shutdown
	"57P03": ClassTransient, // cannot connect now
	"40001": ClassTransient, // serialization failure
	"40P01": ClassTransient, // deadlock detected
	"28":    ClassFatal,     // invalid authorization
	"3D000": ClassFatal,     // invalid catalog name
	"42501": ClassFatal,     // insufficient privilege
}

// ClassifyPostgres maps pgx errors to classes.
var ClassifyPostgres = TableClassifier(
	[]ErrorRule{
		{Err: pgx.ErrNoRows, Class: ClassNotFound},
	},
	classifyPgError,
)

func classifyPgError(err error) Class {
	if pgconn.Timeout(err) {
		return ClassTransient
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ClassUnknown
	}

	if class, ok := postgresCodes[pgErr.Code]; ok {
		return class
	}

	if len(pgErr.Code) >= 2 {
		if class, ok := postgresCodes[pgErr.Code[:2]]; ok {
			return class
		}
	}

	return ClassUnknown
}

// PostgresBackend returns a Backend storing documents in a JSONB table.
// The table is created on dial if it does not exist.
func PostgresBackend(databaseURL string) Backend {
	return Backend{
		Name: "postgres",
		Dial: func(ctx context.Context) (Session, error) {
			pool, err := pgxpool.New(ctx, databaseURL)
			if err != nil {
				return nil, err
			}

			if err = pool.Ping(ctx); err != nil {
				pool.Close()

				return nil, err
			}

			if _, err = pool.Exec(ctx, postgresSchema); err != nil {
				pool.Close()

				return nil, err
			}

			return NewPostgresSession(pool), nil
		},
		Classify: ClassifyPostgres,
	}
}

// PostgresSession is a Session on a pgx pool.
type PostgresSession struct {
	pool *pgxpool.Pool
}

// NewPostgresSession wraps pool. Closing the session closes the pool.
func NewPostgresSession(pool *pgxpool.Pool) *PostgresSession {
	return &PostgresSession{pool: pool}
}

func (p *PostgresSession) Lookup(ctx context.Context, longURL string) (Record, bool, error) {
	query := `
		SELECT code, document
		FROM mappings
		WHERE long_url = $1
		ORDER BY created_at, code
		LIMIT 1
	`

	var rec Record

	err := p.pool.QueryRow(ctx, query, longURL).Scan(&rec.Key, &rec.Document)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}

	if err != nil {
		return Record{}, false, err
	}

	return rec, true, nil
}

func (p *PostgresSession) Get(ctx context.Context, key string) (Document, error) {
	query := `
		SELECT document
		FROM mappings
		WHERE code = $1
	`

	var doc Document

	if err := p.pool.QueryRow(ctx, query, key).Scan(&doc); err != nil {
		return Document{}, err
	}

	return doc, nil
}

func (p *PostgresSession) Upsert(ctx context.Context, key string, doc Document) error {
	query := `
		INSERT INTO mappings (code, long_url, document, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE
		SET long_url = EXCLUDED.long_url, document = EXCLUDED.document
	`

	createdAt, err := time.Parse(time.RFC3339Nano, doc.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}

	_, err = p.pool.Exec(ctx, query, key, doc.LongURL, doc, createdAt)

	return err
}

func (p *PostgresSession) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresSession) Close() error {
	p.pool.Close()

	return nil
}
