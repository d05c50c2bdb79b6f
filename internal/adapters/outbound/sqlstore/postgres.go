package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS bets (
	id             VARCHAR(64)      PRIMARY KEY,
	natural_key    VARCHAR(500)     NOT NULL UNIQUE,
	event_id       VARCHAR(100)     NOT NULL DEFAULT '',
	league         VARCHAR(100)     NOT NULL,
	team1          VARCHAR(200)     NOT NULL,
	team2          VARCHAR(200)     NOT NULL,
	start_time     VARCHAR(40)      NOT NULL,
	segment        INTEGER          NOT NULL,
	kind           VARCHAR(32)      NOT NULL,
	stat           VARCHAR(64)      NOT NULL DEFAULT '',
	line           DOUBLE PRECISION,
	side           VARCHAR(200)     NOT NULL,
	price          DOUBLE PRECISION NOT NULL,
	ev             DOUBLE PRECISION NOT NULL,
	edge           DOUBLE PRECISION NOT NULL,
	empirical_prob DOUBLE PRECISION NOT NULL,
	model_prob     DOUBLE PRECISION,
	implied_prob   DOUBLE PRECISION NOT NULL,
	method         VARCHAR(32)      NOT NULL,
	status         VARCHAR(16)      NOT NULL DEFAULT 'pending',
	result_value   DOUBLE PRECISION,
	created_at     VARCHAR(40)      NOT NULL,
	resolved_at    VARCHAR(40),
	metadata       TEXT             NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_bets_status ON bets(status);
CREATE INDEX IF NOT EXISTS idx_bets_created ON bets(created_at DESC);

CREATE TABLE IF NOT EXISTS name_aliases (
	source     VARCHAR(32)      NOT NULL,
	kind       VARCHAR(16)      NOT NULL,
	raw        VARCHAR(200)     NOT NULL,
	canonical  VARCHAR(200)     NOT NULL,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 1,
	updated_at VARCHAR(40)      NOT NULL,
	UNIQUE(source, kind, raw)
);

CREATE TABLE IF NOT EXISTS meta (
	key   VARCHAR(64) PRIMARY KEY,
	value BIGINT      NOT NULL
);

INSERT INTO meta (key, value) VALUES ('alias_version', 0) ON CONFLICT (key) DO NOTHING;
`

// OpenPostgres connects to dsn, checks the connection and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewPostgres(db)
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	telemetry.Infof("sqlstore: postgres ledger ready")
	return s, nil
}

// NewPostgres wraps an open Postgres handle without touching the schema.
func NewPostgres(db *sql.DB) *Store {
	return &Store{db: db, dialect: dialectPostgres}
}
