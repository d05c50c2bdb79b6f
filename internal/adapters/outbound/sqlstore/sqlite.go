package sqlstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charleschow/lol-valuebets/internal/telemetry"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS bets (
	id             TEXT    PRIMARY KEY,
	natural_key    TEXT    NOT NULL UNIQUE,
	event_id       TEXT    NOT NULL DEFAULT '',
	league         TEXT    NOT NULL,
	team1          TEXT    NOT NULL,
	team2          TEXT    NOT NULL,
	start_time     TEXT    NOT NULL,
	segment        INTEGER NOT NULL,
	kind           TEXT    NOT NULL,
	stat           TEXT    NOT NULL DEFAULT '',
	line           REAL,
	side           TEXT    NOT NULL,
	price          REAL    NOT NULL,
	ev             REAL    NOT NULL,
	edge           REAL    NOT NULL,
	empirical_prob REAL    NOT NULL,
	model_prob     REAL,
	implied_prob   REAL    NOT NULL,
	method         TEXT    NOT NULL,
	status         TEXT    NOT NULL DEFAULT 'pending',
	result_value   REAL,
	created_at     TEXT    NOT NULL,
	resolved_at    TEXT,
	metadata       TEXT    NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_bets_status ON bets(status);
CREATE INDEX IF NOT EXISTS idx_bets_created ON bets(created_at);

CREATE TABLE IF NOT EXISTS name_aliases (
	source     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	raw        TEXT NOT NULL,
	canonical  TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 1,
	updated_at TEXT NOT NULL,
	UNIQUE(source, kind, raw)
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT    PRIMARY KEY,
	value INTEGER NOT NULL
);

INSERT INTO meta (key, value) VALUES ('alias_version', 0) ON CONFLICT (key) DO NOTHING;
`

// OpenSQLite opens (creating if needed) the ledger database at path.
func OpenSQLite(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	var rows int64
	db.QueryRow(`SELECT COUNT(*) FROM bets`).Scan(&rows)
	telemetry.Plainf("sqlstore: opened %s  bets=%d", path, rows)
	return &Store{db: db, dialect: dialectSQLite}, nil
}
