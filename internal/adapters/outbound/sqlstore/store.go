// Package sqlstore persists the bet ledger and alias corrections in SQLite
// (default) or Postgres. Both dialects share the same queries; placeholders
// are rebound for Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charleschow/lol-valuebets/internal/core/identity"
	"github.com/charleschow/lol-valuebets/internal/core/ledger"
	"github.com/charleschow/lol-valuebets/internal/core/value"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store implements ledger.Store and identity.AliasStore.
type Store struct {
	db      *sql.DB
	dialect dialect
}

var (
	_ ledger.Store        = (*Store)(nil)
	_ identity.AliasStore = (*Store)(nil)
)

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// q rebinds ? placeholders to $n for Postgres.
func (s *Store) q(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const betColumns = `id, natural_key, event_id, league, team1, team2, start_time,
	segment, kind, stat, line, side, price, ev, edge, empirical_prob, model_prob,
	implied_prob, method, status, result_value, created_at, resolved_at, metadata`

const timeLayout = time.RFC3339Nano

func (s *Store) InsertIfAbsent(ctx context.Context, b ledger.Bet) (bool, error) {
	meta, err := json.Marshal(b.Metadata)
	if err != nil {
		return false, fmt.Errorf("encode metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.q(`INSERT INTO bets (`+betColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (natural_key) DO NOTHING`),
		b.ID, b.Key.String(), b.Match.EventID, b.Match.League, b.Match.Team1, b.Match.Team2,
		b.Match.Start.UTC().Format(timeLayout),
		b.Key.Segment, b.Key.Kind, b.Key.Stat, nullFloat(b.Key.Line), b.Key.Side,
		b.Price, b.EV, b.Edge, b.EmpiricalProb, nullFloat(b.ModelProb),
		b.ImpliedProb, string(b.Method), string(b.Status), nullFloat(b.ResultValue),
		b.CreatedAt.UTC().Format(timeLayout), nullTime(b.ResolvedAt), string(meta),
	)
	if err != nil {
		return false, fmt.Errorf("insert bet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert bet rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *Store) TransitionIfPending(ctx context.Context, id string, st ledger.Status, result *float64, meta ledger.Metadata, at time.Time) (bool, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return false, fmt.Errorf("encode metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE bets
		SET status = ?, result_value = ?, resolved_at = ?, metadata = ?
		WHERE id = ? AND status = 'pending'`),
		string(st), nullFloat(result), at.UTC().Format(timeLayout), string(raw), id,
	)
	if err != nil {
		return false, fmt.Errorf("transition bet %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition rows affected: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) Pending(ctx context.Context) ([]ledger.Bet, error) {
	return s.List(ctx, ledger.Filter{Status: ledger.StatusPending})
}

func (s *Store) List(ctx context.Context, f ledger.Filter) ([]ledger.Bet, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.League != "" {
		where = append(where, "league = ?")
		args = append(args, f.League)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}

	query := `SELECT ` + betColumns + ` FROM bets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	var out []ledger.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (ledger.Bet, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+betColumns+` FROM bets WHERE id = ?`), id)
	b, err := scanBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Bet{}, ledger.ErrNotFound
	}
	return b, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBet(sc scanner) (ledger.Bet, error) {
	var (
		b                       ledger.Bet
		start, created, meta    string
		method, status          string
		line, modelProb, result sql.NullFloat64
		resolved                sql.NullString
	)
	err := sc.Scan(
		&b.ID, new(string), &b.Match.EventID, &b.Match.League, &b.Match.Team1, &b.Match.Team2, &start,
		&b.Key.Segment, &b.Key.Kind, &b.Key.Stat, &line, &b.Key.Side, &b.Price, &b.EV, &b.Edge,
		&b.EmpiricalProb, &modelProb, &b.ImpliedProb, &method, &status, &result, &created, &resolved, &meta,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("scan bet: %w", err)
	}

	b.Method = value.Method(method)
	b.Status = ledger.Status(status)
	b.Key.Line = floatPtr(line)
	b.ModelProb = floatPtr(modelProb)
	b.ResultValue = floatPtr(result)
	b.Match.Start, _ = time.Parse(timeLayout, start)
	b.CreatedAt, _ = time.Parse(timeLayout, created)
	if resolved.Valid {
		if t, err := time.Parse(timeLayout, resolved.String); err == nil {
			b.ResolvedAt = &t
		}
	}
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &b.Metadata); err != nil {
			return b, fmt.Errorf("decode metadata of %s: %w", b.ID, err)
		}
	}
	b.Key.Match = ledger.MatchKey(b.Match)
	return b, nil
}

// ── Aliases ──────────────────────────────────────────────────────────

func (s *Store) Aliases(ctx context.Context) ([]identity.Alias, int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, kind, raw, canonical, confidence FROM name_aliases ORDER BY updated_at`)
	if err != nil {
		return nil, 0, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var out []identity.Alias
	for rows.Next() {
		var a identity.Alias
		var kind string
		if err := rows.Scan(&a.Source, &kind, &a.Raw, &a.Canonical, &a.Confidence); err != nil {
			return nil, 0, fmt.Errorf("scan alias: %w", err)
		}
		a.Kind = identity.Kind(kind)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var version int64
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT value FROM meta WHERE key = ?`), aliasVersionKey).Scan(&version); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("read alias version: %w", err)
	}
	return out, version, nil
}

const aliasVersionKey = "alias_version"

// UpsertAlias writes a correction keyed by (source, kind, raw). Rewriting the
// same canonical and confidence is a no-op and leaves the version alone.
func (s *Store) UpsertAlias(ctx context.Context, a identity.Alias) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin alias upsert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q(`INSERT INTO name_aliases (source, kind, raw, canonical, confidence, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, kind, raw) DO UPDATE
		SET canonical = excluded.canonical, confidence = excluded.confidence, updated_at = excluded.updated_at
		WHERE name_aliases.canonical <> excluded.canonical OR name_aliases.confidence <> excluded.confidence`),
		a.Source, string(a.Kind), a.Raw, a.Canonical, a.Confidence, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return false, fmt.Errorf("upsert alias %s/%s: %w", a.Kind, a.Raw, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert alias rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, s.q(`UPDATE meta SET value = value + 1 WHERE key = ?`), aliasVersionKey); err != nil {
		return false, fmt.Errorf("bump alias version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit alias upsert: %w", err)
	}
	return true, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}
