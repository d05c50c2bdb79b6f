// Package pinnacle reads the live odds cache (games + markets) that the odds
// collector keeps in SQLite and turns it into pipeline live events.
package pinnacle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charleschow/lol-valuebets/internal/core/matching"
	"github.com/charleschow/lol-valuebets/internal/core/pipeline"
	"github.com/charleschow/lol-valuebets/internal/core/value"
	"github.com/charleschow/lol-valuebets/internal/telemetry"

	_ "modernc.org/sqlite"
)

// Market types as stored by the collector.
const (
	typeMoneyline     = "moneyline"
	typeHandicapKills = "handicap_kills"
	typeTotalKills    = "total_kills"
)

// Reader implements pipeline.OddsSource.
type Reader struct {
	db *sql.DB
	// Lookback keeps games that started up to this long ago.
	Lookback time.Duration
	now      func() time.Time
}

var _ pipeline.OddsSource = (*Reader)(nil)

func Open(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open pinnacle db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping pinnacle db: %w", err)
	}
	return &Reader{db: db, Lookback: 6 * time.Hour, now: time.Now}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

type game struct {
	id     int64
	league string
	home   string
	away   string
	start  time.Time
}

// LiveEvents returns upcoming (or just started) games with their per-map
// markets. Series-level markets (mapa 0) are not map outcomes and are skipped.
func (r *Reader) LiveEvents(ctx context.Context) ([]pipeline.LiveEvent, error) {
	games, err := r.games(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]pipeline.LiveEvent, 0, len(games))
	for _, g := range games {
		markets, err := r.markets(ctx, g)
		if err != nil {
			return nil, err
		}
		if len(markets) == 0 {
			continue
		}
		out = append(out, pipeline.LiveEvent{
			EventID:   fmt.Sprintf("%d", g.id),
			LeagueRaw: g.league,
			Team1Raw:  g.home,
			Team2Raw:  g.away,
			StartTime: g.start,
			Markets:   markets,
		})
	}
	telemetry.Debugf("pinnacle: %d live events", len(out))
	return out, nil
}

// CancelledEvents returns ids of cancelled games starting at or after since.
func (r *Reader) CancelledEvents(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT matchup_id, start_time FROM games WHERE status = 'cancelled'`)
	if err != nil {
		return nil, fmt.Errorf("query cancelled games: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id int64
		var start sql.NullString
		if err := rows.Scan(&id, &start); err != nil {
			return nil, fmt.Errorf("scan cancelled game: %w", err)
		}
		if t, err := parseStart(start.String); err == nil && t.Before(since) {
			continue
		}
		out = append(out, fmt.Sprintf("%d", id))
	}
	return out, rows.Err()
}

func (r *Reader) games(ctx context.Context) ([]game, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT matchup_id, league_name, home_team, away_team, start_time
		FROM games
		WHERE COALESCE(status, '') NOT IN ('finished', 'cancelled', 'settled')
		ORDER BY start_time`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	cutoff := r.now().Add(-r.Lookback)
	var out []game
	for rows.Next() {
		var g game
		var start sql.NullString
		if err := rows.Scan(&g.id, &g.league, &g.home, &g.away, &start); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		t, err := parseStart(start.String)
		if err != nil {
			telemetry.Debugf("pinnacle: game %d: %v", g.id, err)
			continue
		}
		if t.Before(cutoff) {
			continue
		}
		g.start = t
		out = append(out, g)
	}
	return out, rows.Err()
}

type marketKey struct {
	typ     string
	mapa    int
	hasLine bool
	line    float64 // home perspective
}

func (r *Reader) markets(ctx context.Context, g game) ([]pipeline.Market, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT market_type, mapa, line_value, side, odd_decimal
		FROM markets
		WHERE matchup_id = ? AND mapa > 0 AND market_type IN (?, ?, ?)
		ORDER BY mapa, market_type, is_alternate, id`,
		g.id, typeMoneyline, typeHandicapKills, typeTotalKills)
	if err != nil {
		return nil, fmt.Errorf("query markets of %d: %w", g.id, err)
	}
	defer rows.Close()

	byKey := make(map[marketKey]*pipeline.Market)
	var order []marketKey
	for rows.Next() {
		var (
			typ, side string
			mapa      int
			line      sql.NullFloat64
			price     float64
		)
		if err := rows.Scan(&typ, &mapa, &line, &side, &price); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		side = strings.ToLower(side)

		key := marketKey{typ: typ, mapa: mapa}
		if line.Valid && typ != typeMoneyline {
			key.hasLine, key.line = true, line.Float64
			if typ == typeHandicapKills && side == "away" {
				key.line = -line.Float64
			}
		}
		m, ok := byKey[key]
		if !ok {
			m = newMarket(key)
			byKey[key] = m
			order = append(order, key)
		}
		m.Prices = append(m.Prices, pipeline.SidePrice{Side: sideName(typ, side, g), Price: price})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]pipeline.Market, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out, nil
}

func newMarket(k marketKey) *pipeline.Market {
	m := &pipeline.Market{Segment: k.mapa}
	if k.hasLine {
		l := k.line
		m.Line = &l
	}
	switch k.typ {
	case typeMoneyline:
		m.Kind = value.KindMoneyline
	case typeHandicapKills:
		m.Kind = value.KindHandicap
		m.Stat = "kills"
	case typeTotalKills:
		m.Kind = value.KindTotal
		m.Stat = matching.StatTotalKills
	}
	return m
}

// sideName maps home/away onto the raw team names; over/under pass through.
func sideName(typ, side string, g game) string {
	if typ == typeTotalKills {
		return side
	}
	switch side {
	case "home":
		return g.home
	case "away":
		return g.away
	}
	return side
}

func parseStart(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised start time %q", s)
}
