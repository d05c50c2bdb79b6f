// Package history reads archived maps from the lol_history SQLite database
// (matchups + compositions).
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/charleschow/lol-valuebets/internal/core/matching"
	"github.com/charleschow/lol-valuebets/internal/telemetry"

	_ "modernc.org/sqlite"
)

// Reader implements matching.HistorySource.
type Reader struct {
	db *sql.DB
}

var _ matching.HistorySource = (*Reader)(nil)

// Open opens the archive read-only.
func Open(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

const recordsQuery = `SELECT m.gameid, m.league, m.date, COALESCE(m.game, 1), m.t1, m.t2, m.result_t1,
	m.gamelength, m.kills_t1, m.kills_t2, m.total_kills, m.total_barons, m.total_towers,
	m.total_dragons, m.total_inhibitors,
	c1.top, c1.jung, c1.mid, c1.adc, c1.sup,
	c2.top, c2.jung, c2.mid, c2.adc, c2.sup
FROM matchups m
LEFT JOIN compositions c1 ON c1.gameid = m.gameid AND c1.team = 't1'
LEFT JOIN compositions c2 ON c2.gameid = m.gameid AND c2.team = 't2'
WHERE m.date >= ?
ORDER BY m.date DESC`

// Records returns every map played at or after since.
func (r *Reader) Records(ctx context.Context, since time.Time) ([]matching.HistoricalRecord, error) {
	rows, err := r.db.QueryContext(ctx, recordsQuery, since.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("query matchups: %w", err)
	}
	defer rows.Close()

	var out []matching.HistoricalRecord
	var skipped int
	for rows.Next() {
		var (
			rec            matching.HistoricalRecord
			date           any
			result         sql.NullInt64
			length         sql.NullFloat64
			stats          [7]sql.NullFloat64
			picks1, picks2 [5]sql.NullString
		)
		err := rows.Scan(
			&rec.GameID, &rec.League, &date, &rec.Segment, &rec.Team1, &rec.Team2, &result,
			&length, &stats[0], &stats[1], &stats[2], &stats[3], &stats[4], &stats[5], &stats[6],
			&picks1[0], &picks1[1], &picks1[2], &picks1[3], &picks1[4],
			&picks2[0], &picks2[1], &picks2[2], &picks2[3], &picks2[4],
		)
		if err != nil {
			return nil, fmt.Errorf("scan matchup: %w", err)
		}
		if rec.Date, err = parseTime(date); err != nil {
			skipped++
			continue
		}

		rec.Outcomes = make(map[string]float64, 8)
		names := [7]string{
			matching.StatKillsTeam1, matching.StatKillsTeam2, matching.StatTotalKills,
			matching.StatTotalBarons, matching.StatTotalTowers, matching.StatTotalDragons,
			matching.StatTotalInhibitors,
		}
		for i, s := range stats {
			if s.Valid {
				rec.Outcomes[names[i]] = s.Float64
			}
		}
		if length.Valid {
			rec.Outcomes[matching.StatGameLength] = length.Float64
		}
		if result.Valid {
			if result.Int64 == 1 {
				rec.Winner = rec.Team1
			} else {
				rec.Winner = rec.Team2
			}
		}
		rec.Draft = draft(picks1, picks2)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		telemetry.Warnf("history: skipped %d maps with unreadable dates", skipped)
	}
	telemetry.Debugf("history: %d maps since %s", len(out), since.Format(time.DateOnly))
	return out, nil
}

func draft(p1, p2 [5]sql.NullString) *matching.Draft {
	var d matching.Draft
	var seen bool
	for i := range 5 {
		d.Team1[i], d.Team2[i] = p1[i].String, p2[i].String
		seen = seen || p1[i].Valid || p2[i].Valid
	}
	if !seen {
		return nil
	}
	return &d
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02",
}

// parseTime accepts what the driver hands back for a TIMESTAMP column:
// time.Time, text in one of the archive's layouts, or unix seconds.
func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case []byte:
		return parseTime(string(t))
	case string:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UTC(), nil
			}
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.Unix(n, 0).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("unrecognised time %q", t)
	}
	return time.Time{}, fmt.Errorf("unsupported time value %T", v)
}
