package pinnacle

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/charleschow/lol-valuebets/internal/core/value"
)

const fixtureSchema = `
CREATE TABLE games (
	matchup_id INTEGER PRIMARY KEY, league_name TEXT NOT NULL, home_team TEXT NOT NULL,
	away_team TEXT NOT NULL, start_time TEXT, status TEXT
);
CREATE TABLE markets (
	id INTEGER PRIMARY KEY AUTOINCREMENT, matchup_id INTEGER NOT NULL, market_type TEXT NOT NULL,
	mapa INTEGER NOT NULL, line_value REAL, side TEXT, odd_decimal REAL NOT NULL,
	is_alternate INTEGER NOT NULL DEFAULT 0
);
INSERT INTO games VALUES
	(101, 'LCK', 'T1', 'Gen.G Esports', '2026-03-14T08:00:00Z', NULL),
	(102, 'LEC', 'G2 Esports', 'Fnatic', '2026-03-01T17:00:00Z', NULL),
	(103, 'LCK', 'KT Rolster', 'DRX', '2026-03-14T11:00:00Z', 'cancelled');
INSERT INTO markets (matchup_id, market_type, mapa, line_value, side, odd_decimal, is_alternate) VALUES
	(101, 'moneyline', 0, NULL, 'home', 1.55, 0),
	(101, 'moneyline', 1, NULL, 'home', 1.60, 0),
	(101, 'moneyline', 1, NULL, 'away', 2.35, 0),
	(101, 'total_kills', 1, 26.5, 'over', 1.90, 0),
	(101, 'total_kills', 1, 26.5, 'under', 1.90, 0),
	(101, 'total_kills', 1, 28.5, 'over', 2.30, 1),
	(101, 'total_kills', 1, 28.5, 'under', 1.60, 1),
	(101, 'handicap_kills', 1, -4.5, 'home', 1.95, 0),
	(101, 'handicap_kills', 1, 4.5, 'away', 1.85, 0),
	(101, 'total_map', 0, 2.5, 'over', 2.10, 0),
	(102, 'moneyline', 1, NULL, 'home', 1.70, 0);
`

func openFixture(t *testing.T) *Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pinnacle_data.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(fixtureSchema); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	db.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	r.now = func() time.Time { return time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC) }
	return r
}

func TestLiveEvents(t *testing.T) {
	r := openFixture(t)
	evs, err := r.LiveEvents(context.Background())
	if err != nil {
		t.Fatalf("live events: %v", err)
	}
	if len(evs) != 1 {
		t.Fatalf("events = %d, want 1 (stale and cancelled games dropped)", len(evs))
	}
	ev := evs[0]
	if ev.EventID != "101" || ev.Team2Raw != "Gen.G Esports" {
		t.Errorf("event = %+v", ev)
	}

	kinds := map[string]int{}
	for _, m := range ev.Markets {
		if m.Segment != 1 {
			t.Errorf("series market leaked: %+v", m)
		}
		kinds[m.Kind]++
		if len(m.Prices) != 2 {
			t.Errorf("%s market has %d prices, want 2", m.Kind, len(m.Prices))
		}
		switch m.Kind {
		case value.KindMoneyline:
			if m.Line != nil || m.Prices[0].Side != "T1" || m.Prices[1].Side != "Gen.G Esports" {
				t.Errorf("moneyline = %+v", m)
			}
		case value.KindHandicap:
			if m.Line == nil || *m.Line != -4.5 {
				t.Errorf("handicap line = %v, want -4.5 from home side", m.Line)
			}
		}
	}
	if kinds[value.KindTotal] != 2 || kinds[value.KindMoneyline] != 1 || kinds[value.KindHandicap] != 1 {
		t.Errorf("market kinds = %v", kinds)
	}
}

func TestCancelledEvents(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	ids, err := r.CancelledEvents(ctx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("cancelled: %v", err)
	}
	if len(ids) != 1 || ids[0] != "103" {
		t.Errorf("cancelled = %v, want [103]", ids)
	}

	ids, _ = r.CancelledEvents(ctx, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	if len(ids) != 0 {
		t.Errorf("cancelled after cutoff = %v, want none", ids)
	}
}
