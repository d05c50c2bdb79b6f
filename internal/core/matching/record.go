package matching

import (
	"context"
	"time"
)

// Roles in Draft pick order.
const (
	RoleTop = iota
	RoleJungle
	RoleMid
	RoleADC
	RoleSupport
)

// Draft is the champion composition of one map.
type Draft struct {
	Team1 [5]string `json:"team1"`
	Team2 [5]string `json:"team2"`
}

// Complete reports whether all ten picks are known.
func (d *Draft) Complete() bool {
	if d == nil {
		return false
	}
	for i := range 5 {
		if d.Team1[i] == "" || d.Team2[i] == "" {
			return false
		}
	}
	return true
}

// Outcome stats recorded per map.
const (
	StatTotalKills      = "total_kills"
	StatTotalDragons    = "total_dragons"
	StatTotalBarons     = "total_barons"
	StatTotalTowers     = "total_towers"
	StatTotalInhibitors = "total_inhibitors"
	StatGameLength      = "game_length"

	// Per-side kills, used to settle kill handicaps.
	StatKillsTeam1 = "kills_t1"
	StatKillsTeam2 = "kills_t2"
)

// HistoricalRecord is one archived map. Records are append-only.
type HistoricalRecord struct {
	GameID   string             `json:"game_id"`
	League   string             `json:"league"`
	Team1    string             `json:"team1"`
	Team2    string             `json:"team2"`
	Date     time.Time          `json:"date"`
	Segment  int                `json:"segment"`
	Outcomes map[string]float64 `json:"outcomes"`
	Winner   string             `json:"winner,omitempty"`
	Draft    *Draft             `json:"draft,omitempty"`
}

// Outcome returns the realized value of a stat, if recorded.
func (r *HistoricalRecord) Outcome(stat string) (float64, bool) {
	v, ok := r.Outcomes[stat]
	return v, ok
}

// KillMargin returns team's kills minus its opponent's, if recorded.
func (r *HistoricalRecord) KillMargin(team string) (float64, bool) {
	k1, ok1 := r.Outcomes[StatKillsTeam1]
	k2, ok2 := r.Outcomes[StatKillsTeam2]
	if !ok1 || !ok2 {
		return 0, false
	}
	switch team {
	case r.Team1:
		return k1 - k2, true
	case r.Team2:
		return k2 - k1, true
	}
	return 0, false
}

// HistorySource yields archived maps played at or after since.
type HistorySource interface {
	Records(ctx context.Context, since time.Time) ([]HistoricalRecord, error)
}

// TeamNames lists the distinct team names in records.
func TeamNames(records []HistoricalRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		for _, t := range [2]string{r.Team1, r.Team2} {
			if _, ok := seen[t]; ok || t == "" {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
