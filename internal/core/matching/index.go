package matching

import (
	"math"
	"sort"

	"github.com/charleschow/lol-valuebets/internal/core/identity"
)

// Index is an immutable, league-partitioned snapshot of the archive with
// team and league names already normalized.
type Index struct {
	byLeague map[string][]HistoricalRecord
	size     int
}

// NewIndex normalizes every record through n and groups by league.
func NewIndex(records []HistoricalRecord, n *identity.Normalizer) *Index {
	idx := &Index{byLeague: make(map[string][]HistoricalRecord)}
	for _, r := range records {
		r.League = n.Canonical(r.League, identity.KindLeague)
		r.Team1 = n.Canonical(r.Team1, identity.KindTeam)
		r.Team2 = n.Canonical(r.Team2, identity.KindTeam)
		if r.Winner != "" {
			r.Winner = n.Canonical(r.Winner, identity.KindTeam)
		}
		idx.byLeague[r.League] = append(idx.byLeague[r.League], r)
		idx.size++
	}
	for _, recs := range idx.byLeague {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.After(recs[j].Date) })
	}
	return idx
}

func (idx *Index) Len() int { return idx.size }

// League returns the records of one normalized league, newest first.
func (idx *Index) League(league string) []HistoricalRecord {
	return idx.byLeague[league]
}

// Samples collects stat values from maps in league where either team played,
// newest first, at most limit values (0 = no limit). Each map counts once.
func (idx *Index) Samples(league, team1, team2, stat string, limit int) []float64 {
	var out []float64
	seen := make(map[string]struct{})
	for _, r := range idx.byLeague[league] {
		if !r.involves(team1) && !r.involves(team2) {
			continue
		}
		if _, dup := seen[r.GameID]; dup {
			continue
		}
		v, ok := r.Outcome(stat)
		if !ok {
			continue
		}
		seen[r.GameID] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (r *HistoricalRecord) involves(team string) bool {
	return team != "" && (r.Team1 == team || r.Team2 == team)
}

// TeamRecord counts maps played and won by team in league.
func (idx *Index) TeamRecord(league, team string) (wins, maps int) {
	for _, r := range idx.byLeague[league] {
		if !r.involves(team) || r.Winner == "" {
			continue
		}
		maps++
		if r.Winner == team {
			wins++
		}
	}
	return wins, maps
}

// Margins lists team's kill margin per map in league, newest first.
func (idx *Index) Margins(league, team string) []float64 {
	var out []float64
	for _, r := range idx.byLeague[league] {
		if m, ok := r.KillMargin(team); ok {
			out = append(out, m)
		}
	}
	return out
}

// StatMoments returns the mean and sample standard deviation of stat over
// every map in league.
func (idx *Index) StatMoments(league, stat string) (mean, std float64, n int) {
	var sum float64
	var vals []float64
	for _, r := range idx.byLeague[league] {
		if v, ok := r.Outcome(stat); ok {
			vals = append(vals, v)
			sum += v
		}
	}
	n = len(vals)
	if n == 0 {
		return 0, 0, 0
	}
	mean = sum / float64(n)
	if n > 1 {
		var sq float64
		for _, v := range vals {
			sq += (v - mean) * (v - mean)
		}
		std = math.Sqrt(sq / float64(n-1))
	}
	return mean, std, n
}
