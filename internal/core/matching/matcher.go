package matching

import (
	"time"

	"github.com/charleschow/lol-valuebets/internal/core/identity"
)

// Weights are the confidence multipliers applied per relaxation step.
type Weights struct {
	DateWidened  float64 // |dt| within 2x tolerance
	DateDropped  float64 // |dt| beyond 2x tolerance
	PartialTeams float64 // only one team of the pair matches
	TieBreak     float64 // several full matches, closest in time chosen
}

func DefaultWeights() Weights {
	return Weights{DateWidened: 0.8, DateDropped: 0.6, PartialTeams: 0.7, TieBreak: 0.9}
}

// Query identifies a live event segment to look up in the archive.
type Query struct {
	EventID string
	League  string
	Team1   string
	Team2   string
	Start   time.Time
	Segment int // map number; 0 matches any map
}

// Matcher links live events to archived maps. It is stateless apart from its
// Normalizer, which pins the alias table for the pass.
type Matcher struct {
	norm    *identity.Normalizer
	weights Weights
}

func NewMatcher(n *identity.Normalizer, w Weights) *Matcher {
	return &Matcher{norm: n, weights: w}
}

func (m *Matcher) Normalizer() *identity.Normalizer { return m.norm }

// candidate is a scored archive record.
type candidate struct {
	link     Link
	timeDiff time.Duration
}

// Match resolves q against idx with date tolerance tol.
func (m *Matcher) Match(q Query, idx *Index, tol time.Duration) Result {
	league := m.norm.Canonical(q.League, identity.KindLeague)
	t1 := m.norm.Canonical(q.Team1, identity.KindTeam)
	t2 := m.norm.Canonical(q.Team2, identity.KindTeam)

	var cands []candidate
	for _, r := range idx.League(league) {
		if q.Segment > 0 && r.Segment != q.Segment {
			continue
		}
		c, ok := m.score(q, r, t1, t2, tol)
		if ok {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		return Result{Kind: NotFound}
	}

	var full []candidate
	for _, c := range cands {
		if c.link.Confidence == 1.0 {
			full = append(full, c)
		}
	}
	if len(full) == 1 {
		link := full[0].link
		return Result{Kind: Exact, Link: &link}
	}

	best := bestOf(cands)
	if len(best) > 1 {
		links := make([]Link, len(best))
		for i, c := range best {
			links[i] = c.link
		}
		return Result{Kind: Ambiguous, Candidates: links}
	}

	link := best[0].link
	if len(full) > 1 {
		link.Confidence *= m.weights.TieBreak
		link.MatchedBy = append(link.MatchedBy, CriterionTieBreak)
	}
	return Result{Kind: Relaxed, Link: &link}
}

// score applies the relaxation ladder to one record. Records with fewer than
// league + one team in common are rejected.
func (m *Matcher) score(q Query, r HistoricalRecord, t1, t2 string, tol time.Duration) (candidate, bool) {
	conf := 1.0
	by := []Criterion{CriterionLeague}

	switch {
	case samePair(t1, t2, r.Team1, r.Team2):
		by = append(by, CriterionTeams)
	case r.involves(t1) || r.involves(t2):
		conf *= m.weights.PartialTeams
		by = append(by, CriterionPartialTeams)
	default:
		return candidate{}, false
	}

	dt := absTimeDiff(q.Start, r.Date)
	switch {
	case dt <= tol:
		by = append(by, CriterionDate)
	case dt <= 2*tol:
		conf *= m.weights.DateWidened
		by = append(by, CriterionDateWidened)
	default:
		conf *= m.weights.DateDropped
	}

	return candidate{
		link: Link{
			LiveEventID: q.EventID,
			GameID:      r.GameID,
			Confidence:  conf,
			MatchedBy:   by,
			Record:      r,
		},
		timeDiff: dt,
	}, true
}

// bestOf keeps the highest-confidence candidates, then the closest in time.
// More than one survivor means the tie is unresolved.
func bestOf(cands []candidate) []candidate {
	top := cands[0].link.Confidence
	for _, c := range cands[1:] {
		if c.link.Confidence > top {
			top = c.link.Confidence
		}
	}
	var atTop []candidate
	for _, c := range cands {
		if c.link.Confidence == top {
			atTop = append(atTop, c)
		}
	}

	closest := atTop[0].timeDiff
	for _, c := range atTop[1:] {
		if c.timeDiff < closest {
			closest = c.timeDiff
		}
	}
	var out []candidate
	for _, c := range atTop {
		if c.timeDiff == closest {
			out = append(out, c)
		}
	}
	return out
}

// samePair compares team pairs order-insensitively; feeds disagree on home/away.
func samePair(a1, a2, b1, b2 string) bool {
	if a1 == "" || a2 == "" {
		return false
	}
	return (a1 == b1 && a2 == b2) || (a1 == b2 && a2 == b1)
}

func absTimeDiff(a, b time.Time) time.Duration {
	if a.IsZero() || b.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
