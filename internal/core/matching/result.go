package matching

import "fmt"

// Criterion names one matching rule a link satisfied.
type Criterion string

const (
	CriterionLeague       Criterion = "league"
	CriterionTeams        Criterion = "teams"
	CriterionPartialTeams Criterion = "partial_teams"
	CriterionDate         Criterion = "date"
	CriterionDateWidened  Criterion = "date_widened"
	CriterionTieBreak     Criterion = "tie_break"
)

// ResultKind tags a match result. Callers must switch on it.
type ResultKind int

const (
	NotFound ResultKind = iota
	Exact
	Relaxed
	Ambiguous
)

func (k ResultKind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Relaxed:
		return "relaxed"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

func (k ResultKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Link ties a live event to one archived map.
type Link struct {
	LiveEventID string           `json:"live_event_id"`
	GameID      string           `json:"game_id"`
	Confidence  float64          `json:"confidence"`
	MatchedBy   []Criterion      `json:"matched_by"`
	Record      HistoricalRecord `json:"record"`
}

// Result is the tagged outcome of Match. Link is set for Exact and Relaxed;
// Candidates is set for Ambiguous.
type Result struct {
	Kind       ResultKind `json:"kind"`
	Link       *Link      `json:"link,omitempty"`
	Candidates []Link     `json:"candidates,omitempty"`
}

// Resolved reports whether the result names a single record.
func (r Result) Resolved() bool {
	return (r.Kind == Exact || r.Kind == Relaxed) && r.Link != nil
}

func (r Result) String() string {
	switch r.Kind {
	case Exact, Relaxed:
		return fmt.Sprintf("%s game=%s conf=%.2f by=%v", r.Kind, r.Link.GameID, r.Link.Confidence, r.Link.MatchedBy)
	case Ambiguous:
		return fmt.Sprintf("ambiguous (%d candidates)", len(r.Candidates))
	default:
		return "not_found"
	}
}
