package identity

import (
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Via records which lookup step produced a Result.
type Via string

const (
	ViaAlias     Via = "alias"
	ViaFolded    Via = "folded"
	ViaFuzzy     Via = "fuzzy"
	ViaUnmatched Via = "unmatched"
)

// Result is the outcome of normalizing one raw string. When Canonical is
// false, Value is the folded form and carries no canonical identity.
type Result struct {
	Value     string  `json:"value"`
	Canonical bool    `json:"canonical"`
	Via       Via     `json:"via"`
	Score     float64 `json:"score,omitempty"`
}

// FuzzyConfig tunes the similarity fallback. A fuzzy hit needs
// best >= MinScore and every other canonical strictly below best-Margin.
type FuzzyConfig struct {
	MinScore float64
	Margin   float64
}

func DefaultFuzzyConfig() FuzzyConfig {
	return FuzzyConfig{MinScore: 0.88, Margin: 0.03}
}

// Normalizer canonicalizes team and league strings against one pinned
// AliasTable. It holds no mutable state.
type Normalizer struct {
	table  *AliasTable
	fuzzy  FuzzyConfig
	metric strutil.StringMetric
}

func NewNormalizer(table *AliasTable, fuzzy FuzzyConfig) *Normalizer {
	if table == nil {
		table = NewAliasTable(0, nil)
	}
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false
	return &Normalizer{table: table, fuzzy: fuzzy, metric: jw}
}

func (n *Normalizer) Table() *AliasTable { return n.table }

// Normalize never fails: unmatched input comes back folded with Canonical=false.
func (n *Normalizer) Normalize(raw string, kind Kind) Result {
	if a, ok := n.table.exact[aliasKey{kind, raw}]; ok {
		return Result{Value: a.Canonical, Canonical: true, Via: ViaAlias, Score: 1}
	}

	folded := Fold(raw)
	if folded == "" {
		return Result{Value: "", Via: ViaUnmatched}
	}

	canon := n.table.canonicals[kind]
	for _, v := range variations(folded, kind) {
		if a, ok := n.table.folded[aliasKey{kind, v}]; ok {
			return Result{Value: a.Canonical, Canonical: true, Via: ViaAlias, Score: 1}
		}
		if name, ok := canon[v]; ok {
			return Result{Value: name, Canonical: true, Via: ViaFolded, Score: 1}
		}
	}

	if name, score, ok := n.bestFuzzy(folded, canon); ok {
		return Result{Value: name, Canonical: true, Via: ViaFuzzy, Score: score}
	}
	return Result{Value: folded, Via: ViaUnmatched}
}

// Canonical is Normalize(raw, kind).Value.
func (n *Normalizer) Canonical(raw string, kind Kind) string {
	return n.Normalize(raw, kind).Value
}

// Identity is a team as known within a league.
type Identity struct {
	Team   string `json:"team"`
	League string `json:"league"`
}

func (n *Normalizer) Identify(team, league string) Identity {
	return Identity{
		Team:   n.Canonical(team, KindTeam),
		League: n.Canonical(league, KindLeague),
	}
}

// Same reports whether two raw spellings denote the same name. Empty
// normalized forms never match.
func (n *Normalizer) Same(a, b string, kind Kind) bool {
	x := n.Canonical(a, kind)
	return x != "" && x == n.Canonical(b, kind)
}

type scored struct {
	name  string
	score float64
}

func (n *Normalizer) bestFuzzy(folded string, canon map[string]string) (string, float64, bool) {
	if len(canon) == 0 || n.fuzzy.MinScore <= 0 {
		return "", 0, false
	}

	// Score per canonical name; several folded keys may point at one name.
	best := make(map[string]float64, len(canon))
	for key, name := range canon {
		s := strutil.Similarity(folded, key, n.metric)
		if s > best[name] {
			best[name] = s
		}
	}

	ranked := make([]scored, 0, len(best))
	for name, s := range best {
		ranked = append(ranked, scored{name, s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})

	top := ranked[0]
	if top.score < n.fuzzy.MinScore {
		return "", 0, false
	}
	if len(ranked) > 1 && ranked[1].score >= top.score-n.fuzzy.Margin {
		return "", 0, false
	}
	return top.name, top.score, true
}
