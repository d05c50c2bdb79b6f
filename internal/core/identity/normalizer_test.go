package identity

import (
	"context"
	"testing"
)

func testTable() *AliasTable {
	t := NewAliasTable(1, []Alias{
		{Source: SourceBuiltin, Kind: KindLeague, Raw: "LCK Cup", Canonical: "LCKC", Confidence: 1},
		{Source: SourceManual, Kind: KindTeam, Raw: "Liquid", Canonical: "Team Liquid", Confidence: 1},
	})
	t = t.WithCanonicals(KindLeague, "LCK", "LCKC", "LEC")
	return t.WithCanonicals(KindTeam,
		"Fnatic", "Gen.G", "Team BDS", "Team Liquid", "Team Vitality", "Karmine Corp", "Team Heretics")
}

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Gen.G  Esports ", "gen g esports"},
		{"Movistar KOI", "movistar koi"},
		{"Kéyd Stars", "keyd stars"},
		{"Rainbow7!", "rainbow7"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(testTable(), DefaultFuzzyConfig())

	tests := []struct {
		name      string
		raw       string
		kind      Kind
		want      string
		canonical bool
		via       Via
	}{
		{"exact alias", "LCK Cup", KindLeague, "LCKC", true, ViaAlias},
		{"folded alias", "lck   CUP", KindLeague, "LCKC", true, ViaAlias},
		{"folded canonical", "lck", KindLeague, "LCK", true, ViaFolded},
		{"manual team alias", "Liquid", KindTeam, "Team Liquid", true, ViaAlias},
		{"punctuation and suffix", "Gen.G Esports", KindTeam, "Gen.G", true, ViaFolded},
		{"diacritics", "Fnätic", KindTeam, "Fnatic", true, ViaFolded},
		{"gaming suffix", "Fnatic Gaming", KindTeam, "Fnatic", true, ViaFolded},
		{"fuzzy typo", "Fnatik", KindTeam, "Fnatic", true, ViaFuzzy},
		{"fuzzy truncated", "Team Vitalty", KindTeam, "Team Vitality", true, ViaFuzzy},
		{"ambiguous within margin", "Team", KindTeam, "team", false, ViaUnmatched},
		{"unknown", "Zzyzx Wolves", KindTeam, "zzyzx wolves", false, ViaUnmatched},
		{"suffix only applies to teams", "LEC Esports", KindLeague, "lec esports", false, ViaUnmatched},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw, tt.kind)
			if got.Value != tt.want || got.Canonical != tt.canonical || got.Via != tt.via {
				t.Errorf("Normalize(%q) = %+v, want value=%q canonical=%v via=%s",
					tt.raw, got, tt.want, tt.canonical, tt.via)
			}
		})
	}
}

func TestNormalizeIsTotal(t *testing.T) {
	n := NewNormalizer(nil, DefaultFuzzyConfig())
	for _, raw := range []string{"", " ", "\x00", "💥", "Ω", "a\tb\nc", string([]byte{0xff, 0xfe})} {
		_ = n.Normalize(raw, KindTeam)
		_ = n.Normalize(raw, KindLeague)
	}
}

func TestNormalizeUnmatchedDistinguishable(t *testing.T) {
	n := NewNormalizer(testTable(), DefaultFuzzyConfig())
	hit := n.Normalize("LEC", KindLeague)
	miss := n.Normalize("Liga Nacional", KindLeague)
	if !hit.Canonical || miss.Canonical {
		t.Fatalf("hit=%+v miss=%+v", hit, miss)
	}
}

func TestFuzzyDisabled(t *testing.T) {
	n := NewNormalizer(testTable(), FuzzyConfig{})
	if got := n.Normalize("Fnatik", KindTeam); got.Canonical {
		t.Errorf("fuzzy disabled but got %+v", got)
	}
}

func TestAliasTableWithIsIdempotent(t *testing.T) {
	base := testTable()
	a := Alias{Source: SourceManual, Kind: KindTeam, Raw: "BDS", Canonical: "Team BDS", Confidence: 1}

	once := base.With(a)
	twice := once.With(a)
	if once.Version() != base.Version()+1 {
		t.Errorf("version after first upsert = %d, want %d", once.Version(), base.Version()+1)
	}
	if twice != once {
		t.Error("re-applying the same alias produced a new table")
	}
	if got := NewNormalizer(base, DefaultFuzzyConfig()).Normalize("BDS", KindTeam); got.Via == ViaAlias {
		t.Error("base table was mutated by With")
	}
	if got := NewNormalizer(once, DefaultFuzzyConfig()).Canonical("BDS", KindTeam); got != "Team BDS" {
		t.Errorf("Canonical(BDS) = %q", got)
	}
}

func TestManualAliasWinsOverFeedAlias(t *testing.T) {
	tbl := NewAliasTable(0, []Alias{
		{Source: SourceManual, Kind: KindTeam, Raw: "KC", Canonical: "Karmine Corp"},
		{Source: SourcePinnacle, Kind: KindTeam, Raw: "KC", Canonical: "Kansas City"},
	})
	if got := NewNormalizer(tbl, DefaultFuzzyConfig()).Canonical("KC", KindTeam); got != "Karmine Corp" {
		t.Errorf("Canonical(KC) = %q, want Karmine Corp", got)
	}
}

type memAliasStore struct {
	rows    []Alias
	version int64
}

func (m *memAliasStore) Aliases(context.Context) ([]Alias, int64, error) { return m.rows, m.version, nil }
func (m *memAliasStore) UpsertAlias(_ context.Context, a Alias) (bool, error) {
	m.rows = append(m.rows, a)
	m.version++
	return true, nil
}

func TestLoadTablePinsStoreVersion(t *testing.T) {
	store := &memAliasStore{
		rows:    []Alias{{Source: SourceManual, Kind: KindLeague, Raw: "LCK Cup", Canonical: "LCK"}},
		version: 7,
	}
	tbl, err := LoadTable(context.Background(), store)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Version() != 7 {
		t.Errorf("Version = %d, want 7", tbl.Version())
	}
	n := NewNormalizer(tbl, DefaultFuzzyConfig())
	if got := n.Canonical("LCK Cup", KindLeague); got != "LCK" {
		t.Errorf("stored manual correction not applied: %q", got)
	}
	if got := n.Canonical("LCK Challengers", KindLeague); got != "LCKC" {
		t.Errorf("builtin alias missing: %q", got)
	}
}

func TestIdentifyAndSame(t *testing.T) {
	n := NewNormalizer(testTable(), DefaultFuzzyConfig())

	a := n.Identify("Liquid", "lec")
	b := n.Identify("TEAM LIQUID", "LEC")
	if a != b || a != (Identity{Team: "Team Liquid", League: "LEC"}) {
		t.Errorf("Identify = %+v / %+v", a, b)
	}

	if !n.Same("Gen.G", "gen g", KindTeam) {
		t.Error("folded spelling should be the same team")
	}
	if n.Same("Fnatic", "Gen.G", KindTeam) {
		t.Error("different teams reported as same")
	}
	if n.Same("---", "", KindTeam) {
		t.Error("empty forms must not match")
	}
}
