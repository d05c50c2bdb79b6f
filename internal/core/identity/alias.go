package identity

import (
	"context"
	"maps"
)

type Kind string

const (
	KindTeam   Kind = "team"
	KindLeague Kind = "league"
)

// Known alias sources. Manual corrections take precedence over feed-derived ones.
const (
	SourceManual   = "manual"
	SourcePinnacle = "pinnacle"
	SourceHistory  = "history"
	SourceBuiltin  = "builtin"
)

// Alias maps a raw spelling seen in one source to a canonical name.
type Alias struct {
	Source     string  `json:"source"`
	Kind       Kind    `json:"kind"`
	Raw        string  `json:"raw"`
	Canonical  string  `json:"canonical"`
	Confidence float64 `json:"confidence"`
}

// AliasStore persists aliases. UpsertAlias is keyed by (source, kind, raw)
// and reports whether anything changed; the store's version increases only
// on change.
type AliasStore interface {
	Aliases(ctx context.Context) ([]Alias, int64, error)
	UpsertAlias(ctx context.Context, a Alias) (bool, error)
}

type aliasKey struct {
	kind Kind
	raw  string
}

// AliasTable is an immutable, versioned snapshot of aliases plus the set of
// known canonical names per kind. Passes pin one table for their lifetime.
type AliasTable struct {
	version    int64
	exact      map[aliasKey]Alias
	folded     map[aliasKey]Alias
	canonicals map[Kind]map[string]string // folded -> canonical
}

// NewAliasTable builds a snapshot. Later entries for the same key override
// earlier ones unless the earlier one is manual and the later one is not.
func NewAliasTable(version int64, aliases []Alias) *AliasTable {
	t := &AliasTable{
		version:    version,
		exact:      make(map[aliasKey]Alias, len(aliases)),
		folded:     make(map[aliasKey]Alias, len(aliases)),
		canonicals: map[Kind]map[string]string{KindTeam: {}, KindLeague: {}},
	}
	for _, a := range aliases {
		t.put(a)
	}
	return t
}

func (t *AliasTable) put(a Alias) {
	if a.Raw == "" || a.Canonical == "" {
		return
	}
	set := func(m map[aliasKey]Alias, k aliasKey) {
		if prev, ok := m[k]; ok && prev.Source == SourceManual && a.Source != SourceManual {
			return
		}
		m[k] = a
	}
	set(t.exact, aliasKey{a.Kind, a.Raw})
	set(t.folded, aliasKey{a.Kind, Fold(a.Raw)})
	t.addCanonical(a.Kind, a.Canonical)
}

func (t *AliasTable) addCanonical(kind Kind, name string) {
	if name == "" {
		return
	}
	m, ok := t.canonicals[kind]
	if !ok {
		m = make(map[string]string)
		t.canonicals[kind] = m
	}
	m[Fold(name)] = name
}

func (t *AliasTable) Version() int64 { return t.version }

// WithCanonicals returns a copy that also knows the given canonical names.
// The version is unchanged: canonicals come from the pass snapshot, not the
// alias store.
func (t *AliasTable) WithCanonicals(kind Kind, names ...string) *AliasTable {
	next := t.clone()
	next.canonicals[kind] = maps.Clone(next.canonicals[kind])
	if next.canonicals[kind] == nil {
		next.canonicals[kind] = make(map[string]string)
	}
	for _, n := range names {
		next.addCanonical(kind, n)
	}
	return next
}

// With returns a table with the alias applied. Re-applying an identical alias
// returns the receiver unchanged, so repeated corrections keep the version.
func (t *AliasTable) With(a Alias) *AliasTable {
	if prev, ok := t.exact[aliasKey{a.Kind, a.Raw}]; ok && prev == a {
		return t
	}
	next := t.clone()
	next.exact = maps.Clone(t.exact)
	next.folded = maps.Clone(t.folded)
	next.canonicals[a.Kind] = maps.Clone(next.canonicals[a.Kind])
	if next.canonicals[a.Kind] == nil {
		next.canonicals[a.Kind] = make(map[string]string)
	}
	next.version++
	next.put(a)
	return next
}

func (t *AliasTable) clone() *AliasTable {
	c := &AliasTable{
		version:    t.version,
		exact:      t.exact,
		folded:     t.folded,
		canonicals: make(map[Kind]map[string]string, len(t.canonicals)),
	}
	for k, v := range t.canonicals {
		c.canonicals[k] = v
	}
	return c
}

// Canonicals returns the known canonical names of a kind.
func (t *AliasTable) Canonicals(kind Kind) []string {
	out := make([]string, 0, len(t.canonicals[kind]))
	for _, name := range t.canonicals[kind] {
		out = append(out, name)
	}
	return out
}

// Aliases lists the effective aliases (one per (kind, raw)).
func (t *AliasTable) Aliases() []Alias {
	out := make([]Alias, 0, len(t.exact))
	for _, a := range t.exact {
		out = append(out, a)
	}
	return out
}

// LoadTable assembles the pass snapshot: builtin seed, then operator seed,
// then stored corrections (which win).
func LoadTable(ctx context.Context, store AliasStore, seed ...Alias) (*AliasTable, error) {
	all := append(BuiltinAliases(), seed...)
	var version int64
	if store != nil {
		stored, v, err := store.Aliases(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, stored...)
		version = v
	}
	t := NewAliasTable(version, all)
	return t.WithCanonicals(KindLeague, CanonicalLeagues...), nil
}
