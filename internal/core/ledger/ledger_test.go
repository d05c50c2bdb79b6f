package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charleschow/lol-valuebets/internal/core/value"
	"github.com/charleschow/lol-valuebets/internal/events"
)

func fptr(f float64) *float64 { return &f }

func totalBet(event string, line float64, side string) value.ValueBet {
	return value.ValueBet{
		Match:         value.MatchRef{EventID: event, League: "LCK", Team1: "T1", Team2: "Gen.G"},
		Segment:       1,
		Kind:          value.KindTotal,
		Stat:          "total_kills",
		Line:          fptr(line),
		Side:          side,
		Price:         2.0,
		EmpiricalProb: 0.6,
		EV:            0.2,
		Edge:          20,
		Method:        value.MethodEmpirical,
		Samples:       12,
	}
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handler(e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) count(t events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func newTestLedger() (*Ledger, *MemStore, *recorder) {
	store := NewMemStore()
	bus := events.NewBus()
	rec := &recorder{}
	bus.Subscribe(events.EventBetCreated, rec.handler)
	bus.Subscribe(events.EventBetSettled, rec.handler)
	return New(store, bus), store, rec
}

func TestCreateIsIdempotent(t *testing.T) {
	l, store, rec := newTestLedger()
	ctx := context.Background()
	vb := totalBet("ev-1", 26.5, value.SideOver)

	first, created, err := l.Create(ctx, vb, 3)
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	if first.Status != StatusPending || first.Metadata.AliasVersion != 3 {
		t.Errorf("unexpected bet: %+v", first)
	}

	vb.Price = 2.3 // re-seen at a new price: still the same bet
	if _, created, err := l.Create(ctx, vb, 3); err != nil || created {
		t.Fatalf("second create: created=%v err=%v", created, err)
	}

	all, _ := store.List(ctx, Filter{})
	if len(all) != 1 {
		t.Fatalf("store has %d bets, want 1", len(all))
	}
	if all[0].Price != 2.0 {
		t.Errorf("price snapshot changed to %v", all[0].Price)
	}
	if n := rec.count(events.EventBetCreated); n != 1 {
		t.Errorf("created events = %d, want 1", n)
	}
}

type conflictStore struct{ *MemStore }

func (conflictStore) InsertIfAbsent(context.Context, Bet) (bool, error) {
	return false, ErrStoreConflict
}

func TestCreateSwallowsStoreConflict(t *testing.T) {
	l := New(conflictStore{NewMemStore()}, nil)
	_, created, err := l.Create(context.Background(), totalBet("ev-1", 26.5, value.SideOver), 1)
	if err != nil || created {
		t.Errorf("created=%v err=%v, want false/nil", created, err)
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		key  NaturalKey
		o    Outcome
		want Status
		err  error
	}{
		{"over above line", NaturalKey{Kind: value.KindTotal, Line: fptr(26.5), Side: value.SideOver}, Outcome{Value: fptr(27)}, StatusWon, nil},
		{"over on line", NaturalKey{Kind: value.KindTotal, Line: fptr(26.5), Side: value.SideOver}, Outcome{Value: fptr(26.5)}, StatusVoid, nil},
		{"over below line", NaturalKey{Kind: value.KindTotal, Line: fptr(26.5), Side: value.SideOver}, Outcome{Value: fptr(25)}, StatusLost, nil},
		{"under below line", NaturalKey{Kind: value.KindTotal, Line: fptr(26.5), Side: value.SideUnder}, Outcome{Value: fptr(25)}, StatusWon, nil},
		{"under above line", NaturalKey{Kind: value.KindTotal, Line: fptr(26.5), Side: value.SideUnder}, Outcome{Value: fptr(27)}, StatusLost, nil},
		{"moneyline winner", NaturalKey{Kind: value.KindMoneyline, Side: "T1"}, Outcome{Winner: "T1"}, StatusWon, nil},
		{"moneyline loser", NaturalKey{Kind: value.KindMoneyline, Side: "T1"}, Outcome{Winner: "Gen.G"}, StatusLost, nil},
		{"handicap covered", NaturalKey{Kind: value.KindHandicap, Line: fptr(-4.5), Side: "T1"}, Outcome{Value: fptr(6)}, StatusWon, nil},
		{"handicap not covered", NaturalKey{Kind: value.KindHandicap, Line: fptr(-4.5), Side: "T1"}, Outcome{Value: fptr(3)}, StatusLost, nil},
		{"cancelled map", NaturalKey{Kind: value.KindTotal, Line: fptr(26.5), Side: value.SideOver}, Outcome{Cancelled: true}, StatusVoid, nil},
		{"missing stat", NaturalKey{Kind: value.KindTotal, Line: fptr(26.5), Side: value.SideOver}, Outcome{}, "", ErrNoOutcome},
		{"no winner", NaturalKey{Kind: value.KindMoneyline, Side: "T1"}, Outcome{}, "", ErrNoOutcome},
		{"special market", NaturalKey{Kind: value.KindSpecial, Side: "yes"}, Outcome{Winner: "T1"}, "", ErrNoOutcome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(tt.key, tt.o)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSettleIsolatesFailuresAndPublishesOnce(t *testing.T) {
	l, store, rec := newTestLedger()
	ctx := context.Background()

	won, _, _ := l.Create(ctx, totalBet("ev-won", 26.5, value.SideOver), 1)
	broken, _, _ := l.Create(ctx, totalBet("ev-broken", 26.5, value.SideOver), 1)
	open, _, _ := l.Create(ctx, totalBet("ev-open", 26.5, value.SideOver), 1)

	resolver := ResolverFunc(func(_ context.Context, b Bet) (Outcome, bool, error) {
		switch b.ID {
		case won.ID:
			return Outcome{Value: fptr(27), GameID: "g-1"}, true, nil
		case broken.ID:
			return Outcome{}, false, errors.New("history read failed")
		}
		return Outcome{}, false, nil
	})

	rep, err := l.Settle(ctx, resolver)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if rep.Checked != 3 || rep.Won != 1 || rep.Unresolved != 1 || len(rep.Errors) != 1 {
		t.Errorf("report = %+v", rep)
	}

	got, _ := store.Get(ctx, won.ID)
	if got.Status != StatusWon || got.ResultValue == nil || *got.ResultValue != 27 || got.ResolvedAt == nil {
		t.Errorf("settled bet = %+v", got)
	}
	if got.Metadata.GameID != "g-1" {
		t.Errorf("game id = %q", got.Metadata.GameID)
	}
	for _, id := range []string{broken.ID, open.ID} {
		if b, _ := store.Get(ctx, id); b.Status != StatusPending {
			t.Errorf("bet %s status = %s, want pending", id, b.Status)
		}
	}

	// A terminal bet never transitions or notifies again.
	if _, err := l.SettleOne(ctx, won, Outcome{Value: fptr(20)}); !errors.Is(err, ErrNotPending) {
		t.Errorf("resettle err = %v, want ErrNotPending", err)
	}
	if b, _ := store.Get(ctx, won.ID); b.Status != StatusWon {
		t.Errorf("terminal status changed to %s", b.Status)
	}
	if n := rec.count(events.EventBetSettled); n != 1 {
		t.Errorf("settled events = %d, want 1", n)
	}
}

type failingPending struct{ *MemStore }

func (failingPending) Pending(context.Context) ([]Bet, error) {
	return nil, errors.New("db locked")
}

func TestSettleFetchFailure(t *testing.T) {
	l := New(failingPending{NewMemStore()}, nil)
	if _, err := l.Settle(context.Background(), ResolverFunc(nil)); err == nil {
		t.Error("expected error when pending bets cannot be listed")
	}
}

func TestConcurrentCreateSameKey(t *testing.T) {
	l, store, rec := newTestLedger()
	ctx := context.Background()
	vb := totalBet("ev-race", 30.5, value.SideUnder)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = l.Create(ctx, vb, 1)
		}()
	}
	wg.Wait()

	all, _ := store.List(ctx, Filter{})
	if len(all) != 1 {
		t.Errorf("bets = %d, want 1", len(all))
	}
	if n := rec.count(events.EventBetCreated); n != 1 {
		t.Errorf("created events = %d, want 1", n)
	}
	if l.locks.Len() != 0 {
		t.Errorf("key lock leaked %d entries", l.locks.Len())
	}
}

func TestNaturalKey(t *testing.T) {
	vb := totalBet("", 26.5, value.SideOver)
	vb.Match.Start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	swapped := vb
	swapped.Match.Team1, swapped.Match.Team2 = vb.Match.Team2, vb.Match.Team1

	if KeyOf(vb).String() != KeyOf(swapped).String() {
		t.Errorf("team order changed key: %s vs %s", KeyOf(vb), KeyOf(swapped))
	}
	want := "LCK|Gen.G|T1|2026-03-01|1|total|total_kills|26.50|over"
	if got := KeyOf(vb).String(); got != want {
		t.Errorf("key = %s, want %s", got, want)
	}

	ml := NaturalKey{Match: "ev:42", Segment: 2, Kind: value.KindMoneyline, Side: "T1"}
	if got := ml.String(); got != "ev:42|2|moneyline||-|T1" {
		t.Errorf("moneyline key = %s", got)
	}
}

func TestSummarize(t *testing.T) {
	bets := []Bet{
		{Status: StatusWon, Price: 2.5, Method: value.MethodModel},
		{Status: StatusLost, Price: 1.9, Method: value.MethodEmpirical},
		{Status: StatusVoid, Price: 2.0, Method: value.MethodEmpirical},
		{Status: StatusPending, Price: 1.8, Method: value.MethodEmpirical},
	}
	s := Summarize(bets)

	if s.Total != 4 || s.ByStatus[StatusPending] != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.Profit.String() != "0.5" {
		t.Errorf("profit = %s, want 0.5", s.Profit)
	}
	if s.ROI.String() != "25" {
		t.Errorf("roi = %s, want 25", s.ROI)
	}
	if s.WinRate.String() != "0.5" {
		t.Errorf("win rate = %s, want 0.5", s.WinRate)
	}
	if m := s.ByMethod[string(value.MethodEmpirical)]; m.Total != 3 || m.Lost != 1 {
		t.Errorf("empirical stats = %+v", m)
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := ParseStatus("WON"); err != nil || st != StatusWon {
		t.Errorf("ParseStatus(WON) = %v, %v", st, err)
	}
	if _, err := ParseStatus("refunded"); err == nil {
		t.Error("expected error for unknown status")
	}
}
