package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store, used by tests.
type MemStore struct {
	mu    sync.Mutex
	bets  map[string]Bet
	keys  map[string]string
	order []string
}

func NewMemStore() *MemStore {
	return &MemStore{bets: make(map[string]Bet), keys: make(map[string]string)}
}

func (s *MemStore) InsertIfAbsent(_ context.Context, b Bet) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := b.Key.String()
	if _, ok := s.keys[k]; ok {
		return false, nil
	}
	s.keys[k] = b.ID
	s.bets[b.ID] = b
	s.order = append(s.order, b.ID)
	return true, nil
}

func (s *MemStore) TransitionIfPending(_ context.Context, id string, st Status, result *float64, meta Metadata, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bets[id]
	if !ok {
		return false, ErrNotFound
	}
	if b.Status != StatusPending {
		return false, nil
	}
	b.Status, b.ResultValue, b.Metadata = st, result, meta
	b.ResolvedAt = &at
	s.bets[id] = b
	return true, nil
}

func (s *MemStore) Pending(ctx context.Context) ([]Bet, error) {
	return s.List(ctx, Filter{Status: StatusPending})
}

func (s *MemStore) List(_ context.Context, f Filter) ([]Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Bet
	for _, id := range s.order {
		b := s.bets[id]
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.League != "" && b.Match.League != f.League {
			continue
		}
		if !f.Since.IsZero() && b.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemStore) Get(_ context.Context, id string) (Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bets[id]
	if !ok {
		return Bet{}, ErrNotFound
	}
	return b, nil
}
