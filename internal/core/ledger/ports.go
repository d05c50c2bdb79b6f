package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStoreConflict is returned by a store when the natural key is
	// already taken. Create treats it as "already recorded".
	ErrStoreConflict = errors.New("natural key already recorded")
	// ErrNotPending is returned when settling a bet that is already terminal.
	ErrNotPending = errors.New("bet is not pending")
	ErrNotFound   = errors.New("bet not found")
)

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Status Status
	League string
	Since  time.Time
	Limit  int
}

// Store persists bets. Implementations must enforce natural-key uniqueness
// and make the pending->terminal transition atomic.
type Store interface {
	// InsertIfAbsent inserts b unless its natural key exists. inserted=false
	// (or ErrStoreConflict) means nothing was written.
	InsertIfAbsent(ctx context.Context, b Bet) (inserted bool, err error)
	// TransitionIfPending moves bet id to status iff it is still pending.
	// changed=false means it was already terminal.
	TransitionIfPending(ctx context.Context, id string, status Status, result *float64, meta Metadata, at time.Time) (changed bool, err error)
	Pending(ctx context.Context) ([]Bet, error)
	List(ctx context.Context, f Filter) ([]Bet, error)
	Get(ctx context.Context, id string) (Bet, error)
}
