package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/charleschow/lol-valuebets/internal/core/ledger"
)

const (
	PassCollect = "collect"
	PassSettle  = "settle"
)

// Report summarises one pass. AliasVersion pins the alias table the pass
// ran against.
type Report struct {
	Pass         string
	AliasVersion int64
	Started      time.Time
	Duration     time.Duration
	Skipped      bool

	Events     int
	Markets    int
	Exact      int
	Relaxed    int
	Ambiguous  int
	NotFound   int
	Candidates int
	Selected   int
	Created    int
	Duplicates int

	Settle ledger.SettleReport

	Errors []error
}

func (r *Report) fail(err error) {
	r.Errors = append(r.Errors, err)
}

// ErrorStrings renders Errors for logs and events.
func (r Report) ErrorStrings() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Error())
	}
	return out
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s pass (aliases v%d) in %s", r.Pass, r.AliasVersion, r.Duration.Round(time.Millisecond))
	if r.Skipped {
		b.WriteString(": skipped, lock held elsewhere")
		return b.String()
	}
	switch r.Pass {
	case PassCollect:
		fmt.Fprintf(&b, ": events=%d markets=%d exact=%d relaxed=%d ambiguous=%d not_found=%d candidates=%d selected=%d created=%d dup=%d",
			r.Events, r.Markets, r.Exact, r.Relaxed, r.Ambiguous, r.NotFound, r.Candidates, r.Selected, r.Created, r.Duplicates)
	case PassSettle:
		fmt.Fprintf(&b, ": checked=%d won=%d lost=%d void=%d unresolved=%d",
			r.Settle.Checked, r.Settle.Won, r.Settle.Lost, r.Settle.Void, r.Settle.Unresolved)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, " errors=%d", len(r.Errors))
	}
	return b.String()
}
