package process

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/charleschow/lol-valuebets/internal/core/pipeline"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

// PassRunner is the part of the pipeline the scheduler drives.
type PassRunner interface {
	Collect(ctx context.Context) (pipeline.Report, error)
	Settle(ctx context.Context) (pipeline.Report, error)
}

// Schedule registers the collect and settle passes on a seconds-resolution
// cron. A pass still running when its next tick fires is skipped. Passes
// run with ctx, so cancelling it aborts in-flight work.
func Schedule(ctx context.Context, p PassRunner, collectSpec, settleSpec string) (*cron.Cron, error) {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (pipeline.Report, error)
	}{
		{pipeline.PassCollect, collectSpec, p.Collect},
		{pipeline.PassSettle, settleSpec, p.Settle},
	}
	for _, j := range jobs {
		j := j
		if j.spec == "" || j.spec == "off" {
			telemetry.Infof("process: %s pass not scheduled", j.name)
			continue
		}
		_, err := c.AddFunc(j.spec, func() {
			if _, err := j.run(ctx); err != nil {
				telemetry.Errorf("process: %s pass failed: %v", j.name, err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
		}
		telemetry.Infof("process: %s pass scheduled %q", j.name, j.spec)
	}
	return c, nil
}
