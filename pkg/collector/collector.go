package collector

import (
	"context"
	"sort"
	"time"

	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
)

// BatchSource produces successive batches of follower records. The paginated
// API source and the rendered-page scroll source both implement it; the
// collector never knows which one it is driving.
//
// NextBatch returns the next batch, whether more batches may follow, and any
// error. A returned error always means "stop collecting"; the caller decides
// whether what was gathered so far is still worth keeping.
type BatchSource interface {
	NextBatch(ctx context.Context) ([]models.Follower, bool, error)
}

// Options tunes a collection run.
type Options struct {
	// Max caps the number of unique records kept. Zero means unbounded.
	// The cap is hard: excess records inside the final batch are discarded.
	Max int

	// CycleDelay is the politeness pause between fetch cycles. It is a
	// throttle, not a retry backoff.
	CycleDelay time.Duration

	// Seed pre-populates the accumulated list, used when resuming from a
	// checkpoint. Duplicates between seed and source are dropped as usual.
	Seed []models.Follower

	// OnProgress, when set, is invoked after each cycle with the running
	// unique total.
	OnProgress func(total int)

	Logger logger.Logger
}

// Collector drives repeated fetch cycles against a BatchSource, accumulating
// unique records up to the cap and producing the final sorted list.
type Collector struct {
	src  BatchSource
	opts Options
	log  logger.Logger
}

// New creates a Collector for the given source.
func New(src BatchSource, opts Options) *Collector {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{src: src, opts: opts, log: log}
}

// Collect runs the pipeline for the given subject handle.
//
// The returned ResultSet is always valid. A non-nil error reports why the
// loop stopped early: a classified source error or the context's error after
// an interrupt. Accumulated records survive either way; the caller reports
// the stop reason and treats the partial set as success.
func (c *Collector) Collect(ctx context.Context, subject string) (*models.ResultSet, error) {
	accumulated := make([]models.Follower, 0, len(c.opts.Seed))
	seen := make(map[string]struct{})
	for _, f := range c.opts.Seed {
		if f.Username == "" {
			continue
		}
		if _, dup := seen[f.Username]; dup {
			continue
		}
		seen[f.Username] = struct{}{}
		accumulated = append(accumulated, f)
	}

	var stopErr error
	capped := c.opts.Max > 0 && len(accumulated) >= c.opts.Max
	if capped {
		accumulated = accumulated[:c.opts.Max]
	}

	cycle := 0
	for !capped {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}

		batch, hasMore, err := c.src.NextBatch(ctx)
		if err != nil {
			c.log.WithError(err).WithFields(map[string]interface{}{
				"subject":   subject,
				"cycle":     cycle,
				"collected": len(accumulated),
			}).Warn("source failed, keeping partial results")
			stopErr = err
			break
		}
		cycle++

		for _, f := range batch {
			if f.Username == "" {
				continue
			}
			if _, dup := seen[f.Username]; dup {
				continue
			}
			seen[f.Username] = struct{}{}
			accumulated = append(accumulated, f)

			if c.opts.Max > 0 && len(accumulated) >= c.opts.Max {
				capped = true
				break
			}
		}

		logger.LogPage(subject, cycle, len(batch), len(accumulated))
		if c.opts.OnProgress != nil {
			c.opts.OnProgress(len(accumulated))
		}

		if capped || !hasMore {
			break
		}

		if err := sleepCtx(ctx, c.opts.CycleDelay); err != nil {
			stopErr = err
			break
		}
	}

	sortByFollowerCount(accumulated)

	rs := &models.ResultSet{
		Subject:     subject,
		GeneratedAt: time.Now(),
		Followers:   accumulated,
	}

	c.log.InfoWithFields("collection finished", map[string]interface{}{
		"subject": subject,
		"total":   rs.Total(),
		"cycles":  cycle,
		"partial": stopErr != nil,
	})

	return rs, stopErr
}

// sortByFollowerCount sorts descending by follower count. The sort is stable:
// equal counts keep their discovery order, with no secondary key.
func sortByFollowerCount(followers []models.Follower) {
	sort.SliceStable(followers, func(i, j int) bool {
		return followers[i].FollowerCount > followers[j].FollowerCount
	})
}

// sleepCtx pauses for d, returning early with the context error when the
// run is interrupted.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
