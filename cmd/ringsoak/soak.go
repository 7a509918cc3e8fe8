package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"code.cloudfoundry.org/go-ringcast"
	"code.cloudfoundry.org/go-ringcast/ring"
)

// Event is what the producer writes. Seq counts up from zero so consumers
// can tell exactly which values they missed.
type Event struct {
	RunID uuid.UUID
	Seq   int
}

type ConsumerReport struct {
	Name     string
	Slow     bool
	Received int
	Lost     int
}

type Report struct {
	RunID     uuid.UUID
	Elapsed   time.Duration
	Alerted   int64 // Lost values as reported by the channel.
	Consumers []ConsumerReport
}

func (r *Report) Log(logger zerolog.Logger) {
	for _, c := range r.Consumers {
		logger.Info().
			Str("consumer", c.Name).
			Bool("slow", c.Slow).
			Int("received", c.Received).
			Int("lost", c.Lost).
			Msg("Consumer finished")
	}

	logger.Info().
		Str("run_id", r.RunID.String()).
		Dur("elapsed", r.Elapsed).
		Int64("alerted", r.Alerted).
		Msg("Soak finished")
}

type consumer struct {
	name     string
	slow     bool
	reader   *ring.Reader[Event]
	next     int
	received int
	lost     int
}

// run reads until it has seen the last sequence number. Every value is
// either received or counted as lost; duplicates and reordering fail the run.
func (c *consumer) run(ctx context.Context, w *ringcast.Waiter[Event], runID uuid.UUID, cfg Config) error {
	for c.next < cfg.Writes {
		batch := w.Next(c.reader)
		if batch == nil {
			return fmt.Errorf("%s stopped at %d of %d: %w", c.name, c.next, cfg.Writes, ctx.Err())
		}

		for _, ev := range batch {
			if ev.RunID != runID {
				return fmt.Errorf("%s got event from run %s", c.name, ev.RunID)
			}
			if ev.Seq < c.next {
				return fmt.Errorf("%s got seq %d after %d", c.name, ev.Seq, c.next-1)
			}
			c.lost += ev.Seq - c.next
			c.next = ev.Seq + 1
			c.received++
		}

		if c.slow {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.SlowDelay):
			}
		}
	}
	return nil
}

func produce(ctx context.Context, w *ringcast.Waiter[Event], runID uuid.UUID, cfg Config) error {
	batch := make([]Event, 0, cfg.Batch)

	for seq := 0; seq < cfg.Writes; {
		batch = batch[:0]
		for ; seq < cfg.Writes && len(batch) < cfg.Batch; seq++ {
			batch = append(batch, Event{RunID: runID, Seq: seq})
		}

		if err := w.Write(batch...); err != nil {
			return fmt.Errorf("write batch ending at %d: %w", seq, err)
		}

		if cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Interval):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func runSoak(ctx context.Context, cfg Config, reg prometheus.Registerer, logger zerolog.Logger) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	runID := uuid.New()
	logger = logger.With().Str("run_id", runID.String()).Logger()

	var alerted atomic.Int64
	ch, err := ringcast.NewChannel[Event](cfg.Capacity,
		ringcast.WithAlerter(ringcast.AlertFunc(func(missed int) {
			alerted.Add(int64(missed))
		})),
		ringcast.WithLogger(logger),
		ringcast.WithMetrics(reg, "soak"),
	)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	w := ringcast.NewWaiter[Event](ch, ringcast.WithWaiterContext(gctx))

	// Readers are registered before the producer starts so none of them
	// misses the first values.
	consumers := make([]*consumer, cfg.Readers)
	for i := range consumers {
		consumers[i] = &consumer{
			name:   fmt.Sprintf("consumer-%d", i),
			slow:   cfg.slow(i),
			reader: w.NewReader(),
		}
	}

	pool := pond.NewPool(cfg.Readers)
	defer pool.StopAndWait()

	start := time.Now()

	tasks := make([]pond.Task, len(consumers))
	for i, c := range consumers {
		c := c
		tasks[i] = pool.SubmitErr(func() error {
			return c.run(gctx, w, runID, cfg)
		})
	}

	g.Go(func() error {
		return produce(gctx, w, runID, cfg)
	})
	g.Go(func() error {
		for _, t := range tasks {
			if err := t.Wait(); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:   runID,
		Elapsed: time.Since(start),
		Alerted: alerted.Load(),
	}
	for _, c := range consumers {
		report.Consumers = append(report.Consumers, ConsumerReport{
			Name:     c.name,
			Slow:     c.slow,
			Received: c.received,
			Lost:     c.lost,
		})
	}
	return report, nil
}
