package aggregator

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Flusher builds the report from the Aggregator and hands it to the Writer,
// periodically when an interval is configured and always once on shutdown
type Flusher struct {
	interval   time.Duration
	clock      clockwork.Clock
	aggregator *Aggregator
	writer     *Writer
	metrics    *Metrics
	logger     *zap.SugaredLogger

	done chan struct{}
	wg   sync.WaitGroup
}

// Flush builds and persists the report. A nil report (no messages ever
// received) writes nothing, so the absence of the report files means no
// flush happened.
func (f *Flusher) Flush() error {
	report := f.aggregator.BuildReport()
	if report == nil {
		f.logger.Info("Flusher: no messages received, report not written")

		return nil
	}

	if err := f.writer.Write(report); err != nil {
		return err
	}

	f.metrics.ReportsWritten.Inc()

	return nil
}

// Run starts the periodic flush loop. A no-op when no interval is
// configured; the shutdown flush still happens via Flush.
func (f *Flusher) Run() {
	if f.interval <= 0 {
		return
	}

	f.wg.Add(1)

	go func() {
		defer f.wg.Done()

		ticker := f.clock.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-f.done:
				return
			case <-ticker.Chan():
				// A failed periodic flush is retried at the next
				// tick; the shutdown flush decides fatality.
				if err := f.Flush(); err != nil {
					f.logger.Errorf("Flusher: %s", err)
				}
			}
		}
	}()
}

// Stop terminates the periodic flush loop
func (f *Flusher) Stop() {
	close(f.done)
	f.wg.Wait()
}

// NewFlusher creates a new Flusher
func NewFlusher(interval time.Duration, clock clockwork.Clock, aggregator *Aggregator, writer *Writer, metrics *Metrics, logger *zap.SugaredLogger) *Flusher {
	return &Flusher{
		interval:   interval,
		clock:      clock,
		aggregator: aggregator,
		writer:     writer,
		metrics:    metrics,
		logger:     logger,
		done:       make(chan struct{}),
	}
}
