// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/fleetrent/fleetrent/pkg/errutil"
)

// Recorder buffers audit entries and writes them to the store in batches.
// Record never returns an error: entries that cannot reach the store are
// spilled to a local JSONL WAL and replayed later.
type Recorder struct {
	store  Store
	logger *slog.Logger

	walPath string
	walMu   sync.Mutex
	walFile *os.File

	entries chan Entry
	stop    chan struct{}
	wg      sync.WaitGroup

	batchSize   int
	flushPeriod time.Duration
}

// Option adjusts Recorder tuning.
type Option func(*Recorder)

// WithBatchSize sets how many entries are written per batch.
func WithBatchSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithFlushPeriod sets how often a partial batch is flushed.
func WithFlushPeriod(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.flushPeriod = d
		}
	}
}

// NewRecorder creates a Recorder and starts its background consumer.
// Callers must Close it to drain buffered entries. If logger is nil,
// slog.Default() is used.
func NewRecorder(store Store, walPath string, logger *slog.Logger, opts ...Option) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		store:       store,
		logger:      logger,
		walPath:     walPath,
		entries:     make(chan Entry, 1024),
		stop:        make(chan struct{}),
		batchSize:   100,
		flushPeriod: time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(1)
	go r.consume()

	return r
}

// Record queues one entry. Missing actor, action, or resource makes the
// entry unusable for review, so it is dropped with a warning; everything
// else is accepted. When the buffer is full the entry is written through
// to the store synchronously, spilling to the WAL on failure. The call
// never surfaces a failure to the caller.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if e.ActorID == "" || e.Action == "" || e.Resource == "" {
		r.logger.Warn("dropping audit entry with missing fields",
			"actor_id", e.ActorID, "action", e.Action, "resource", e.Resource)
		failuresCounter.WithLabelValues("invalid_entry").Inc()
		return
	}
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	select {
	case r.entries <- e:
		return
	default:
	}

	// Channel full: write through synchronously rather than drop.
	channelFullCounter.Inc()
	if err := r.store.Append(ctx, []Entry{e}); err != nil {
		errutil.LogWarn(r.logger, "audit append failed, spilling to WAL", err)
		failuresCounter.WithLabelValues("append_failed").Inc()
		r.spill([]Entry{e})
	}
}

// Query returns entries matching the filters plus the total match count.
// Limit defaults to DefaultLimit and is capped at MaxLimit.
func (r *Recorder) Query(ctx context.Context, f Filters) ([]Entry, int, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return r.store.Query(ctx, f)
}

// consume drains the entry channel in batches.
func (r *Recorder) consume() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.flushPeriod)
	defer ticker.Stop()

	var batch []Entry

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.store.Append(ctx, batch); err != nil {
			errutil.LogWarn(r.logger, "audit batch append failed, spilling to WAL", err)
			failuresCounter.WithLabelValues("batch_append_failed").Inc()
			r.spill(batch)
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case e := <-r.entries:
			batch = append(batch, e)
			if len(batch) >= r.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-r.stop:
			for {
				select {
				case e := <-r.entries:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

// spill appends entries to the WAL. A WAL failure is the end of the line:
// the entries are dropped and counted.
func (r *Recorder) spill(entries []Entry) {
	r.walMu.Lock()
	defer r.walMu.Unlock()

	if r.walFile == nil {
		f, err := os.OpenFile(r.walPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY|os.O_SYNC, 0o600)
		if err != nil {
			r.logger.Error("audit WAL open failed, dropping entries",
				"path", r.walPath, "count", len(entries), "error", err)
			failuresCounter.WithLabelValues("wal_failed").Inc()
			return
		}
		r.walFile = f
	}

	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			r.logger.Error("audit WAL marshal failed", "id", e.ID, "error", err)
			failuresCounter.WithLabelValues("wal_failed").Inc()
			continue
		}
		if _, err := r.walFile.Write(append(data, '\n')); err != nil {
			r.logger.Error("audit WAL write failed", "id", e.ID, "error", err)
			failuresCounter.WithLabelValues("wal_failed").Inc()
			continue
		}
		walEntriesGauge.Inc()
	}
}

// ReplayWAL writes spilled entries back to the store and truncates the WAL
// on success. Intended to run at startup, before traffic.
func (r *Recorder) ReplayWAL(ctx context.Context) error {
	r.walMu.Lock()
	defer r.walMu.Unlock()

	f, err := os.Open(r.walPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return oops.Code("WAL_READ_FAILED").With("path", r.walPath).Wrap(err)
	}

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			r.logger.Error("skipping corrupt WAL entry", "error", err)
			failuresCounter.WithLabelValues("wal_corrupt").Inc()
			continue
		}
		entries = append(entries, e)
	}
	scanErr := scanner.Err()
	_ = f.Close() //nolint:errcheck // read-only handle
	if scanErr != nil {
		return oops.Code("WAL_READ_FAILED").With("path", r.walPath).Wrap(scanErr)
	}
	if len(entries) == 0 {
		return nil
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(r.store.Append(ctx, entries))
	})
	if err != nil {
		return oops.Code("WAL_REPLAY_FAILED").With("path", r.walPath).With("count", len(entries)).Wrap(err)
	}

	if err := os.Truncate(r.walPath, 0); err != nil {
		return oops.Code("WAL_TRUNCATE_FAILED").With("path", r.walPath).Wrap(err)
	}
	walEntriesGauge.Set(0)
	r.logger.Info("replayed audit WAL", "count", len(entries))
	return nil
}

// Close drains buffered entries and releases the WAL handle.
func (r *Recorder) Close() error {
	close(r.stop)
	r.wg.Wait()

	r.walMu.Lock()
	defer r.walMu.Unlock()
	if r.walFile != nil {
		if err := r.walFile.Close(); err != nil {
			return oops.Code("WAL_CLOSE_FAILED").With("path", r.walPath).Wrap(err)
		}
		r.walFile = nil
	}
	return nil
}
