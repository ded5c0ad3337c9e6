package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/holdemtable/internal/game"
)

// ErrQueueFull is returned when the recorder cannot accept another hand
// without blocking the caller.
var ErrQueueFull = errors.New("history: save queue full")

// RecorderConfig tunes a Recorder.
type RecorderConfig struct {
	QueueSize   int
	SaveTimeout time.Duration
}

// Recorder saves hands on its own goroutine so table actors never wait on
// the backend. Results are reported through the channel returned by Record.
type Recorder struct {
	store  Store
	logger zerolog.Logger
	cfg    RecorderConfig

	queue chan saveJob
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type saveJob struct {
	rec    game.HandRecord
	result chan error
}

// NewRecorder starts a recorder in front of store. It owns store from
// here on and closes it in Close.
func NewRecorder(logger zerolog.Logger, store Store, cfg RecorderConfig) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 5 * time.Second
	}
	r := &Recorder{
		store:  store,
		logger: logger.With().Str("component", "history").Logger(),
		cfg:    cfg,
		queue:  make(chan saveJob, cfg.QueueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Store returns the backing store for queries.
func (r *Recorder) Store() Store { return r.store }

// Record queues rec. The returned channel yields exactly one value: nil
// once saved, or the error that prevented it. Record itself never blocks.
func (r *Recorder) Record(rec game.HandRecord) <-chan error {
	result := make(chan error, 1)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		result <- ErrClosed
		return result
	}
	select {
	case r.queue <- saveJob{rec: rec, result: result}:
	default:
		r.logger.Error().
			Str("table_id", rec.TableID).
			Int("hand_number", rec.HandNumber).
			Msg("history queue full, dropping hand")
		result <- ErrQueueFull
	}
	return result
}

// List reads a table's history from the store.
func (r *Recorder) List(ctx context.Context, tableID string) ([]game.HandRecord, error) {
	return r.store.List(ctx, tableID)
}

// LastHandNumber asks the store for the highest hand number saved for
// tableID.
func (r *Recorder) LastHandNumber(ctx context.Context, tableID string) (int, error) {
	return r.store.LastHandNumber(ctx, tableID)
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for job := range r.queue {
		job.result <- r.save(job.rec)
	}
}

func (r *Recorder) save(rec game.HandRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.SaveTimeout)
	defer cancel()

	if err := r.store.Save(ctx, rec); err != nil {
		r.logger.Error().Err(err).
			Str("table_id", rec.TableID).
			Str("hand_id", rec.ID).
			Int("hand_number", rec.HandNumber).
			Msg("failed to save hand history")
		return err
	}
	r.logger.Debug().
		Str("table_id", rec.TableID).
		Int("hand_number", rec.HandNumber).
		Msg("hand history saved")
	return nil
}

// Close saves whatever is queued and closes the store.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	return r.store.Close()
}
