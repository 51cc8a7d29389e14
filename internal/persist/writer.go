// Package persist implements the write side of state persistence.
//
// Sessions hand every committed snapshot to a Writer and move on. The Writer
// keeps at most one pending snapshot per (kind, user): a newer snapshot
// replaces a queued one, so the last issued write is the one that lands.
// A single worker drains the queue in issue order.
package persist

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
	"github.com/MrSnakeDoc/chantabs/internal/logger"
)

const (
	KindTabs      = "tabs"
	KindBookmarks = "bookmarks"

	// DefaultWriteTimeout bounds a single store write.
	DefaultWriteTimeout = 3 * time.Second
)

// Store is where snapshots end up.
type Store interface {
	SaveTabs(ctx context.Context, userID string, state domain.TabState) error
	SaveBookmarks(ctx context.Context, userID string, bms domain.Bookmarks) error
}

// Recorder receives write outcomes. metrics.Metrics implements it.
type Recorder interface {
	ObservePersist(kind string, d time.Duration, err error)
	Coalesced()
}

type Options struct {
	WriteTimeout time.Duration
	Recorder     Recorder
}

type key struct {
	kind   string
	userID string
}

type job struct {
	key
	tabs      domain.TabState
	bookmarks domain.Bookmarks
}

// Writer is a fire-and-forget, coalescing snapshot writer.
type Writer struct {
	store   Store
	log     logger.Logger
	rec     Recorder
	timeout time.Duration

	mu      sync.Mutex
	pending map[key]job
	queue   []key
	current *job // being written, nil when idle
	started bool
	stopped bool

	wake   chan struct{}
	stopCh chan struct{}
	done   chan struct{}
}

// NewWriter builds a stopped writer; call Start to run the worker.
func NewWriter(store Store, log logger.Logger, opts Options) *Writer {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Writer{
		store:   store,
		log:     log,
		rec:     opts.Recorder,
		timeout: opts.WriteTimeout,
		pending: make(map[key]job),
		wake:    make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (w *Writer) Start() {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go w.run()
}

// Stop refuses new writes, waits for the queue to drain and returns.
// It gives up when ctx ends, leaving the remaining writes to the worker.
func (w *Writer) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	close(w.stopCh)
	if !started {
		w.drain()
		close(w.done)
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.log.Warn("persistence writer stopped before draining",
			logger.Int("pending", w.Pending()))
		return ctx.Err()
	}
}

// SaveTabs queues a tab snapshot for userID.
func (w *Writer) SaveTabs(userID string, state domain.TabState) {
	w.enqueue(job{key: key{kind: KindTabs, userID: userID}, tabs: state})
}

// SaveBookmarks queues a bookmark snapshot for userID.
func (w *Writer) SaveBookmarks(userID string, bms domain.Bookmarks) {
	w.enqueue(job{key: key{kind: KindBookmarks, userID: userID}, bookmarks: bms})
}

// Pending returns the number of queued writes.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *Writer) enqueue(j job) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		w.log.Warn("write dropped, writer stopped",
			logger.UserID(j.userID), logger.String("kind", j.kind))
		return
	}
	if _, ok := w.pending[j.key]; ok {
		w.rec.Coalesced()
	} else {
		w.queue = append(w.queue, j.key)
	}
	w.pending[j.key] = j
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		w.drain()
		select {
		case <-w.wake:
		case <-w.stopCh:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		j, ok := w.next()
		if !ok {
			return
		}
		w.write(j)

		w.mu.Lock()
		w.current = nil
		w.mu.Unlock()
	}
}

func (w *Writer) next() (job, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return job{}, false
	}
	k := w.queue[0]
	w.queue = w.queue[1:]
	j := w.pending[k]
	delete(w.pending, k)
	w.current = &j
	return j, true
}

// latest returns the newest snapshot for k that the store may not hold yet.
func (w *Writer) latest(k key) (job, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if j, ok := w.pending[k]; ok {
		return j, true
	}
	if w.current != nil && w.current.key == k {
		return *w.current, true
	}
	return job{}, false
}

func (w *Writer) write(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	var err error
	switch j.kind {
	case KindTabs:
		err = w.store.SaveTabs(ctx, j.userID, j.tabs)
	case KindBookmarks:
		err = w.store.SaveBookmarks(ctx, j.userID, j.bookmarks)
	}
	w.rec.ObservePersist(j.kind, time.Since(start), err)

	if err != nil {
		w.log.Error("failed to persist state",
			logger.UserID(j.userID),
			logger.String("kind", j.kind),
			logger.Error(err))
	}
}

type nopRecorder struct{}

func (nopRecorder) ObservePersist(string, time.Duration, error) {}
func (nopRecorder) Coalesced()                                  {}
