package board

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type reloader interface {
	Reload(ctx context.Context) (*View, error)
}

// Refresher runs reloads on a single background worker. Triggers never block and
// collapse while a reload is pending.
type Refresher struct {
	board    reloader
	logger   *log.Logger
	interval time.Duration
	timeout  time.Duration

	jobs     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool
	workerWG sync.WaitGroup
}

// NewRefresher creates a refresher. A positive interval also reloads periodically.
func NewRefresher(b reloader, logger *log.Logger, interval, timeout time.Duration) *Refresher {
	if logger == nil {
		panic("logger is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Refresher{
		board:    b,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
		jobs:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the worker. Calling it twice has no effect.
func (r *Refresher) Start() {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.workerWG.Add(1)
	go r.worker()
	r.logger.Infof("refresher started, interval: %v, timeout: %v", r.interval, r.timeout)
}

// Stop ends the worker and waits for an in-flight reload to finish.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.workerWG.Wait()
}

// Trigger requests a reload. It returns false when one is already pending.
func (r *Refresher) Trigger() bool {
	select {
	case r.jobs <- struct{}{}:
		return true
	default:
		return false
	}
}

func (r *Refresher) worker() {
	defer r.workerWG.Done()

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-r.stopCh:
			return
		case <-r.jobs:
		case <-tick:
		}
		r.run()
	}
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.board.Reload(ctx); err != nil {
		r.logger.Debugf("background reload failed: %v", err)
	}
}
