// Package board reloads the record snapshot and keeps the last good worklist view.
package board

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"opsboard/domain"
	"opsboard/worklist"
)

type recordLoader interface {
	Load(ctx context.Context) (*Records, error)
}

// View is the immutable result of one successful reload.
type View struct {
	Snapshot   *worklist.Snapshot
	Tasks      []domain.Task
	Derived    []domain.DerivedTask
	Reconciled worklist.Reconciled
	LoadedAt   time.Time
}

// Board publishes the most recently resolved view. A failed reload leaves the
// previous view in place. Overlapping reloads are not serialized: whichever
// resolves last wins.
type Board struct {
	loader  recordLoader
	logger  *log.Logger
	now     func() time.Time
	current atomic.Pointer[View]
}

func New(loader recordLoader, logger *log.Logger) *Board {
	if loader == nil {
		panic("board.New: loader is nil")
	}
	if logger == nil {
		panic("board.New: logger is nil")
	}
	return &Board{loader: loader, logger: logger, now: time.Now}
}

// Current returns the last published view, or nil before the first successful reload.
func (b *Board) Current() *View {
	return b.current.Load()
}

// Ensure returns the current view, reloading first when none was published yet.
func (b *Board) Ensure(ctx context.Context) (*View, error) {
	if v := b.current.Load(); v != nil {
		return v, nil
	}
	return b.Reload(ctx)
}

// Reload loads all collections, derives the worklist and publishes the result.
func (b *Board) Reload(ctx context.Context) (*View, error) {
	start := b.now()
	rec, err := b.loader.Load(ctx)
	if err != nil {
		b.logger.WithFields(log.Fields{
			"error":    err.Error(),
			"retained": b.current.Load() != nil,
		}).Error("board.reload.failed")
		return nil, err
	}

	snap := worklist.NewSnapshot(rec.Customers, rec.Instruments, rec.PricingModels, rec.Offers, rec.Rentals)
	derived := worklist.Derive(snap)
	v := &View{
		Snapshot:   snap,
		Tasks:      rec.Tasks,
		Derived:    derived,
		Reconciled: worklist.Reconcile(rec.Tasks, derived),
		LoadedAt:   b.now(),
	}
	b.current.Store(v)

	b.logger.WithFields(log.Fields{
		"customers":      len(rec.Customers),
		"instruments":    len(rec.Instruments),
		"pricing_models": len(rec.PricingModels),
		"offers":         len(rec.Offers),
		"rentals":        len(rec.Rentals),
		"tasks":          len(rec.Tasks),
		"derived":        len(derived),
		"open":           v.Reconciled.OpenCount,
		"total_ms":       float64(v.LoadedAt.Sub(start)) / float64(time.Millisecond),
	}).Info("board.reload")
	return v, nil
}
