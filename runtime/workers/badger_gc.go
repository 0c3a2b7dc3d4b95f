package workers

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerGCWorker runs Badger's value-log garbage collection on a timer.
// Badger never reclaims value-log space on its own; without this the
// comment and document logs grow forever.
type BadgerGCWorker struct {
	db       *badger.DB
	interval time.Duration
}

func NewBadgerGCWorker(db *badger.DB, interval time.Duration) *BadgerGCWorker {
	return &BadgerGCWorker{db: db, interval: interval}
}

func (w *BadgerGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// One pass per tick; ErrNoRewrite just means nothing to do.
			if err := w.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
				return err
			}
		}
	}
}
