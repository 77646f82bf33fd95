// workers/tournament_sync_worker.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"tournament-join-service/logger"
	"tournament-join-service/models"
	"tournament-join-service/services"
)

type Refresher interface {
	Refresh(ctx context.Context) ([]models.TournamentSummary, error)
}

type MirrorPruner interface {
	PruneMirror(ctx context.Context, syncedBefore time.Time) (int64, error)
}

// TournamentSyncWorker keeps the local tournament mirror in step with the backend catalogue.
type TournamentSyncWorker struct {
	catalogue Refresher
	pruner    MirrorPruner
	clock     clockwork.Clock
	log       *logger.Logger
}

func NewTournamentSyncWorker(catalogue Refresher, pruner MirrorPruner, clock clockwork.Clock, log *logger.Logger) *TournamentSyncWorker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TournamentSyncWorker{catalogue: catalogue, pruner: pruner, clock: clock, log: log}
}

// SyncOnce refreshes every tournament and drops mirror rows the backend stopped listing.
// An empty answer never prunes, so a backend hiccup cannot wipe the mirror.
func (w *TournamentSyncWorker) SyncOnce(ctx context.Context) error {
	started := w.clock.Now()
	w.log.Debug("[SYNC] fetching tournament catalogue")

	summaries, err := w.catalogue.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalogue: %w", err)
	}
	if len(summaries) == 0 {
		w.log.Info("[SYNC] backend listed no tournaments, mirror left as is")
		return nil
	}

	var pruned int64
	if w.pruner != nil {
		pruned, err = w.pruner.PruneMirror(ctx, started)
		if err != nil {
			w.log.Warn("[SYNC] prune failed", "error", err)
		}
	}

	w.log.Info("[SYNC] catalogue mirrored", "tournaments", len(summaries), "pruned", pruned,
		"took", w.clock.Since(started).String())
	return nil
}

func (w *TournamentSyncWorker) Job(every time.Duration) services.Job {
	return services.Job{Name: "tournament-sync", Interval: every, Run: w.SyncOnce}
}
