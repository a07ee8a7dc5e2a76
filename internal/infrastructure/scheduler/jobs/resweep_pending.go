// Package jobs contains the scheduled background jobs of the transfer hub.
package jobs

import (
	"context"
	"log/slog"

	"github.com/phystech-portal/transfer-hub/internal/application/command"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESWEEP PENDING JOB
// Safety net behind the event-driven reactivation: periodically re-examines
// every group touched by a queued request, so a request is promoted even if
// the corresponding group change event was lost (process restart, handler
// failure).
// ══════════════════════════════════════════════════════════════════════════════

// ResweepPendingJob periodically re-runs the reactivation sweep over all
// groups with queued requests.
type ResweepPendingJob struct {
	subjects   subject.Repository
	reactivate *command.ReactivatePendingHandler
	logger     *slog.Logger
}

// NewResweepPendingJob creates a new ResweepPendingJob.
func NewResweepPendingJob(
	subjects subject.Repository,
	reactivate *command.ReactivatePendingHandler,
	logger *slog.Logger,
) *ResweepPendingJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResweepPendingJob{
		subjects:   subjects,
		reactivate: reactivate,
		logger:     logger,
	}
}

// Name returns the unique name of the job.
func (j *ResweepPendingJob) Name() string {
	return "resweep_pending"
}

// Description returns a human-readable description of the job.
func (j *ResweepPendingJob) Description() string {
	return "Re-evaluates queued transfer requests against current group state"
}

// Run executes the job.
func (j *ResweepPendingJob) Run(ctx context.Context) error {
	groupIDs, err := j.subjects.GroupsWithPendingRequests(ctx)
	if err != nil {
		return err
	}
	if len(groupIDs) == 0 {
		return nil
	}

	result, err := j.reactivate.Handle(ctx, command.ReactivatePendingCommand{GroupIDs: groupIDs})
	if err != nil {
		return err
	}

	j.logger.Info("resweep finished",
		slog.Int("groups", len(groupIDs)),
		slog.Int("examined", result.Examined),
		slog.Int("promoted", len(result.Promoted)),
	)

	return nil
}
