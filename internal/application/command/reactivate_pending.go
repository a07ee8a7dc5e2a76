package command

import (
	"context"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
)

// ══════════════════════════════════════════════════════════════════════════════
// REACTIVATION SWEEP
// Re-evaluates every queued request touching the given groups after a
// capacity-relevant change and promotes the ones whose violations cleared.
// The sweep only ever moves PENDING -> WAITING_TEACHER; requests already
// promoted are never demoted, even if capacity regressed since.
// ══════════════════════════════════════════════════════════════════════════════

// ReactivatePendingCommand contains the groups whose queued requests must
// be re-evaluated.
type ReactivatePendingCommand struct {
	// GroupIDs are the subject groups whose capacity, deadline or
	// membership changed.
	GroupIDs []string
}

// Validate validates the command.
func (c ReactivatePendingCommand) Validate() error {
	if len(c.GroupIDs) == 0 {
		return shared.NewDomainError("transfer", "Reactivate", shared.ErrEmptyValue, "group_ids are required")
	}
	return nil
}

// ReactivatePendingResult contains the outcome of a sweep.
type ReactivatePendingResult struct {
	// Examined is the number of queued requests re-evaluated.
	Examined int

	// Promoted holds the codes of requests moved to WAITING_TEACHER.
	Promoted []string
}

// ReactivatePendingHandler handles ReactivatePendingCommand.
type ReactivatePendingHandler struct {
	transfers transfer.Repository
	subjects  subject.Repository
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewReactivatePendingHandler creates a new ReactivatePendingHandler.
func NewReactivatePendingHandler(
	transfers transfer.Repository,
	subjects subject.Repository,
	publisher shared.EventPublisher,
) *ReactivatePendingHandler {
	return &ReactivatePendingHandler{
		transfers: transfers,
		subjects:  subjects,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (h *ReactivatePendingHandler) WithClock(now func() time.Time) *ReactivatePendingHandler {
	h.now = now
	return h
}

// Handle executes the reactivation sweep.
// Each promotion is persisted independently: one conflicting request must
// not keep the rest of the queue from being re-examined.
func (h *ReactivatePendingHandler) Handle(ctx context.Context, cmd ReactivatePendingCommand) (*ReactivatePendingResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	pending, err := h.transfers.ListPendingByGroups(ctx, cmd.GroupIDs)
	if err != nil {
		return nil, err
	}

	result := &ReactivatePendingResult{Examined: len(pending)}
	groups := make(map[string]*subject.Group)

	for _, req := range pending {
		fromGroup, err := h.group(ctx, groups, req.FromGroupID)
		if err != nil {
			return result, err
		}
		toGroup, err := h.group(ctx, groups, req.ToGroupID)
		if err != nil {
			return result, err
		}

		now := h.now()
		if len(transfer.Evaluate(fromGroup, toGroup, now)) > 0 {
			continue
		}

		before := req.Snapshot()
		if err := req.Promote(now); err != nil {
			return result, err
		}

		// System-triggered transition: no human actor in the audit entry.
		changes := transfer.Diff(before, req, nil, now)
		if err := h.transfers.Update(ctx, req, changes); err != nil {
			return result, err
		}

		result.Promoted = append(result.Promoted, req.Code)

		if h.publisher != nil {
			_ = h.publisher.Publish(shared.TransferStatusChangedEvent{
				BaseEvent: shared.NewBaseEvent(shared.EventTransferPromoted, req.ID),
				Code:      req.Code,
				StudentID: req.StudentID,
				SubjectID: req.SubjectID,
				FromGroup: req.FromGroupID,
				ToGroup:   req.ToGroupID,
				OldStatus: string(before.Status),
				NewStatus: string(req.Status),
			})
		}
	}

	return result, nil
}

// group loads a subject group through the per-sweep cache.
// An empty id means the request had no source group.
func (h *ReactivatePendingHandler) group(ctx context.Context, cache map[string]*subject.Group, id string) (*subject.Group, error) {
	if id == "" {
		return nil, nil
	}
	if g, ok := cache[id]; ok {
		return g, nil
	}
	g, err := h.subjects.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = g
	return g, nil
}
