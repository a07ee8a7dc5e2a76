package command

import (
	"context"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
	"github.com/phystech-portal/transfer-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNDO TRANSFER COMMAND
// Returns a completed or rejected request to the administrator's queue.
// Undoing a completed transfer reverses the membership move atomically
// with the status change, and therefore triggers the reactivation sweep.
// ══════════════════════════════════════════════════════════════════════════════

// UndoRequestCommand contains the data to undo a terminal decision.
type UndoRequestCommand struct {
	// RequestID identifies the request to undo.
	RequestID string

	// Actor is the acting administrator. Nil for system-triggered calls.
	Actor *shared.Actor
}

// Validate validates the command.
func (c UndoRequestCommand) Validate() error {
	if c.RequestID == "" {
		return shared.NewDomainError("transfer", "Undo", shared.ErrInvalidID, "request_id is required")
	}
	return nil
}

// UndoRequestResult contains the outcome of an undo.
type UndoRequestResult struct {
	// Request is the request after the transition.
	Request *transfer.Request

	// MembershipReversed is true when a completed transfer's membership
	// move was rolled back.
	MembershipReversed bool
}

// UndoRequestHandler handles UndoRequestCommand.
type UndoRequestHandler struct {
	transfers transfer.Repository
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	now       func() time.Time
}

// NewUndoRequestHandler creates a new UndoRequestHandler.
func NewUndoRequestHandler(transfers transfer.Repository, publisher shared.EventPublisher) *UndoRequestHandler {
	return &UndoRequestHandler{
		transfers: transfers,
		publisher: publisher,
		retrier:   retry.TransactionRetrier(),
		now:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (h *UndoRequestHandler) WithClock(now func() time.Time) *UndoRequestHandler {
	h.now = now
	return h
}

// Handle executes the undo transfer command.
func (h *UndoRequestHandler) Handle(ctx context.Context, cmd UndoRequestCommand) (*UndoRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	req, err := h.transfers.GetByID(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	before := req.Snapshot()
	wasCompleted, err := req.Undo(now)
	if err != nil {
		return nil, err
	}

	reverseMove := wasCompleted && req.MovesMembership()
	changes := transfer.Diff(before, req, cmd.Actor, now)

	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		var opErr error
		if reverseMove {
			opErr = h.transfers.UndoTransfer(ctx, req, changes)
		} else {
			opErr = h.transfers.Update(ctx, req, changes)
		}
		if opErr != nil && shared.IsRetryable(opErr) {
			return retry.Retryable(opErr)
		}
		return opErr
	})
	if err != nil {
		return nil, err
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.TransferStatusChangedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventTransferUndone, req.ID),
			Code:      req.Code,
			StudentID: req.StudentID,
			SubjectID: req.SubjectID,
			FromGroup: req.FromGroupID,
			ToGroup:   req.ToGroupID,
			OldStatus: string(before.Status),
			NewStatus: string(req.Status),
		})
		if reverseMove {
			_ = h.publisher.Publish(shared.NewGroupChangedEvent(shared.EventGroupMembershipChanged, req.TouchedGroupIDs()...))
		}
	}

	return &UndoRequestResult{Request: req, MembershipReversed: reverseMove}, nil
}
