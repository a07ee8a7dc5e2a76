package command

import (
	"context"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
	"github.com/phystech-portal/transfer-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE TRANSFER COMMAND
// The administrator executes the transfer: the student leaves the source
// group and joins the target group, atomically with the status change.
// This is the only forward mutation of group membership in the system,
// so its completion triggers the reactivation sweep for both groups.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteRequestCommand contains the data to complete a request.
type CompleteRequestCommand struct {
	// RequestID identifies the request to complete.
	RequestID string

	// Actor is the acting administrator. Nil for system-triggered calls.
	Actor *shared.Actor
}

// Validate validates the command.
func (c CompleteRequestCommand) Validate() error {
	if c.RequestID == "" {
		return shared.NewDomainError("transfer", "Complete", shared.ErrInvalidID, "request_id is required")
	}
	return nil
}

// CompleteRequestResult contains the outcome of a completion.
type CompleteRequestResult struct {
	// Request is the request after the transition.
	Request *transfer.Request

	// AlreadyCompleted is true when the call was an idempotent no-op.
	AlreadyCompleted bool
}

// CompleteRequestHandler handles CompleteRequestCommand.
type CompleteRequestHandler struct {
	transfers transfer.Repository
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	now       func() time.Time
}

// NewCompleteRequestHandler creates a new CompleteRequestHandler.
func NewCompleteRequestHandler(transfers transfer.Repository, publisher shared.EventPublisher) *CompleteRequestHandler {
	return &CompleteRequestHandler{
		transfers: transfers,
		publisher: publisher,
		retrier:   retry.TransactionRetrier(),
		now:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (h *CompleteRequestHandler) WithClock(now func() time.Time) *CompleteRequestHandler {
	h.now = now
	return h
}

// Handle executes the complete transfer command.
func (h *CompleteRequestHandler) Handle(ctx context.Context, cmd CompleteRequestCommand) (*CompleteRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	req, err := h.transfers.GetByID(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	before := req.Snapshot()
	changed, err := req.Complete(now)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Idempotent: completing a completed request succeeds without
		// touching membership again.
		return &CompleteRequestResult{Request: req, AlreadyCompleted: true}, nil
	}

	changes := transfer.Diff(before, req, cmd.Actor, now)

	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		var opErr error
		if req.MovesMembership() {
			opErr = h.transfers.CompleteTransfer(ctx, req, changes)
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

	h.publishStatus(req, before.Status)
	if req.MovesMembership() {
		// Membership counts just changed: queued requests touching either
		// group may have become eligible.
		h.publishGroupChange(req.TouchedGroupIDs())
	}

	return &CompleteRequestResult{Request: req}, nil
}

func (h *CompleteRequestHandler) publishStatus(req *transfer.Request, oldStatus transfer.Status) {
	if h.publisher == nil {
		return
	}
	_ = h.publisher.Publish(shared.TransferStatusChangedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventTransferCompleted, req.ID),
		Code:      req.Code,
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		FromGroup: req.FromGroupID,
		ToGroup:   req.ToGroupID,
		OldStatus: string(oldStatus),
		NewStatus: string(req.Status),
	})
}

func (h *CompleteRequestHandler) publishGroupChange(groupIDs []string) {
	if h.publisher == nil {
		return
	}
	_ = h.publisher.Publish(shared.NewGroupChangedEvent(shared.EventGroupMembershipChanged, groupIDs...))
}
