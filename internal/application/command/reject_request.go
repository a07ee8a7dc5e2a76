package command

import (
	"context"
	"strings"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
)

// ══════════════════════════════════════════════════════════════════════════════
// REJECT TRANSFER COMMAND
// The administrator rejects a request from any non-terminal status.
// A rejection comment is mandatory and is validated before anything is
// persisted; rejecting an already-rejected request is a no-op.
// ══════════════════════════════════════════════════════════════════════════════

// RejectRequestCommand contains the data to reject a request.
type RejectRequestCommand struct {
	// RequestID identifies the request to reject.
	RequestID string

	// Comment is the administrator's rejection comment. When empty, the
	// comment already recorded on the request must be non-empty.
	Comment string

	// Actor is the acting administrator. Nil for system-triggered calls.
	Actor *shared.Actor
}

// Validate validates the command.
func (c RejectRequestCommand) Validate() error {
	if c.RequestID == "" {
		return shared.NewDomainError("transfer", "Reject", shared.ErrInvalidID, "request_id is required")
	}
	return nil
}

// RejectRequestResult contains the outcome of a rejection.
type RejectRequestResult struct {
	// Request is the request after the transition.
	Request *transfer.Request

	// AlreadyRejected is true when the call was an idempotent no-op.
	AlreadyRejected bool
}

// RejectRequestHandler handles RejectRequestCommand.
type RejectRequestHandler struct {
	transfers transfer.Repository
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewRejectRequestHandler creates a new RejectRequestHandler.
func NewRejectRequestHandler(transfers transfer.Repository, publisher shared.EventPublisher) *RejectRequestHandler {
	return &RejectRequestHandler{
		transfers: transfers,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (h *RejectRequestHandler) WithClock(now func() time.Time) *RejectRequestHandler {
	h.now = now
	return h
}

// Handle executes the reject transfer command.
func (h *RejectRequestHandler) Handle(ctx context.Context, cmd RejectRequestCommand) (*RejectRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	req, err := h.transfers.GetByID(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	before := req.Snapshot()

	if strings.TrimSpace(cmd.Comment) != "" {
		req.SetComment(cmd.Comment, now)
	}

	changed, err := req.Reject(now)
	if err != nil {
		// Restore the pre-call comment: a refused rejection must not leave
		// a half-applied annotation behind.
		*req = before
		return nil, err
	}
	if !changed {
		*req = before
		return &RejectRequestResult{Request: req, AlreadyRejected: true}, nil
	}

	changes := transfer.Diff(before, req, cmd.Actor, now)
	if err := h.transfers.Update(ctx, req, changes); err != nil {
		return nil, err
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.TransferStatusChangedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventTransferRejected, req.ID),
			Code:      req.Code,
			StudentID: req.StudentID,
			SubjectID: req.SubjectID,
			FromGroup: req.FromGroupID,
			ToGroup:   req.ToGroupID,
			OldStatus: string(before.Status),
			NewStatus: string(req.Status),
		})
	}

	return &RejectRequestResult{Request: req}, nil
}
