package command

import (
	"context"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHANGE GROUP LIMITS COMMAND
// Adjusts a subject group's capacity bounds and submission deadline, then
// publishes a group-changed event so the reactivation sweep re-examines the
// queued requests that the change may have unblocked.
// ══════════════════════════════════════════════════════════════════════════════

// ChangeGroupLimitsCommand contains the data needed to update group limits.
type ChangeGroupLimitsCommand struct {
	// GroupID identifies the subject group to update.
	GroupID string

	// MinStudents is the new lower bound for group size.
	MinStudents int

	// MaxStudents is the new upper bound for group size.
	MaxStudents int

	// Deadline is the new submission deadline. A zero value removes the
	// deadline entirely.
	Deadline time.Time

	// Actor is the staff member making the change. Optional, used for logging.
	Actor *shared.Actor
}

// Validate validates the command.
func (c ChangeGroupLimitsCommand) Validate() error {
	if c.GroupID == "" {
		return shared.NewDomainError("subject", "ChangeGroupLimits", shared.ErrEmptyValue, "group_id is required")
	}
	if c.MinStudents < 0 {
		return shared.NewDomainError("subject", "ChangeGroupLimits", shared.ErrNegativeValue, "min_students cannot be negative")
	}
	if c.MaxStudents < 0 {
		return shared.NewDomainError("subject", "ChangeGroupLimits", shared.ErrNegativeValue, "max_students cannot be negative")
	}
	return nil
}

// ChangeGroupLimitsResult contains the updated group.
type ChangeGroupLimitsResult struct {
	Group *subject.Group
}

// ChangeGroupLimitsHandler handles ChangeGroupLimitsCommand.
type ChangeGroupLimitsHandler struct {
	subjects  subject.Repository
	publisher shared.EventPublisher
}

// NewChangeGroupLimitsHandler creates a new ChangeGroupLimitsHandler.
func NewChangeGroupLimitsHandler(subjects subject.Repository, publisher shared.EventPublisher) *ChangeGroupLimitsHandler {
	return &ChangeGroupLimitsHandler{subjects: subjects, publisher: publisher}
}

// Handle executes the command.
func (h *ChangeGroupLimitsHandler) Handle(ctx context.Context, cmd ChangeGroupLimitsCommand) (*ChangeGroupLimitsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	group, err := h.subjects.GetGroup(ctx, cmd.GroupID)
	if err != nil {
		return nil, err
	}

	capacityChanged := group.MinStudents != cmd.MinStudents || group.MaxStudents != cmd.MaxStudents
	deadlineChanged := !group.Deadline.Equal(cmd.Deadline)
	if !capacityChanged && !deadlineChanged {
		return &ChangeGroupLimitsResult{Group: group}, nil
	}

	if err := h.subjects.UpdateGroupLimits(ctx, cmd.GroupID, cmd.MinStudents, cmd.MaxStudents, cmd.Deadline); err != nil {
		return nil, err
	}

	group.MinStudents = cmd.MinStudents
	group.MaxStudents = cmd.MaxStudents
	group.Deadline = cmd.Deadline

	if h.publisher != nil {
		if capacityChanged {
			_ = h.publisher.Publish(shared.NewGroupChangedEvent(shared.EventGroupCapacityChanged, group.ID))
		}
		if deadlineChanged {
			_ = h.publisher.Publish(shared.NewGroupChangedEvent(shared.EventGroupDeadlineChanged, group.ID))
		}
	}

	return &ChangeGroupLimitsResult{Group: group}, nil
}
