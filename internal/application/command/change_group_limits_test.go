package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
	"github.com/phystech-portal/transfer-hub/pkg/timeutil"
)

func newLimitsFixture() (*fakeSubjectRepo, *recordingPublisher, *ChangeGroupLimitsHandler) {
	_, subjects := newCreateFixture()
	publisher := &recordingPublisher{}
	return subjects, publisher, NewChangeGroupLimitsHandler(subjects, publisher)
}

func TestChangeGroupLimits_CapacityChange(t *testing.T) {
	subjects, publisher, h := newLimitsFixture()

	result, err := h.Handle(context.Background(), ChangeGroupLimitsCommand{
		GroupID: "group-b", MinStudents: 1, MaxStudents: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Group.MinStudents)
	assert.Equal(t, 10, result.Group.MaxStudents)
	assert.Equal(t, 10, subjects.groups["group-b"].MaxStudents)

	assert.Len(t, publisher.byType(shared.EventGroupCapacityChanged), 1)
	assert.Empty(t, publisher.byType(shared.EventGroupDeadlineChanged))
}

func TestChangeGroupLimits_DeadlineChange(t *testing.T) {
	subjects, publisher, h := newLimitsFixture()
	g := subjects.groups["group-b"]
	deadline := timeutil.DateTime(2026, 4, 1, 23, 59, 59)

	result, err := h.Handle(context.Background(), ChangeGroupLimitsCommand{
		GroupID: "group-b", MinStudents: g.MinStudents, MaxStudents: g.MaxStudents,
		Deadline: deadline,
	})
	require.NoError(t, err)

	assert.True(t, result.Group.Deadline.Equal(deadline))
	assert.Empty(t, publisher.byType(shared.EventGroupCapacityChanged))
	assert.Len(t, publisher.byType(shared.EventGroupDeadlineChanged), 1)
}

func TestChangeGroupLimits_CapacityAndDeadline(t *testing.T) {
	_, publisher, h := newLimitsFixture()

	_, err := h.Handle(context.Background(), ChangeGroupLimitsCommand{
		GroupID: "group-b", MinStudents: 2, MaxStudents: 8,
		Deadline: timeutil.DateTime(2026, 4, 1, 23, 59, 59),
	})
	require.NoError(t, err)

	assert.Len(t, publisher.byType(shared.EventGroupCapacityChanged), 1)
	assert.Len(t, publisher.byType(shared.EventGroupDeadlineChanged), 1)
}

func TestChangeGroupLimits_NoOpPublishesNothing(t *testing.T) {
	subjects, publisher, h := newLimitsFixture()
	g := subjects.groups["group-b"]

	_, err := h.Handle(context.Background(), ChangeGroupLimitsCommand{
		GroupID: "group-b", MinStudents: g.MinStudents, MaxStudents: g.MaxStudents,
		Deadline: g.Deadline,
	})
	require.NoError(t, err)

	assert.Empty(t, publisher.events)
}

func TestChangeGroupLimits_ZeroDeadlineRemovesIt(t *testing.T) {
	subjects, _, h := newLimitsFixture()
	g := subjects.groups["group-b"]
	g.Deadline = timeutil.DateTime(2026, 4, 1, 23, 59, 59)

	result, err := h.Handle(context.Background(), ChangeGroupLimitsCommand{
		GroupID: "group-b", MinStudents: g.MinStudents, MaxStudents: g.MaxStudents,
		Deadline: time.Time{},
	})
	require.NoError(t, err)

	assert.False(t, result.Group.HasDeadline())
}

func TestChangeGroupLimits_Validation(t *testing.T) {
	_, _, h := newLimitsFixture()

	_, err := h.Handle(context.Background(), ChangeGroupLimitsCommand{MinStudents: 1, MaxStudents: 5})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), ChangeGroupLimitsCommand{
		GroupID: "group-b", MinStudents: -1, MaxStudents: 5,
	})
	assert.True(t, shared.IsValidation(err))
}

func TestChangeGroupLimits_UnknownGroup(t *testing.T) {
	_, _, h := newLimitsFixture()

	_, err := h.Handle(context.Background(), ChangeGroupLimitsCommand{
		GroupID: "group-z", MinStudents: 1, MaxStudents: 5,
	})
	assert.ErrorIs(t, err, subject.ErrGroupNotFound)
}
