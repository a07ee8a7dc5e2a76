package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
	"github.com/phystech-portal/transfer-hub/pkg/timeutil"
)

// testClock - фиксированный момент времени для детерминированных кодов.
var testClock = timeutil.DateTime(2026, 3, 5, 12, 0, 0)

func fixedClock() time.Time { return testClock }

// newCreateFixture собирает предмет с двумя группами: студент student-1
// состоит в group-a, целевая группа group-b свободна.
func newCreateFixture() (*fakeTransferRepo, *fakeSubjectRepo) {
	subjects := newFakeSubjectRepo()
	subjects.subjects["subj-1"] = &subject.Subject{ID: "subj-1", Name: "Матанализ"}

	groupA := &subject.Group{
		ID:          "group-a",
		SubjectID:   "subj-1",
		MinStudents: 2,
		MaxStudents: 5,
		StudentIDs:  []string{"student-1", "student-2", "student-3"},
	}
	groupB := &subject.Group{
		ID:          "group-b",
		SubjectID:   "subj-1",
		MinStudents: 2,
		MaxStudents: 5,
		StudentIDs:  []string{"student-4"},
	}
	subjects.groups[groupA.ID] = groupA
	subjects.groups[groupB.ID] = groupB

	return newFakeTransferRepo(), subjects
}

func TestCreateRequest_StraightToTeacher(t *testing.T) {
	transfers, subjects := newCreateFixture()
	publisher := &recordingPublisher{}
	h := NewCreateRequestHandler(transfers, subjects, publisher).WithClock(fixedClock)

	result, err := h.Handle(context.Background(), CreateRequestCommand{
		StudentID: "student-1",
		SubjectID: "subj-1",
		ToGroupID: "group-b",
		Reason:    "расписание удобнее",
	})
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusWaitingTeacher, result.Request.Status)
	assert.Empty(t, result.Violations)
	assert.False(t, result.Queued())
	assert.Equal(t, "group-a", result.Request.FromGroupID)
	assert.Equal(t, "05032026-0001", result.Request.Code)

	// Запись журнала о начальном статусе создаётся вместе с заявкой
	changes, err := transfers.ListByRequest(context.Background(), result.Request.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, transfer.FieldStatus, changes[0].Field)
	assert.Equal(t, string(transfer.StatusWaitingTeacher), changes[0].NewValue)

	assert.Len(t, publisher.byType(shared.EventTransferCreated), 1)
}

func TestCreateRequest_QueuedOnViolations(t *testing.T) {
	transfers, subjects := newCreateFixture()
	// Целевая группа заполнена до максимума
	subjects.groups["group-b"].StudentIDs = []string{"s4", "s5", "s6", "s7", "s8"}

	h := NewCreateRequestHandler(transfers, subjects, shared.NoopPublisher{}).WithClock(fixedClock)

	result, err := h.Handle(context.Background(), CreateRequestCommand{
		StudentID: "student-1",
		SubjectID: "subj-1",
		ToGroupID: "group-b",
		Reason:    "расписание удобнее",
	})
	require.NoError(t, err)

	// Нарушение - не отказ: заявка принимается и ставится в очередь
	assert.Equal(t, transfer.StatusPending, result.Request.Status)
	assert.Equal(t, []transfer.Violation{transfer.ViolationDestinationFull}, result.Violations)
	assert.True(t, result.Queued())
}

func TestCreateRequest_SequentialDailyCodes(t *testing.T) {
	transfers, subjects := newCreateFixture()
	subjects.groups["group-c"] = &subject.Group{
		ID: "group-c", SubjectID: "subj-1", MinStudents: 2, MaxStudents: 5,
	}
	h := NewCreateRequestHandler(transfers, subjects, shared.NoopPublisher{}).WithClock(fixedClock)

	first, err := h.Handle(context.Background(), CreateRequestCommand{
		StudentID: "student-1", SubjectID: "subj-1", ToGroupID: "group-b", Reason: "r",
	})
	require.NoError(t, err)

	second, err := h.Handle(context.Background(), CreateRequestCommand{
		StudentID: "student-2", SubjectID: "subj-1", ToGroupID: "group-c", Reason: "r",
	})
	require.NoError(t, err)

	assert.Equal(t, "05032026-0001", first.Request.Code)
	assert.Equal(t, "05032026-0002", second.Request.Code)
}

func TestCreateRequest_DuplicateOpen(t *testing.T) {
	transfers, subjects := newCreateFixture()
	h := NewCreateRequestHandler(transfers, subjects, shared.NoopPublisher{}).WithClock(fixedClock)

	cmd := CreateRequestCommand{
		StudentID: "student-1", SubjectID: "subj-1", ToGroupID: "group-b", Reason: "r",
	}
	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, transfer.ErrDuplicateOpen)
}

func TestCreateRequest_SameGroup(t *testing.T) {
	transfers, subjects := newCreateFixture()
	h := NewCreateRequestHandler(transfers, subjects, shared.NoopPublisher{}).WithClock(fixedClock)

	_, err := h.Handle(context.Background(), CreateRequestCommand{
		StudentID: "student-1", SubjectID: "subj-1", ToGroupID: "group-a", Reason: "r",
	})
	assert.ErrorIs(t, err, transfer.ErrSameGroup)
}

func TestCreateRequest_GroupOfAnotherSubject(t *testing.T) {
	transfers, subjects := newCreateFixture()
	subjects.subjects["subj-2"] = &subject.Subject{ID: "subj-2", Name: "Физика"}
	subjects.groups["group-x"] = &subject.Group{ID: "group-x", SubjectID: "subj-2"}

	h := NewCreateRequestHandler(transfers, subjects, shared.NoopPublisher{}).WithClock(fixedClock)

	_, err := h.Handle(context.Background(), CreateRequestCommand{
		StudentID: "student-1", SubjectID: "subj-1", ToGroupID: "group-x", Reason: "r",
	})
	assert.ErrorIs(t, err, subject.ErrGroupMismatch)
}

func TestCreateRequest_NoSourceGroup(t *testing.T) {
	transfers, subjects := newCreateFixture()
	h := NewCreateRequestHandler(transfers, subjects, shared.NoopPublisher{}).WithClock(fixedClock)

	// student-9 не состоит ни в одной группе предмета
	result, err := h.Handle(context.Background(), CreateRequestCommand{
		StudentID: "student-9", SubjectID: "subj-1", ToGroupID: "group-b", Reason: "r",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Request.FromGroupID)
	assert.Equal(t, transfer.StatusWaitingTeacher, result.Request.Status)
}

func TestCreateRequest_ReasonRequired(t *testing.T) {
	transfers, subjects := newCreateFixture()
	h := NewCreateRequestHandler(transfers, subjects, shared.NoopPublisher{}).WithClock(fixedClock)

	_, err := h.Handle(context.Background(), CreateRequestCommand{
		StudentID: "student-1", SubjectID: "subj-1", ToGroupID: "group-b", Reason: "   ",
	})
	assert.ErrorIs(t, err, transfer.ErrReasonRequired)
}
