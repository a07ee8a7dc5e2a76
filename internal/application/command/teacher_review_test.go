package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/teacher"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
)

// newReviewFixture кладёт в хранилище заявку в WAITING_TEACHER и
// преподавателя, ведущего целевую группу.
func newReviewFixture(t *testing.T) (*fakeTransferRepo, *fakeTeacherRepo, *transfer.Request) {
	t.Helper()

	transfers, subjects := newCreateFixture()
	subjects.groups["group-b"].TeacherIDs = []string{"teacher-1"}

	teachers := newFakeTeacherRepo(subjects)
	teachers.teachers["teacher-1"] = &teacher.Teacher{
		ID: "teacher-1", FullName: "Сидоров С.С.", Email: "sidorov@example.org",
	}
	teachers.teachers["teacher-2"] = &teacher.Teacher{
		ID: "teacher-2", FullName: "Кузнецов К.К.", Email: "kuznetsov@example.org",
	}

	create := NewCreateRequestHandler(transfers, subjects, shared.NoopPublisher{}).WithClock(fixedClock)
	result, err := create.Handle(context.Background(), CreateRequestCommand{
		StudentID: "student-1", SubjectID: "subj-1", ToGroupID: "group-b", Reason: "r",
	})
	require.NoError(t, err)
	require.Equal(t, transfer.StatusWaitingTeacher, result.Request.Status)

	return transfers, teachers, result.Request
}

func TestTeacherApprove_MovesToAdminQueue(t *testing.T) {
	transfers, teachers, req := newReviewFixture(t)
	publisher := &recordingPublisher{}
	h := NewTeacherReviewHandler(transfers, teachers, publisher).WithClock(fixedClock)

	result, err := h.Approve(context.Background(), TeacherReviewCommand{
		RequestID: req.ID,
		TeacherID: "teacher-1",
		Comment:   "не против",
	})
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusWaitingAdmin, result.Request.Status)
	assert.Equal(t, "не против", result.Request.CommentTeacher)
	assert.Len(t, publisher.byType(shared.EventTransferTeacherApproved), 1)

	// Переход зафиксирован в журнале: смена статуса и комментарий
	changes, err := transfers.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)

	byField := make(map[string]transfer.FieldChange)
	for _, c := range changes[1:] { // первая запись - создание заявки
		byField[c.Field] = c
	}

	statusEntry, ok := byField[transfer.FieldStatus]
	require.True(t, ok)
	assert.Equal(t, string(transfer.StatusWaitingTeacher), statusEntry.OldValue)
	assert.Equal(t, string(transfer.StatusWaitingAdmin), statusEntry.NewValue)
	require.NotNil(t, statusEntry.Actor)
	assert.Equal(t, shared.ActorTeacher, statusEntry.Actor.Kind)

	commentEntry, ok := byField[transfer.FieldCommentTeacher]
	require.True(t, ok)
	assert.Equal(t, "не против", commentEntry.NewValue)
}

func TestTeacherReject_RequiresComment(t *testing.T) {
	transfers, teachers, req := newReviewFixture(t)
	h := NewTeacherReviewHandler(transfers, teachers, shared.NoopPublisher{}).WithClock(fixedClock)

	_, err := h.Reject(context.Background(), TeacherReviewCommand{
		RequestID: req.ID,
		TeacherID: "teacher-1",
	})
	assert.ErrorIs(t, err, transfer.ErrCommentRequired)

	// Заявка не изменилась
	stored, err := transfers.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusWaitingTeacher, stored.Status)
}

func TestTeacherReject_RecordsWrappedComment(t *testing.T) {
	transfers, teachers, req := newReviewFixture(t)
	h := NewTeacherReviewHandler(transfers, teachers, shared.NoopPublisher{}).WithClock(fixedClock)

	result, err := h.Reject(context.Background(), TeacherReviewCommand{
		RequestID: req.ID,
		TeacherID: "teacher-1",
		Comment:   "нет мест",
	})
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusRejected, result.Request.Status)
	assert.Equal(t,
		"Заявка отклонена преподавателем. Комментарий от преподавателя: «нет мест»",
		result.Request.CommentTeacher)
}

func TestTeacherReview_OnlyInstructorOfTargetGroup(t *testing.T) {
	transfers, teachers, req := newReviewFixture(t)
	h := NewTeacherReviewHandler(transfers, teachers, shared.NoopPublisher{}).WithClock(fixedClock)

	// teacher-2 не ведёт целевую группу
	_, err := h.Approve(context.Background(), TeacherReviewCommand{
		RequestID: req.ID,
		TeacherID: "teacher-2",
	})
	assert.ErrorIs(t, err, transfer.ErrNotInstructing)
}

func TestTeacherReview_NotAwaiting(t *testing.T) {
	transfers, teachers, req := newReviewFixture(t)
	h := NewTeacherReviewHandler(transfers, teachers, shared.NoopPublisher{}).WithClock(fixedClock)

	// Первый approve переводит заявку в WAITING_ADMIN
	_, err := h.Approve(context.Background(), TeacherReviewCommand{
		RequestID: req.ID, TeacherID: "teacher-1",
	})
	require.NoError(t, err)

	// Повторный approve не проходит
	_, err = h.Approve(context.Background(), TeacherReviewCommand{
		RequestID: req.ID, TeacherID: "teacher-1",
	})
	assert.ErrorIs(t, err, transfer.ErrNotAwaiting)
}
