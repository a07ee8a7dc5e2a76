package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
)

func newTestRequest(status Status) *Request {
	created := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	return &Request{
		ID:          "req-1",
		Code:        "05032026-0001",
		StudentID:   "student-1",
		SubjectID:   "subject-1",
		FromGroupID: "group-a",
		ToGroupID:   "group-b",
		Status:      status,
		Reason:      "хочу к другому преподавателю",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestPromote(t *testing.T) {
	now := time.Now()

	req := newTestRequest(StatusPending)
	require.NoError(t, req.Promote(now))
	assert.Equal(t, StatusWaitingTeacher, req.Status)
	assert.Equal(t, now, req.UpdatedAt)

	// Promote is only defined for queued requests
	for _, status := range []Status{StatusWaitingTeacher, StatusWaitingAdmin, StatusCompleted, StatusRejected} {
		req := newTestRequest(status)
		err := req.Promote(now)
		assert.ErrorIs(t, err, shared.ErrPrecondition, "status %s", status)
		assert.Equal(t, status, req.Status)
	}
}

func TestTeacherApprove(t *testing.T) {
	now := time.Now()

	req := newTestRequest(StatusWaitingTeacher)
	require.NoError(t, req.TeacherApprove("одобряю", now))
	assert.Equal(t, StatusWaitingAdmin, req.Status)
	assert.Equal(t, "одобряю", req.CommentTeacher)

	// Comment is optional on approval
	req = newTestRequest(StatusWaitingTeacher)
	require.NoError(t, req.TeacherApprove("", now))
	assert.Empty(t, req.CommentTeacher)

	// Not reviewable outside WAITING_TEACHER
	req = newTestRequest(StatusPending)
	assert.ErrorIs(t, req.TeacherApprove("одобряю", now), ErrNotAwaiting)
}

func TestTeacherApprove_AccumulatesComments(t *testing.T) {
	now := time.Now()

	req := newTestRequest(StatusWaitingTeacher)
	require.NoError(t, req.TeacherApprove("первый комментарий", now))

	// После undo и повторного прохождения цикла комментарии не затираются.
	req.Status = StatusWaitingTeacher
	require.NoError(t, req.TeacherApprove("второй комментарий", now))

	assert.Equal(t, "первый комментарий\nвторой комментарий", req.CommentTeacher)
}

func TestTeacherReject(t *testing.T) {
	now := time.Now()

	req := newTestRequest(StatusWaitingTeacher)
	require.NoError(t, req.TeacherReject("нет мест", now))
	assert.Equal(t, StatusRejected, req.Status)
	assert.Equal(t, "Заявка отклонена преподавателем. Комментарий от преподавателя: «нет мест»", req.CommentTeacher)

	// Comment is mandatory on rejection
	req = newTestRequest(StatusWaitingTeacher)
	assert.ErrorIs(t, req.TeacherReject("   ", now), ErrCommentRequired)
	assert.Equal(t, StatusWaitingTeacher, req.Status)

	req = newTestRequest(StatusWaitingAdmin)
	assert.ErrorIs(t, req.TeacherReject("нет мест", now), ErrNotAwaiting)
}

func TestComplete_Idempotent(t *testing.T) {
	now := time.Now()

	req := newTestRequest(StatusWaitingAdmin)
	changed, err := req.Complete(now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusCompleted, req.Status)

	// Второй вызов ничего не меняет
	later := now.Add(time.Hour)
	changed, err = req.Complete(later)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, now, req.UpdatedAt)
}

func TestReject(t *testing.T) {
	now := time.Now()

	req := newTestRequest(StatusWaitingAdmin)
	req.SetComment("группа расформирована", now)
	changed, err := req.Reject(now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusRejected, req.Status)

	// Повторное отклонение - no-op
	changed, err = req.Reject(now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	// Выполненную заявку отклонить нельзя, только undo
	req = newTestRequest(StatusCompleted)
	req.SetComment("не важно", now)
	_, err = req.Reject(now)
	assert.ErrorIs(t, err, ErrCompletedFinal)

	// Без комментария отклонение невозможно
	req = newTestRequest(StatusWaitingAdmin)
	_, err = req.Reject(now)
	assert.ErrorIs(t, err, ErrCommentRequired)
	assert.Equal(t, StatusWaitingAdmin, req.Status)
}

func TestReject_FromAnyNonTerminalStatus(t *testing.T) {
	now := time.Now()

	for _, status := range []Status{StatusPending, StatusWaitingTeacher, StatusWaitingAdmin} {
		req := newTestRequest(status)
		req.SetComment("отклонено администратором", now)
		changed, err := req.Reject(now)
		require.NoError(t, err, "status %s", status)
		assert.True(t, changed)
		assert.Equal(t, StatusRejected, req.Status)
	}
}

func TestUndo(t *testing.T) {
	now := time.Now()

	req := newTestRequest(StatusCompleted)
	wasCompleted, err := req.Undo(now)
	require.NoError(t, err)
	assert.True(t, wasCompleted)
	assert.Equal(t, StatusWaitingAdmin, req.Status)

	req = newTestRequest(StatusRejected)
	wasCompleted, err = req.Undo(now)
	require.NoError(t, err)
	assert.False(t, wasCompleted)
	assert.Equal(t, StatusWaitingAdmin, req.Status)

	req = newTestRequest(StatusWaitingTeacher)
	_, err = req.Undo(now)
	assert.ErrorIs(t, err, ErrNotTerminal)
}

func TestMovesMembership(t *testing.T) {
	req := newTestRequest(StatusWaitingAdmin)
	assert.True(t, req.MovesMembership())

	// Студент без исходной группы всё равно вступает в целевую
	req.FromGroupID = ""
	assert.True(t, req.MovesMembership())

	req.FromGroupID = req.ToGroupID
	assert.False(t, req.MovesMembership())
}

func TestTouchedGroupIDs(t *testing.T) {
	req := newTestRequest(StatusPending)
	assert.ElementsMatch(t, []string{"group-a", "group-b"}, req.TouchedGroupIDs())

	req.FromGroupID = ""
	assert.Equal(t, []string{"group-b"}, req.TouchedGroupIDs())
}

func TestValidate(t *testing.T) {
	req := newTestRequest(StatusPending)
	assert.NoError(t, req.Validate())

	req = newTestRequest(StatusPending)
	req.Reason = "  "
	assert.ErrorIs(t, req.Validate(), ErrReasonRequired)

	// Отклонённая заявка обязана нести комментарий
	req = newTestRequest(StatusRejected)
	assert.ErrorIs(t, req.Validate(), ErrCommentRequired)

	req.CommentTeacher = "Заявка отклонена преподавателем. Комментарий от преподавателя: «нет мест»"
	assert.NoError(t, req.Validate())

	req = newTestRequest(StatusRejected)
	req.Comment = "группа расформирована"
	assert.NoError(t, req.Validate())
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusWaitingTeacher.IsTerminal())
	assert.False(t, StatusWaitingAdmin.IsTerminal())
}
