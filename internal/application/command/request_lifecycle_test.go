package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
)

// Тесты администраторских переходов: complete, reject, undo.

func seedRequest(t *testing.T, transfers *fakeTransferRepo, status transfer.Status) *transfer.Request {
	t.Helper()

	req := &transfer.Request{
		ID:          "req-1",
		StudentID:   "student-1",
		SubjectID:   "subj-1",
		FromGroupID: "group-a",
		ToGroupID:   "group-b",
		Status:      status,
		Reason:      "r",
		CreatedAt:   testClock,
		UpdatedAt:   testClock,
	}
	entry := transfer.CreationEntry(req, shared.StudentActor(req.StudentID, ""), testClock)
	require.NoError(t, transfers.Create(context.Background(), req, entry))
	return req
}

func TestCompleteRequest(t *testing.T) {
	transfers := newFakeTransferRepo()
	req := seedRequest(t, transfers, transfer.StatusWaitingAdmin)

	publisher := &recordingPublisher{}
	h := NewCompleteRequestHandler(transfers, publisher).WithClock(fixedClock)

	result, err := h.Handle(context.Background(), CompleteRequestCommand{
		RequestID: req.ID,
		Actor:     shared.StaffActor("staff-1", "Иванов И.И."),
	})
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusCompleted, result.Request.Status)
	assert.False(t, result.AlreadyCompleted)

	// Перемещение студента выполняется хранилищем в транзакции завершения
	assert.Equal(t, 1, transfers.completeCalls)
	assert.Equal(t, 0, transfers.updateCalls)

	// Смена состава групп запускает переактивацию обеих групп
	groupEvents := publisher.byType(shared.EventGroupMembershipChanged)
	require.Len(t, groupEvents, 1)
	changed := groupEvents[0].(shared.GroupChangedEvent)
	assert.ElementsMatch(t, []string{"group-a", "group-b"}, changed.GroupIDs)
}

func TestCompleteRequest_Idempotent(t *testing.T) {
	transfers := newFakeTransferRepo()
	req := seedRequest(t, transfers, transfer.StatusCompleted)

	publisher := &recordingPublisher{}
	h := NewCompleteRequestHandler(transfers, publisher).WithClock(fixedClock)

	result, err := h.Handle(context.Background(), CompleteRequestCommand{RequestID: req.ID})
	require.NoError(t, err)

	assert.True(t, result.AlreadyCompleted)
	assert.Equal(t, 0, transfers.completeCalls)
	assert.Empty(t, publisher.events)
}

func TestCompleteRequest_NoMembershipMoveWithinSameGroup(t *testing.T) {
	transfers := newFakeTransferRepo()
	req := seedRequest(t, transfers, transfer.StatusWaitingAdmin)
	req.FromGroupID = req.ToGroupID
	require.NoError(t, transfers.Update(context.Background(), req, nil))
	transfers.updateCalls = 0

	publisher := &recordingPublisher{}
	h := NewCompleteRequestHandler(transfers, publisher).WithClock(fixedClock)

	_, err := h.Handle(context.Background(), CompleteRequestCommand{RequestID: req.ID})
	require.NoError(t, err)

	assert.Equal(t, 0, transfers.completeCalls)
	assert.Equal(t, 1, transfers.updateCalls)
	assert.Empty(t, publisher.byType(shared.EventGroupMembershipChanged))
}

func TestRejectRequest(t *testing.T) {
	transfers := newFakeTransferRepo()
	req := seedRequest(t, transfers, transfer.StatusWaitingAdmin)

	h := NewRejectRequestHandler(transfers, shared.NoopPublisher{}).WithClock(fixedClock)

	result, err := h.Handle(context.Background(), RejectRequestCommand{
		RequestID: req.ID,
		Comment:   "группа расформирована",
		Actor:     shared.StaffActor("staff-1", "Иванов И.И."),
	})
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusRejected, result.Request.Status)
	assert.Equal(t, "группа расформирована", result.Request.Comment)

	// Журнал фиксирует и статус, и комментарий
	changes, err := transfers.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	fields := make([]string, 0, len(changes))
	for _, c := range changes[1:] { // первая запись - создание
		fields = append(fields, c.Field)
	}
	assert.ElementsMatch(t, []string{transfer.FieldStatus, transfer.FieldComment}, fields)
}

func TestRejectRequest_CommentRequired(t *testing.T) {
	transfers := newFakeTransferRepo()
	req := seedRequest(t, transfers, transfer.StatusWaitingAdmin)

	h := NewRejectRequestHandler(transfers, shared.NoopPublisher{}).WithClock(fixedClock)

	_, err := h.Handle(context.Background(), RejectRequestCommand{RequestID: req.ID})
	assert.ErrorIs(t, err, transfer.ErrCommentRequired)

	// Заявка осталась нетронутой
	stored, err := transfers.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusWaitingAdmin, stored.Status)
	assert.Empty(t, stored.Comment)
}

func TestRejectRequest_CompletedIsFinal(t *testing.T) {
	transfers := newFakeTransferRepo()
	req := seedRequest(t, transfers, transfer.StatusCompleted)

	h := NewRejectRequestHandler(transfers, shared.NoopPublisher{}).WithClock(fixedClock)

	_, err := h.Handle(context.Background(), RejectRequestCommand{
		RequestID: req.ID,
		Comment:   "передумали",
	})
	assert.ErrorIs(t, err, transfer.ErrCompletedFinal)
}

func TestRejectRequest_Idempotent(t *testing.T) {
	transfers := newFakeTransferRepo()
	req := seedRequest(t, transfers, transfer.StatusRejected)

	h := NewRejectRequestHandler(transfers, shared.NoopPublisher{}).WithClock(fixedClock)

	result, err := h.Handle(context.Background(), RejectRequestCommand{RequestID: req.ID})
	require.NoError(t, err)
	assert.True(t, result.AlreadyRejected)
	assert.Equal(t, 0, transfers.updateCalls)
}

func TestUndoRequest_CompletedReversesMembership(t *testing.T) {
	transfers := newFakeTransferRepo()
	req := seedRequest(t, transfers, transfer.StatusCompleted)

	publisher := &recordingPublisher{}
	h := NewUndoRequestHandler(transfers, publisher).WithClock(fixedClock)

	result, err := h.Handle(context.Background(), UndoRequestCommand{
		RequestID: req.ID,
		Actor:     shared.StaffActor("staff-1", "Иванов И.И."),
	})
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusWaitingAdmin, result.Request.Status)
	assert.True(t, result.MembershipReversed)
	assert.Equal(t, 1, transfers.undoCalls)

	// Откат перемещения снова меняет состав групп
	assert.Len(t, publisher.byType(shared.EventGroupMembershipChanged), 1)
}

func TestUndoRequest_Rejected(t *testing.T) {
	transfers := newFakeTransferRepo()
	req := seedRequest(t, transfers, transfer.StatusRejected)

	publisher := &recordingPublisher{}
	h := NewUndoRequestHandler(transfers, publisher).WithClock(fixedClock)

	result, err := h.Handle(context.Background(), UndoRequestCommand{RequestID: req.ID})
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusWaitingAdmin, result.Request.Status)
	assert.False(t, result.MembershipReversed)
	assert.Equal(t, 0, transfers.undoCalls)
	assert.Equal(t, 1, transfers.updateCalls)
	assert.Empty(t, publisher.byType(shared.EventGroupMembershipChanged))
}

func TestUndoRequest_NotTerminal(t *testing.T) {
	transfers := newFakeTransferRepo()
	req := seedRequest(t, transfers, transfer.StatusWaitingAdmin)

	h := NewUndoRequestHandler(transfers, shared.NoopPublisher{}).WithClock(fixedClock)

	_, err := h.Handle(context.Background(), UndoRequestCommand{RequestID: req.ID})
	assert.ErrorIs(t, err, transfer.ErrNotTerminal)
}
