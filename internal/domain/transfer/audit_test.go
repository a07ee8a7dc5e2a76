package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
)

func TestDiff_OnlyChangedFields(t *testing.T) {
	now := time.Now()
	actor := shared.StaffActor("staff-1", "Иванов И.И.")

	req := newTestRequest(StatusWaitingAdmin)
	before := req.Snapshot()

	req.SetComment("группа расформирована", now)
	_, err := req.Reject(now)
	require.NoError(t, err)

	changes := Diff(before, req, actor, now)
	require.Len(t, changes, 2)

	// Порядок записей одного перехода фиксирован: сначала статус, затем
	// комментарии. Хранилище сохраняет порядок вставки.
	assert.Equal(t, FieldStatus, changes[0].Field)
	assert.Equal(t, FieldComment, changes[1].Field)

	byField := map[string]FieldChange{}
	for _, c := range changes {
		byField[c.Field] = c
	}

	status := byField[FieldStatus]
	assert.Equal(t, req.ID, status.RequestID)
	assert.Equal(t, string(StatusWaitingAdmin), status.OldValue)
	assert.Equal(t, string(StatusRejected), status.NewValue)
	assert.Equal(t, actor, status.Actor)
	assert.Equal(t, now, status.Timestamp)

	comment := byField[FieldComment]
	assert.Equal(t, "", comment.OldValue)
	assert.Equal(t, "группа расформирована", comment.NewValue)
}

func TestDiff_NoChanges(t *testing.T) {
	req := newTestRequest(StatusPending)
	before := req.Snapshot()

	assert.Empty(t, Diff(before, req, nil, time.Now()))
}

func TestDiff_NilActorForSystemTransition(t *testing.T) {
	now := time.Now()

	req := newTestRequest(StatusPending)
	before := req.Snapshot()
	require.NoError(t, req.Promote(now))

	changes := Diff(before, req, nil, now)
	require.Len(t, changes, 1)
	assert.Equal(t, FieldStatus, changes[0].Field)
	assert.Nil(t, changes[0].Actor)
}

func TestCreationEntry(t *testing.T) {
	now := time.Now()
	actor := shared.StudentActor("student-1", "Петров П.П.")

	req := newTestRequest(StatusPending)
	entry := CreationEntry(req, actor, now)

	assert.Equal(t, req.ID, entry.RequestID)
	assert.Equal(t, FieldStatus, entry.Field)
	assert.Equal(t, "", entry.OldValue)
	assert.Equal(t, string(StatusPending), entry.NewValue)
	assert.Equal(t, actor, entry.Actor)
}
