package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phystech-portal/transfer-hub/internal/application/command"
	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
)

type stubTransfers struct {
	transfer.Repository
	pending []*transfer.Request
	updated []*transfer.Request
}

func (s *stubTransfers) ListPendingByGroups(ctx context.Context, groupIDs []string) ([]*transfer.Request, error) {
	return s.pending, nil
}

func (s *stubTransfers) Update(ctx context.Context, req *transfer.Request, changes []transfer.FieldChange) error {
	s.updated = append(s.updated, req)
	return nil
}

type stubSubjects struct {
	subject.Repository
	groups map[string]*subject.Group
}

func (s *stubSubjects) GetGroup(ctx context.Context, id string) (*subject.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, subject.ErrGroupNotFound
	}
	return g, nil
}

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Get(ctx context.Context, groupID string) (subject.Occupancy, bool, error) {
	return subject.Occupancy{}, false, nil
}

func (c *recordingCache) Set(ctx context.Context, occ subject.Occupancy) error { return nil }

func (c *recordingCache) Invalidate(ctx context.Context, groupIDs ...string) error {
	c.invalidated = append(c.invalidated, groupIDs...)
	return nil
}

func newHandlerFixture(pending []*transfer.Request) (*stubTransfers, *recordingCache, *OnGroupChangedHandler) {
	transfers := &stubTransfers{pending: pending}
	subjects := &stubSubjects{groups: map[string]*subject.Group{
		"group-a": {ID: "group-a", SubjectID: "subj-1", MinStudents: 1, MaxStudents: 5, StudentIDs: []string{"s1", "s2"}},
		"group-b": {ID: "group-b", SubjectID: "subj-1", MinStudents: 1, MaxStudents: 5, StudentIDs: []string{"s3"}},
	}}
	cache := &recordingCache{}
	reactivate := command.NewReactivatePendingHandler(transfers, subjects, shared.NoopPublisher{})
	return transfers, cache, NewOnGroupChangedHandler(reactivate, cache, nil)
}

func TestOnGroupChanged_InvalidatesCacheAndSweeps(t *testing.T) {
	pending := &transfer.Request{
		ID:          "req-1",
		Code:        "05032026-0001",
		StudentID:   "s1",
		SubjectID:   "subj-1",
		FromGroupID: "group-a",
		ToGroupID:   "group-b",
		Status:      transfer.StatusPending,
		Reason:      "r",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	transfers, cache, h := newHandlerFixture([]*transfer.Request{pending})

	err := h.Handle(shared.NewGroupChangedEvent(shared.EventGroupCapacityChanged, "group-b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"group-b"}, cache.invalidated)
	require.Len(t, transfers.updated, 1)
	assert.Equal(t, transfer.StatusWaitingTeacher, transfers.updated[0].Status)
}

func TestOnGroupChanged_EmptyGroupListIsNoOp(t *testing.T) {
	transfers, cache, h := newHandlerFixture(nil)

	err := h.Handle(shared.GroupChangedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventGroupCapacityChanged, ""),
	})
	require.NoError(t, err)
	assert.Empty(t, cache.invalidated)
	assert.Empty(t, transfers.updated)
}

func TestOnGroupChanged_IgnoresForeignEventType(t *testing.T) {
	transfers, cache, h := newHandlerFixture(nil)

	err := h.Handle(shared.NewBaseEvent(shared.EventTransferCreated, "req-1"))
	require.NoError(t, err)
	assert.Empty(t, cache.invalidated)
	assert.Empty(t, transfers.updated)
}
