package command

import (
	"context"
	"sort"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
	"github.com/phystech-portal/transfer-hub/internal/domain/teacher"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
)

// In-memory реализации репозиториев для тестов слоя команд.

// fakeTransferRepo хранит заявки и журнал в памяти и присваивает коды по
// той же схеме, что и PostgreSQL-хранилище.
type fakeTransferRepo struct {
	requests map[string]*transfer.Request
	changes  map[string][]transfer.FieldChange
	seq      map[string]int // дневной префикс -> последний номер

	completeCalls int
	undoCalls     int
	updateCalls   int
}

func newFakeTransferRepo() *fakeTransferRepo {
	return &fakeTransferRepo{
		requests: make(map[string]*transfer.Request),
		changes:  make(map[string][]transfer.FieldChange),
		seq:      make(map[string]int),
	}
}

func (r *fakeTransferRepo) Create(ctx context.Context, req *transfer.Request, entry transfer.FieldChange) error {
	open, _ := r.HasOpen(ctx, req.StudentID, req.SubjectID)
	if open {
		return transfer.ErrDuplicateOpen
	}

	prefix := transfer.CodePrefix(req.CreatedAt)
	r.seq[prefix]++
	req.Code = transfer.FormatCode(prefix, r.seq[prefix])

	clone := *req
	r.requests[req.ID] = &clone
	entry.RequestID = req.ID
	r.changes[req.ID] = append(r.changes[req.ID], entry)
	return nil
}

func (r *fakeTransferRepo) GetByID(ctx context.Context, id string) (*transfer.Request, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, transfer.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

func (r *fakeTransferRepo) GetByCode(ctx context.Context, code string) (*transfer.Request, error) {
	for _, req := range r.requests {
		if req.Code == code {
			clone := *req
			return &clone, nil
		}
	}
	return nil, transfer.ErrRequestNotFound
}

func (r *fakeTransferRepo) HasOpen(ctx context.Context, studentID, subjectID string) (bool, error) {
	for _, req := range r.requests {
		if req.StudentID == studentID && req.SubjectID == subjectID && !req.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTransferRepo) Update(ctx context.Context, req *transfer.Request, changes []transfer.FieldChange) error {
	if _, ok := r.requests[req.ID]; !ok {
		return transfer.ErrRequestNotFound
	}
	r.updateCalls++
	clone := *req
	r.requests[req.ID] = &clone
	r.changes[req.ID] = append(r.changes[req.ID], changes...)
	return nil
}

func (r *fakeTransferRepo) CompleteTransfer(ctx context.Context, req *transfer.Request, changes []transfer.FieldChange) error {
	r.completeCalls++
	clone := *req
	r.requests[req.ID] = &clone
	r.changes[req.ID] = append(r.changes[req.ID], changes...)
	return nil
}

func (r *fakeTransferRepo) UndoTransfer(ctx context.Context, req *transfer.Request, changes []transfer.FieldChange) error {
	r.undoCalls++
	clone := *req
	r.requests[req.ID] = &clone
	r.changes[req.ID] = append(r.changes[req.ID], changes...)
	return nil
}

func (r *fakeTransferRepo) ListPendingByGroups(ctx context.Context, groupIDs []string) ([]*transfer.Request, error) {
	touched := make(map[string]bool, len(groupIDs))
	for _, id := range groupIDs {
		touched[id] = true
	}

	var out []*transfer.Request
	for _, req := range r.requests {
		if req.Status != transfer.StatusPending {
			continue
		}
		for _, gid := range req.TouchedGroupIDs() {
			if touched[gid] {
				clone := *req
				out = append(out, &clone)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTransferRepo) ListWaitingForTeacher(ctx context.Context, teacherID string) ([]*transfer.Request, error) {
	return nil, nil
}

func (r *fakeTransferRepo) LatestForStudentSubject(ctx context.Context, studentID, subjectID string) (*transfer.Request, error) {
	var latest *transfer.Request
	for _, req := range r.requests {
		if req.StudentID != studentID || req.SubjectID != subjectID {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	if latest == nil {
		return nil, transfer.ErrRequestNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeTransferRepo) ListByRequest(ctx context.Context, requestID string) ([]transfer.FieldChange, error) {
	return r.changes[requestID], nil
}

// fakeSubjectRepo хранит предметы и группы в памяти.
type fakeSubjectRepo struct {
	subjects map[string]*subject.Subject
	groups   map[string]*subject.Group
}

func newFakeSubjectRepo() *fakeSubjectRepo {
	return &fakeSubjectRepo{
		subjects: make(map[string]*subject.Subject),
		groups:   make(map[string]*subject.Group),
	}
}

func (r *fakeSubjectRepo) GetSubject(ctx context.Context, id string) (*subject.Subject, error) {
	subj, ok := r.subjects[id]
	if !ok {
		return nil, subject.ErrSubjectNotFound
	}
	return subj, nil
}

func (r *fakeSubjectRepo) CreateSubject(ctx context.Context, subj *subject.Subject) error {
	r.subjects[subj.ID] = subj
	return nil
}

func (r *fakeSubjectRepo) GetGroup(ctx context.Context, id string) (*subject.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, subject.ErrGroupNotFound
	}
	return g, nil
}

func (r *fakeSubjectRepo) GetGroupsBySubject(ctx context.Context, subjectID string) ([]*subject.Group, error) {
	var out []*subject.Group
	for _, g := range r.groups {
		if g.SubjectID == subjectID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeSubjectRepo) GroupOfStudent(ctx context.Context, subjectID, studentID string) (*subject.Group, error) {
	for _, g := range r.groups {
		if g.SubjectID == subjectID && g.HasStudent(studentID) {
			return g, nil
		}
	}
	return nil, subject.ErrGroupNotFound
}

func (r *fakeSubjectRepo) SubjectsOfStudent(ctx context.Context, studentID string) ([]*subject.Subject, error) {
	seen := make(map[string]bool)
	var out []*subject.Subject
	for _, g := range r.groups {
		if g.HasStudent(studentID) && !seen[g.SubjectID] {
			seen[g.SubjectID] = true
			if subj, ok := r.subjects[g.SubjectID]; ok {
				out = append(out, subj)
			}
		}
	}
	return out, nil
}

func (r *fakeSubjectRepo) CreateGroup(ctx context.Context, group *subject.Group) error {
	r.groups[group.ID] = group
	return nil
}

func (r *fakeSubjectRepo) UpdateGroupLimits(ctx context.Context, groupID string, minStudents, maxStudents int, deadline time.Time) error {
	g, ok := r.groups[groupID]
	if !ok {
		return subject.ErrGroupNotFound
	}
	g.MinStudents = minStudents
	g.MaxStudents = maxStudents
	g.Deadline = deadline
	return nil
}

func (r *fakeSubjectRepo) AddStudent(ctx context.Context, groupID, studentID string) error {
	g, ok := r.groups[groupID]
	if !ok {
		return subject.ErrGroupNotFound
	}
	if !g.HasStudent(studentID) {
		g.StudentIDs = append(g.StudentIDs, studentID)
	}
	return nil
}

func (r *fakeSubjectRepo) AddTeacher(ctx context.Context, groupID, teacherID string) error {
	g, ok := r.groups[groupID]
	if !ok {
		return subject.ErrGroupNotFound
	}
	if !g.HasTeacher(teacherID) {
		g.TeacherIDs = append(g.TeacherIDs, teacherID)
	}
	return nil
}

func (r *fakeSubjectRepo) GroupsWithPendingRequests(ctx context.Context) ([]string, error) {
	return nil, nil
}

// fakeTeacherRepo хранит преподавателей и проверяет назначение через группы.
type fakeTeacherRepo struct {
	teachers map[string]*teacher.Teacher
	groups   *fakeSubjectRepo
}

func newFakeTeacherRepo(groups *fakeSubjectRepo) *fakeTeacherRepo {
	return &fakeTeacherRepo{
		teachers: make(map[string]*teacher.Teacher),
		groups:   groups,
	}
}

func (r *fakeTeacherRepo) Create(ctx context.Context, t *teacher.Teacher) error {
	r.teachers[t.ID] = t
	return nil
}

func (r *fakeTeacherRepo) GetByID(ctx context.Context, id string) (*teacher.Teacher, error) {
	t, ok := r.teachers[id]
	if !ok {
		return nil, teacher.ErrTeacherNotFound
	}
	return t, nil
}

func (r *fakeTeacherRepo) GetByEmail(ctx context.Context, email string) (*teacher.Teacher, error) {
	for _, t := range r.teachers {
		if t.Email == email {
			return t, nil
		}
	}
	return nil, teacher.ErrTeacherNotFound
}

func (r *fakeTeacherRepo) Instructs(ctx context.Context, teacherID, groupID string) (bool, error) {
	g, ok := r.groups.groups[groupID]
	if !ok {
		return false, nil
	}
	return g.HasTeacher(teacherID), nil
}

// recordingPublisher собирает опубликованные события.
type recordingPublisher struct {
	events []shared.Event
}

func (p *recordingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) byType(eventType shared.EventType) []shared.Event {
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
