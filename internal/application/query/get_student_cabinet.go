// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/student"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
	"github.com/phystech-portal/transfer-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT CABINET QUERY
// Собирает личный кабинет студента: предметы, текущие группы, заполненность
// альтернативных групп и последняя заявка на перевод по каждому предмету.
// Заполненность групп читается через кеш; промахи добираются из хранилища
// и кладутся обратно.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentCabinetQuery содержит параметры запроса кабинета.
type GetStudentCabinetQuery struct {
	// StudentID - внутренний ID студента.
	StudentID string
}

// Validate проверяет корректность параметров.
func (q GetStudentCabinetQuery) Validate() error {
	if q.StudentID == "" {
		return shared.NewDomainError("transfer", "GetStudentCabinet", shared.ErrEmptyValue, "student_id is required")
	}
	return nil
}

// CabinetGroup - одна группа предмета с заполненностью.
type CabinetGroup struct {
	GroupID     string    `json:"group_id"`
	TeacherIDs  []string  `json:"teacher_ids,omitempty"`
	Members     int       `json:"members"`
	MinStudents int       `json:"min_students"`
	MaxStudents int       `json:"max_students"`
	Deadline    time.Time `json:"deadline,omitempty"`
	// DeadlineDisplay - дедлайн в человекочитаемом виде по московскому
	// времени, пустая строка если дедлайн не задан.
	DeadlineDisplay string `json:"deadline_display,omitempty"`
	Full            bool   `json:"full"`
	Current         bool   `json:"current"`
}

// CabinetSubject - предмет в кабинете студента.
type CabinetSubject struct {
	SubjectID   string            `json:"subject_id"`
	SubjectName string            `json:"subject_name"`
	Groups      []CabinetGroup    `json:"groups"`
	Request     *transfer.Request `json:"request,omitempty"`
}

// GetStudentCabinetResult - результат запроса кабинета.
type GetStudentCabinetResult struct {
	Student  *student.Student `json:"student"`
	Subjects []CabinetSubject `json:"subjects"`
}

// GetStudentCabinetHandler обрабатывает GetStudentCabinetQuery.
type GetStudentCabinetHandler struct {
	students  student.Repository
	subjects  subject.Repository
	transfers transfer.Repository
	occupancy subject.OccupancyCache
}

// NewGetStudentCabinetHandler создаёт новый обработчик запроса кабинета.
func NewGetStudentCabinetHandler(
	students student.Repository,
	subjects subject.Repository,
	transfers transfer.Repository,
	occupancy subject.OccupancyCache,
) *GetStudentCabinetHandler {
	return &GetStudentCabinetHandler{
		students:  students,
		subjects:  subjects,
		transfers: transfers,
		occupancy: occupancy,
	}
}

// Handle выполняет запрос.
func (h *GetStudentCabinetHandler) Handle(ctx context.Context, q GetStudentCabinetQuery) (*GetStudentCabinetResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	stud, err := h.students.GetByID(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	subjs, err := h.subjects.SubjectsOfStudent(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	result := &GetStudentCabinetResult{
		Student:  stud,
		Subjects: make([]CabinetSubject, 0, len(subjs)),
	}

	for _, subj := range subjs {
		cs, err := h.buildSubject(ctx, stud.ID, subj)
		if err != nil {
			return nil, err
		}
		result.Subjects = append(result.Subjects, cs)
	}

	return result, nil
}

func (h *GetStudentCabinetHandler) buildSubject(ctx context.Context, studentID string, subj *subject.Subject) (CabinetSubject, error) {
	cs := CabinetSubject{SubjectID: subj.ID, SubjectName: subj.Name}

	groups, err := h.subjects.GetGroupsBySubject(ctx, subj.ID)
	if err != nil {
		return cs, err
	}

	for _, g := range groups {
		occ, err := h.occupancyOf(ctx, g)
		if err != nil {
			return cs, err
		}
		cg := CabinetGroup{
			GroupID:     occ.GroupID,
			TeacherIDs:  g.TeacherIDs,
			Members:     occ.Members,
			MinStudents: occ.MinStudents,
			MaxStudents: occ.MaxStudents,
			Deadline:    occ.Deadline,
			Full:        occ.Full(),
			Current:     g.HasStudent(studentID),
		}
		if !occ.Deadline.IsZero() {
			cg.DeadlineDisplay = timeutil.FormatDateTime(occ.Deadline)
		}
		cs.Groups = append(cs.Groups, cg)
	}

	req, err := h.transfers.LatestForStudentSubject(ctx, studentID, subj.ID)
	switch {
	case err == nil:
		cs.Request = req
	case shared.IsNotFound(err):
		// У студента ещё не было заявок по предмету.
	default:
		return cs, err
	}

	return cs, nil
}

// occupancyOf читает заполненность группы через кеш.
func (h *GetStudentCabinetHandler) occupancyOf(ctx context.Context, g *subject.Group) (subject.Occupancy, error) {
	if h.occupancy == nil {
		return subject.OccupancyOf(g), nil
	}
	if occ, ok, err := h.occupancy.Get(ctx, g.ID); err == nil && ok {
		return occ, nil
	}
	occ := subject.OccupancyOf(g)
	// Ошибка записи в кеш не мешает ответу.
	_ = h.occupancy.Set(ctx, occ)
	return occ, nil
}
