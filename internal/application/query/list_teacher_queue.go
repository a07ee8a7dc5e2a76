package query

import (
	"context"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/student"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
	"github.com/phystech-portal/transfer-hub/internal/domain/teacher"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST TEACHER QUEUE QUERY
// Очередь заявок на рассмотрение преподавателя: все заявки в статусе
// WAITING_TEACHER, целевые группы которых он ведёт, обогащённые данными
// студента и предмета.
// ══════════════════════════════════════════════════════════════════════════════

// ListTeacherQueueQuery содержит параметры запроса очереди.
type ListTeacherQueueQuery struct {
	// TeacherID - ID преподавателя.
	TeacherID string
}

// Validate проверяет корректность параметров.
func (q ListTeacherQueueQuery) Validate() error {
	if q.TeacherID == "" {
		return shared.NewDomainError("transfer", "ListTeacherQueue", shared.ErrEmptyValue, "teacher_id is required")
	}
	return nil
}

// TeacherQueueItem - одна заявка в очереди преподавателя.
type TeacherQueueItem struct {
	Request     *transfer.Request `json:"request"`
	StudentName string            `json:"student_name"`
	SubjectName string            `json:"subject_name"`
}

// ListTeacherQueueResult - результат запроса очереди.
type ListTeacherQueueResult struct {
	Items []TeacherQueueItem `json:"items"`
}

// ListTeacherQueueHandler обрабатывает ListTeacherQueueQuery.
type ListTeacherQueueHandler struct {
	transfers transfer.Repository
	students  student.Repository
	subjects  subject.Repository
	teachers  teacher.Repository
}

// NewListTeacherQueueHandler создаёт новый обработчик запроса очереди.
func NewListTeacherQueueHandler(
	transfers transfer.Repository,
	students student.Repository,
	subjects subject.Repository,
	teachers teacher.Repository,
) *ListTeacherQueueHandler {
	return &ListTeacherQueueHandler{
		transfers: transfers,
		students:  students,
		subjects:  subjects,
		teachers:  teachers,
	}
}

// Handle выполняет запрос.
func (h *ListTeacherQueueHandler) Handle(ctx context.Context, q ListTeacherQueueQuery) (*ListTeacherQueueResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.teachers.GetByID(ctx, q.TeacherID); err != nil {
		return nil, err
	}

	requests, err := h.transfers.ListWaitingForTeacher(ctx, q.TeacherID)
	if err != nil {
		return nil, err
	}

	result := &ListTeacherQueueResult{Items: make([]TeacherQueueItem, 0, len(requests))}

	studentNames := make(map[string]string)
	subjectNames := make(map[string]string)

	for _, req := range requests {
		item := TeacherQueueItem{Request: req}

		name, ok := studentNames[req.StudentID]
		if !ok {
			stud, err := h.students.GetByID(ctx, req.StudentID)
			if err != nil {
				return nil, err
			}
			name = stud.FullName
			studentNames[req.StudentID] = name
		}
		item.StudentName = name

		subjName, ok := subjectNames[req.SubjectID]
		if !ok {
			subj, err := h.subjects.GetSubject(ctx, req.SubjectID)
			if err != nil {
				return nil, err
			}
			subjName = subj.Name
			subjectNames[req.SubjectID] = subjName
		}
		item.SubjectName = subjName

		result.Items = append(result.Items, item)
	}

	return result, nil
}
