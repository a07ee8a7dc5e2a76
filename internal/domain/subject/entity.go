// Package subject содержит доменные модели предмета и предметной группы.
// Предметная группа - секция предмета с ограничениями вместимости и
// крайним сроком подачи заявлений на перевод.
package subject

import (
	"strings"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
)

// Subject - предмет, разбитый на предметные группы.
type Subject struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Name - название предмета.
	Name string

	// DepartmentID - кафедра (может отсутствовать).
	DepartmentID string

	// FacultyID - факультет (может отсутствовать).
	FacultyID string

	// Year - курс, для которого читается предмет.
	Year int

	// CreatedAt - время создания записи.
	CreatedAt time.Time
}

// Validate проверяет инварианты предмета.
func (s *Subject) Validate() error {
	if s.ID == "" {
		return shared.NewDomainError("subject", "Validate", shared.ErrInvalidID, "id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return shared.NewDomainError("subject", "Validate", shared.ErrEmptyValue, "name is required")
	}
	return nil
}

// GroupDefaults - значения по умолчанию для новой предметной группы.
// Задаются конфигурацией при старте (бывший синглтон глобальных настроек).
type GroupDefaults struct {
	MinStudents int
	MaxStudents int
	Deadline    time.Time
}

// Group - предметная группа: секция предмета с набором студентов,
// преподавателями, границами вместимости и крайним сроком перевода.
type Group struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// SubjectID - предмет, к которому относится группа.
	SubjectID string

	// MinStudents - минимальное число студентов в группе.
	MinStudents int

	// MaxStudents - максимальное число студентов в группе.
	MaxStudents int

	// Deadline - крайний срок подачи заявления на перевод В эту группу.
	// Нулевое значение - срок не ограничен.
	Deadline time.Time

	// StudentIDs - текущий состав группы.
	StudentIDs []string

	// TeacherIDs - преподаватели группы.
	TeacherIDs []string

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// Доменные ошибки предметных групп.
var (
	ErrSubjectNotFound = shared.NewDomainError("subject", "Find", shared.ErrNotFound, "subject not found")
	ErrGroupNotFound   = shared.NewDomainError("subject", "FindGroup", shared.ErrNotFound, "subject group not found")
	ErrGroupMismatch   = shared.NewDomainError("subject", "CheckGroup", shared.ErrInvalidInput, "group does not belong to the subject")
)

// NewGroup создаёт предметную группу, подставляя значения по умолчанию
// там, где ограничения не заданы явно (нулевые).
func NewGroup(id, subjectID string, minStudents, maxStudents int, deadline time.Time, defaults GroupDefaults) *Group {
	if minStudents == 0 {
		minStudents = defaults.MinStudents
	}
	if maxStudents == 0 {
		maxStudents = defaults.MaxStudents
	}
	if deadline.IsZero() {
		deadline = defaults.Deadline
	}
	now := time.Now()
	return &Group{
		ID:          id,
		SubjectID:   subjectID,
		MinStudents: minStudents,
		MaxStudents: maxStudents,
		Deadline:    deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MemberCount возвращает текущее число студентов в группе.
func (g *Group) MemberCount() int {
	return len(g.StudentIDs)
}

// HasStudent проверяет, состоит ли студент в группе.
func (g *Group) HasStudent(studentID string) bool {
	for _, id := range g.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// HasTeacher проверяет, ведёт ли преподаватель группу.
func (g *Group) HasTeacher(teacherID string) bool {
	for _, id := range g.TeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}

// HasDeadline проверяет, задан ли для группы крайний срок.
func (g *Group) HasDeadline() bool {
	return !g.Deadline.IsZero()
}

// Validate проверяет инварианты группы. Границы вместимости неотрицательны;
// соотношение min <= max ожидается, но намеренно не навязывается ядром.
func (g *Group) Validate() error {
	if g.ID == "" {
		return shared.NewDomainError("subject", "ValidateGroup", shared.ErrInvalidID, "group id is required")
	}
	if g.SubjectID == "" {
		return shared.NewDomainError("subject", "ValidateGroup", shared.ErrInvalidID, "subject id is required")
	}
	if g.MinStudents < 0 {
		return shared.NewDomainError("subject", "ValidateGroup", shared.ErrNegativeValue, "min students cannot be negative")
	}
	if g.MaxStudents < 0 {
		return shared.NewDomainError("subject", "ValidateGroup", shared.ErrNegativeValue, "max students cannot be negative")
	}
	return nil
}
