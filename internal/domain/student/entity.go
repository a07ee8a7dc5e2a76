// Package student содержит доменную модель студента.
// Это чистые данные и инварианты - здесь нет внешних зависимостей.
package student

import (
	"strings"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
)

// Sex представляет пол студента.
type Sex string

const (
	// SexMale - мужской.
	SexMale Sex = "M"
	// SexFemale - женский.
	SexFemale Sex = "F"
)

// IsValid проверяет, что значение корректно.
func (s Sex) IsValid() bool {
	return s == SexMale || s == SexFemale
}

// Student - студент института. Идентификационные поля неизменяемы после
// создания; наборы групп и кафедр меняются со временем.
type Student struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// FullName - полное имя студента.
	FullName string

	// Email - институтский адрес электронной почты.
	Email string

	// Year - курс обучения.
	Year int

	// Sex - пол.
	Sex Sex

	// Birthdate - дата рождения.
	Birthdate time.Time

	// GroupIDs - административные учебные группы, в которых состоит студент.
	GroupIDs []string

	// DepartmentIDs - кафедры, к которым прикреплён студент.
	DepartmentIDs []string

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// Доменные ошибки студента.
var (
	ErrStudentNotFound      = shared.NewDomainError("student", "Find", shared.ErrNotFound, "student not found")
	ErrStudentAlreadyExists = shared.NewDomainError("student", "Create", shared.ErrAlreadyExists, "student already exists")
	ErrInvalidStudent       = shared.NewDomainError("student", "Validate", shared.ErrInvalidEntity, "invalid student")
)

// Validate проверяет инварианты студента.
func (s *Student) Validate() error {
	if s.ID == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrInvalidID, "id is required")
	}
	if strings.TrimSpace(s.FullName) == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrEmptyValue, "full name is required")
	}
	if !strings.Contains(s.Email, "@") {
		return shared.NewDomainError("student", "Validate", shared.ErrInvalidFormat, "email is malformed")
	}
	if s.Year < 1 {
		return shared.NewDomainError("student", "Validate", shared.ErrValueOutOfRange, "year must be positive")
	}
	if !s.Sex.IsValid() {
		return shared.NewDomainError("student", "Validate", shared.ErrInvalidInput, "sex must be M or F")
	}
	return nil
}
