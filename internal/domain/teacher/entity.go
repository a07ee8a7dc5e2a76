// Package teacher содержит доменную модель преподавателя.
package teacher

import (
	"context"
	"strings"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
)

// Teacher - преподаватель, ведущий одну или несколько предметных групп.
type Teacher struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// FullName - полное имя преподавателя.
	FullName string

	// Email - адрес электронной почты.
	Email string

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// Доменные ошибки преподавателя.
var (
	ErrTeacherNotFound      = shared.NewDomainError("teacher", "Find", shared.ErrNotFound, "teacher not found")
	ErrTeacherAlreadyExists = shared.NewDomainError("teacher", "Create", shared.ErrAlreadyExists, "teacher already exists")
)

// Validate проверяет инварианты преподавателя.
func (t *Teacher) Validate() error {
	if t.ID == "" {
		return shared.NewDomainError("teacher", "Validate", shared.ErrInvalidID, "id is required")
	}
	if strings.TrimSpace(t.FullName) == "" {
		return shared.NewDomainError("teacher", "Validate", shared.ErrEmptyValue, "full name is required")
	}
	if !strings.Contains(t.Email, "@") {
		return shared.NewDomainError("teacher", "Validate", shared.ErrInvalidFormat, "email is malformed")
	}
	return nil
}

// Repository определяет контракт хранилища преподавателей.
type Repository interface {
	// Create создаёт нового преподавателя.
	Create(ctx context.Context, teacher *Teacher) error

	// GetByID возвращает преподавателя по ID.
	// Возвращает ErrTeacherNotFound, если преподаватель не найден.
	GetByID(ctx context.Context, id string) (*Teacher, error)

	// GetByEmail возвращает преподавателя по адресу почты.
	GetByEmail(ctx context.Context, email string) (*Teacher, error)

	// Instructs проверяет, ведёт ли преподаватель указанную предметную группу.
	Instructs(ctx context.Context, teacherID, groupID string) (bool, error)
}
