package student

import (
	"context"
)

// Repository определяет контракт хранилища студентов.
// Реализация находится в infrastructure/persistence/postgres.
type Repository interface {
	// Create создаёт нового студента.
	// Возвращает ErrStudentAlreadyExists, если email уже занят.
	Create(ctx context.Context, student *Student) error

	// GetByID возвращает студента по внутреннему ID.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetByID(ctx context.Context, id string) (*Student, error)

	// GetByEmail возвращает студента по адресу почты.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetByEmail(ctx context.Context, email string) (*Student, error)

	// Update обновляет данные студента.
	Update(ctx context.Context, student *Student) error
}
