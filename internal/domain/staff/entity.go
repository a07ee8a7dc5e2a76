// Package staff содержит модель административного пользователя портала.
// Администраторы - единственные принципалы с паролем внутри ядра:
// студенты и преподаватели аутентифицируются внешним слоем.
package staff

import (
	"context"
	"strings"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"

	"golang.org/x/crypto/bcrypt"
)

// Member - административный пользователь (отдел учебных программ).
type Member struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// FullName - полное имя.
	FullName string

	// Email - адрес электронной почты, используется для входа.
	Email string

	// PasswordHash - bcrypt-хэш пароля.
	PasswordHash string

	// CreatedAt - время создания записи.
	CreatedAt time.Time
}

// Доменные ошибки административных пользователей.
var (
	ErrMemberNotFound   = shared.NewDomainError("staff", "Find", shared.ErrNotFound, "staff member not found")
	ErrMemberExists     = shared.NewDomainError("staff", "Create", shared.ErrAlreadyExists, "staff member already exists")
	ErrInvalidPassword  = shared.NewDomainError("staff", "CheckPassword", shared.ErrUnauthorized, "invalid password")
	ErrPasswordTooShort = shared.NewDomainError("staff", "SetPassword", shared.ErrValueOutOfRange, "password must be at least 8 characters")
)

// SetPassword хэширует и устанавливает пароль.
func (m *Member) SetPassword(plain string) error {
	if len(plain) < 8 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return shared.WrapError("staff", "SetPassword", shared.ErrInvalidInput, "failed to hash password", err)
	}
	m.PasswordHash = string(hash)
	return nil
}

// CheckPassword сверяет пароль с сохранённым хэшем.
func (m *Member) CheckPassword(plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(plain)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// Actor возвращает принципала для записи в журнал изменений.
func (m *Member) Actor() *shared.Actor {
	return shared.StaffActor(m.ID, m.FullName)
}

// Validate проверяет инварианты.
func (m *Member) Validate() error {
	if m.ID == "" {
		return shared.NewDomainError("staff", "Validate", shared.ErrInvalidID, "id is required")
	}
	if !strings.Contains(m.Email, "@") {
		return shared.NewDomainError("staff", "Validate", shared.ErrInvalidFormat, "email is malformed")
	}
	if m.PasswordHash == "" {
		return shared.NewDomainError("staff", "Validate", shared.ErrEmptyValue, "password hash is required")
	}
	return nil
}

// Repository определяет контракт хранилища административных пользователей.
type Repository interface {
	// Create создаёт нового пользователя.
	Create(ctx context.Context, member *Member) error

	// GetByID возвращает пользователя по ID.
	GetByID(ctx context.Context, id string) (*Member, error)

	// GetByEmail возвращает пользователя по адресу почты.
	GetByEmail(ctx context.Context, email string) (*Member, error)
}
