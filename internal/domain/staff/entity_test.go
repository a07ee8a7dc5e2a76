package staff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
)

func TestSetAndCheckPassword(t *testing.T) {
	m := &Member{ID: "staff-1", FullName: "Иванов И.И.", Email: "ivanov@example.org"}

	require.NoError(t, m.SetPassword("correct-horse"))
	assert.NotEmpty(t, m.PasswordHash)
	assert.NotContains(t, m.PasswordHash, "correct-horse")

	assert.NoError(t, m.CheckPassword("correct-horse"))
	assert.ErrorIs(t, m.CheckPassword("wrong-password"), ErrInvalidPassword)
}

func TestSetPassword_TooShort(t *testing.T) {
	m := &Member{ID: "staff-1"}
	assert.ErrorIs(t, m.SetPassword("short"), ErrPasswordTooShort)
	assert.Empty(t, m.PasswordHash)
}

func TestActor(t *testing.T) {
	m := &Member{ID: "staff-1", FullName: "Иванов И.И."}

	actor := m.Actor()
	assert.Equal(t, shared.ActorStaff, actor.Kind)
	assert.Equal(t, "staff-1", actor.ID)
	assert.Equal(t, "Иванов И.И.", actor.Name)
}

func TestValidate(t *testing.T) {
	m := &Member{ID: "staff-1", Email: "ivanov@example.org"}
	require.NoError(t, m.SetPassword("correct-horse"))
	assert.NoError(t, m.Validate())

	assert.Error(t, (&Member{Email: "a@b", PasswordHash: "x"}).Validate())
	assert.Error(t, (&Member{ID: "x", Email: "not-an-email", PasswordHash: "x"}).Validate())
	assert.Error(t, (&Member{ID: "x", Email: "a@b"}).Validate())
}
