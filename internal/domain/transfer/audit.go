package transfer

import (
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
)

// Наблюдаемые поля заявки, изменения которых фиксируются в журнале.
const (
	FieldStatus         = "status"
	FieldComment        = "comment"
	FieldCommentTeacher = "comment_teacher"
)

// FieldChange - запись журнала изменений: одно изменение одного поля
// заявки. Журнал пишется только в дополнение (append-only), записи никогда
// не изменяются и не удаляются; последовательность записей по одной заявке
// в порядке времени - её авторитетная история.
type FieldChange struct {
	// ID - внутренний уникальный идентификатор записи.
	ID string

	// RequestID - заявка, к которой относится изменение.
	RequestID string

	// Field - имя изменённого поля.
	Field string

	// OldValue - значение до изменения (снимок, пустая строка для создания).
	OldValue string

	// NewValue - значение после изменения.
	NewValue string

	// Actor - принципал, выполнивший изменение. nil для системных переходов
	// (переактивация очереди).
	Actor *shared.Actor

	// Timestamp - время изменения.
	Timestamp time.Time
}

// Diff сравнивает снимок заявки до изменения с её текущим состоянием и
// возвращает запись журнала на каждое фактически изменившееся наблюдаемое
// поле. Идентификаторы записям присваивает хранилище.
func Diff(before Request, after *Request, actor *shared.Actor, now time.Time) []FieldChange {
	var changes []FieldChange

	add := func(field, oldVal, newVal string) {
		if oldVal == newVal {
			return
		}
		changes = append(changes, FieldChange{
			RequestID: after.ID,
			Field:     field,
			OldValue:  oldVal,
			NewValue:  newVal,
			Actor:     actor,
			Timestamp: now,
		})
	}

	add(FieldStatus, string(before.Status), string(after.Status))
	add(FieldComment, before.Comment, after.Comment)
	add(FieldCommentTeacher, before.CommentTeacher, after.CommentTeacher)

	return changes
}

// CreationEntry возвращает запись журнала для только что созданной заявки:
// фиксацию начального статуса.
func CreationEntry(req *Request, actor *shared.Actor, now time.Time) FieldChange {
	return FieldChange{
		RequestID: req.ID,
		Field:     FieldStatus,
		OldValue:  "",
		NewValue:  string(req.Status),
		Actor:     actor,
		Timestamp: now,
	}
}
