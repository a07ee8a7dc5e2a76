// Package transfer содержит центральную доменную модель - заявку на перевод
// между предметными группами - и её машину состояний.
//
// Жизненный цикл: PENDING -> WAITING_TEACHER -> WAITING_ADMIN ->
// {COMPLETED, REJECTED}; undo возвращает терминальную заявку в WAITING_ADMIN.
// Отклонение возможно из любого нетерминального статуса.
package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
)

// Status представляет статус заявки на перевод.
type Status string

const (
	// StatusPending - заявка в очереди, ждёт освобождения места или снятия
	// ограничения (вместимость, крайний срок).
	StatusPending Status = "pending"
	// StatusWaitingTeacher - ждёт одобрения преподавателем целевой группы.
	StatusWaitingTeacher Status = "waiting_teacher"
	// StatusWaitingAdmin - ждёт одобрения администратором.
	StatusWaitingAdmin Status = "waiting_admin"
	// StatusCompleted - перевод выполнен.
	StatusCompleted Status = "completed"
	// StatusRejected - заявка отклонена.
	StatusRejected Status = "rejected"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusWaitingTeacher, StatusWaitingAdmin, StatusCompleted, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal проверяет, является ли статус терминальным.
// Терминальная заявка не блокирует подачу новой по той же паре
// (студент, предмет).
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Label возвращает человекочитаемое название статуса.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "В очереди"
	case StatusWaitingTeacher:
		return "Ждет одобрения преподавателем"
	case StatusWaitingAdmin:
		return "Ждет одобрения администратором"
	case StatusCompleted:
		return "Выполнена"
	case StatusRejected:
		return "Отклонена"
	default:
		return string(s)
	}
}

// Request - заявка студента на перевод из одной предметной группы в другую.
type Request struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Code - уникальный человекочитаемый код заявки вида DDMMYYYY-NNNN.
	// Присваивается один раз при создании и никогда не меняется.
	Code string

	// StudentID - студент, подавший заявку.
	StudentID string

	// SubjectID - предмет, в рамках которого выполняется перевод.
	SubjectID string

	// FromGroupID - группа, из которой переводится студент.
	// Пустая строка, если студент не состоял ни в одной группе предмета.
	FromGroupID string

	// ToGroupID - целевая группа.
	ToGroupID string

	// Status - текущий статус заявки.
	Status Status

	// Reason - причина подачи, указанная студентом. Неизменяема после создания.
	Reason string

	// Comment - комментарий администратора. Обязателен при отклонении.
	Comment string

	// CommentTeacher - комментарии преподавателя, накапливаются при
	// одобрении и отклонении.
	CommentTeacher string

	// CreatedAt - время подачи заявления. Неизменяемо.
	CreatedAt time.Time

	// UpdatedAt - время последнего изменения.
	UpdatedAt time.Time
}

// Доменные ошибки заявок на перевод.
var (
	ErrRequestNotFound = shared.NewDomainError("transfer", "Find", shared.ErrNotFound, "transfer request not found")
	ErrDuplicateOpen   = shared.NewDomainError("transfer", "Create", shared.ErrAlreadyExists, "an open transfer request already exists for this student and subject")
	ErrSameGroup       = shared.NewDomainError("transfer", "Create", shared.ErrInvalidInput, "student is already a member of the target group")
	ErrReasonRequired  = shared.NewDomainError("transfer", "Create", shared.ErrEmptyValue, "reason is required")
	ErrCommentRequired = shared.NewDomainError("transfer", "Reject", shared.ErrEmptyValue, "a comment is required to reject a request")
	ErrNotAwaiting     = shared.NewDomainError("transfer", "Review", shared.ErrPrecondition, "request is not awaiting teacher action")
	ErrNotInstructing  = shared.NewDomainError("transfer", "Review", shared.ErrForbidden, "teacher does not instruct the target group")
	ErrNotTerminal     = shared.NewDomainError("transfer", "Undo", shared.ErrPrecondition, "request must be completed or rejected to undo")
	ErrCompletedFinal  = shared.NewDomainError("transfer", "Reject", shared.ErrPrecondition, "a completed request cannot be rejected")
	ErrDuplicateCode   = shared.NewDomainError("transfer", "AssignCode", shared.ErrConcurrentModification, "request code already assigned")
)

// teacherRejectPrefix добавляется к комментарию преподавателя при отклонении.
const teacherRejectPrefix = "Заявка отклонена преподавателем. Комментарий от преподавателя: "

// MovesMembership проверяет, меняет ли выполнение заявки состав групп.
// Перевод внутри одной группы (или без исходной группы, совпадающей с
// целевой) состав не меняет.
func (r *Request) MovesMembership() bool {
	return r.FromGroupID != r.ToGroupID
}

// TouchedGroupIDs возвращает группы, которых касается заявка.
func (r *Request) TouchedGroupIDs() []string {
	if r.FromGroupID == "" || r.FromGroupID == r.ToGroupID {
		return []string{r.ToGroupID}
	}
	return []string{r.FromGroupID, r.ToGroupID}
}

// Promote переводит заявку из очереди в ожидание преподавателя.
// Единственный переход, выполняемый переактивацией; обратного нет.
func (r *Request) Promote(now time.Time) error {
	if r.Status != StatusPending {
		return shared.NewDomainError("transfer", "Promote", shared.ErrPrecondition,
			fmt.Sprintf("request %s is %s, not pending", r.Code, r.Status))
	}
	r.Status = StatusWaitingTeacher
	r.UpdatedAt = now
	return nil
}

// TeacherApprove одобряет заявку преподавателем целевой группы.
// Комментарий (если задан) дописывается к уже накопленным, не затирая их.
func (r *Request) TeacherApprove(comment string, now time.Time) error {
	if r.Status != StatusWaitingTeacher {
		return ErrNotAwaiting
	}
	r.appendTeacherComment(strings.TrimSpace(comment))
	r.Status = StatusWaitingAdmin
	r.UpdatedAt = now
	return nil
}

// TeacherReject отклоняет заявку преподавателем. Комментарий обязателен.
func (r *Request) TeacherReject(comment string, now time.Time) error {
	if r.Status != StatusWaitingTeacher {
		return ErrNotAwaiting
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return ErrCommentRequired
	}
	r.appendTeacherComment(teacherRejectPrefix + "«" + comment + "»")
	r.Status = StatusRejected
	r.UpdatedAt = now
	return nil
}

// Complete выполняет перевод. Идемпотентна: повторный вызов на уже
// выполненной заявке ничего не меняет и возвращает changed=false.
// Само перемещение студента между группами выполняет хранилище в той же
// транзакции, что и смена статуса.
func (r *Request) Complete(now time.Time) (changed bool, err error) {
	if r.Status == StatusCompleted {
		return false, nil
	}
	r.Status = StatusCompleted
	r.UpdatedAt = now
	return true, nil
}

// Reject отклоняет заявку администратором из любого нетерминального статуса.
// Требует непустого комментария; на уже отклонённой заявке - no-op,
// на выполненной - отказ.
func (r *Request) Reject(now time.Time) (changed bool, err error) {
	if r.Status == StatusRejected {
		return false, nil
	}
	if r.Status == StatusCompleted {
		return false, ErrCompletedFinal
	}
	if strings.TrimSpace(r.Comment) == "" {
		return false, ErrCommentRequired
	}
	r.Status = StatusRejected
	r.UpdatedAt = now
	return true, nil
}

// Undo возвращает выполненную или отклонённую заявку на рассмотрение
// администратора. Для выполненной заявки хранилище дополнительно
// откатывает перемещение студента.
func (r *Request) Undo(now time.Time) (wasCompleted bool, err error) {
	switch r.Status {
	case StatusCompleted:
		r.Status = StatusWaitingAdmin
		r.UpdatedAt = now
		return true, nil
	case StatusRejected:
		r.Status = StatusWaitingAdmin
		r.UpdatedAt = now
		return false, nil
	default:
		return false, ErrNotTerminal
	}
}

// SetComment устанавливает комментарий администратора.
func (r *Request) SetComment(comment string, now time.Time) {
	r.Comment = strings.TrimSpace(comment)
	r.UpdatedAt = now
}

func (r *Request) appendTeacherComment(comment string) {
	if comment == "" {
		return
	}
	if r.CommentTeacher == "" {
		r.CommentTeacher = comment
		return
	}
	r.CommentTeacher = r.CommentTeacher + "\n" + comment
}

// Validate проверяет инварианты заявки перед сохранением.
// Отклонённая заявка обязана нести комментарий отклонения - администратора
// или преподавателя.
func (r *Request) Validate() error {
	if r.ID == "" {
		return shared.NewDomainError("transfer", "Validate", shared.ErrInvalidID, "id is required")
	}
	if r.StudentID == "" || r.SubjectID == "" || r.ToGroupID == "" {
		return shared.NewDomainError("transfer", "Validate", shared.ErrEmptyValue, "student, subject and target group are required")
	}
	if !r.Status.IsValid() {
		return shared.NewDomainError("transfer", "Validate", shared.ErrInvalidState,
			fmt.Sprintf("unknown status %q", r.Status))
	}
	if strings.TrimSpace(r.Reason) == "" {
		return ErrReasonRequired
	}
	if r.Status == StatusRejected &&
		strings.TrimSpace(r.Comment) == "" && strings.TrimSpace(r.CommentTeacher) == "" {
		return ErrCommentRequired
	}
	return nil
}

// Snapshot возвращает копию заявки для последующего сравнения полей
// при записи журнала изменений.
func (r *Request) Snapshot() Request {
	return *r
}
