package transfer

import (
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
)

// Violation - причина, по которой перевод не может сразу уйти на
// рассмотрение преподавателю. Не ошибка: список нарушений - нормальный
// результат проверки, определяющий маршрут заявки (PENDING против
// WAITING_TEACHER).
type Violation string

const (
	// ViolationSourceBelowMin - исходная группа опустилась бы ниже минимума.
	ViolationSourceBelowMin Violation = "source group would fall below minimum"
	// ViolationDestinationFull - целевая группа превысила бы максимум.
	ViolationDestinationFull Violation = "destination group would exceed maximum"
	// ViolationDeadlinePassed - крайний срок подачи заявления прошёл.
	ViolationDeadlinePassed Violation = "submission deadline has passed"
)

// String возвращает текст нарушения.
func (v Violation) String() string {
	return string(v)
}

// Evaluate проверяет условия перевода из from в to на момент now.
// from может быть nil (студент не состоял в группе предмета).
// Все правила проверяются независимо, нарушения собираются без
// короткого замыкания; пустой результат означает, что заявка может
// сразу уйти преподавателю.
func Evaluate(from, to *subject.Group, now time.Time) []Violation {
	var violations []Violation

	if from != nil && from.MemberCount() <= from.MinStudents {
		violations = append(violations, ViolationSourceBelowMin)
	}

	if to.MemberCount() >= to.MaxStudents {
		violations = append(violations, ViolationDestinationFull)
	}

	if to.HasDeadline() && now.After(to.Deadline) {
		violations = append(violations, ViolationDeadlinePassed)
	}

	return violations
}

// ViolationMessages возвращает тексты нарушений для показа студенту.
func ViolationMessages(violations []Violation) []string {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.String()
	}
	return msgs
}
