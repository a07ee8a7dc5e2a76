package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
)

func makeGroup(id string, members, min, max int, deadline time.Time) *subject.Group {
	g := &subject.Group{
		ID:          id,
		SubjectID:   "subject-1",
		MinStudents: min,
		MaxStudents: max,
		Deadline:    deadline,
	}
	for i := 0; i < members; i++ {
		g.StudentIDs = append(g.StudentIDs, "student")
	}
	return g
}

func TestEvaluate_NoViolations(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	from := makeGroup("a", 15, 12, 18, time.Time{})
	to := makeGroup("b", 15, 12, 18, now.Add(24*time.Hour))

	assert.Empty(t, Evaluate(from, to, now))
}

func TestEvaluate_SourceBelowMin(t *testing.T) {
	now := time.Now()
	// Уход последнего "лишнего" студента опустил бы группу ниже минимума
	from := makeGroup("a", 12, 12, 18, time.Time{})
	to := makeGroup("b", 10, 12, 18, time.Time{})

	violations := Evaluate(from, to, now)
	assert.Equal(t, []Violation{ViolationSourceBelowMin}, violations)
}

func TestEvaluate_DestinationFull(t *testing.T) {
	now := time.Now()
	from := makeGroup("a", 15, 12, 18, time.Time{})
	to := makeGroup("b", 18, 12, 18, time.Time{})

	violations := Evaluate(from, to, now)
	assert.Equal(t, []Violation{ViolationDestinationFull}, violations)
}

func TestEvaluate_DeadlinePassed(t *testing.T) {
	now := time.Date(2026, 9, 15, 0, 0, 1, 0, time.UTC)
	from := makeGroup("a", 15, 12, 18, time.Time{})
	to := makeGroup("b", 15, 12, 18, now.Add(-time.Minute))

	violations := Evaluate(from, to, now)
	assert.Equal(t, []Violation{ViolationDeadlinePassed}, violations)

	// Нулевой дедлайн означает отсутствие ограничения
	to.Deadline = time.Time{}
	assert.Empty(t, Evaluate(from, to, now))
}

func TestEvaluate_AllRulesIndependent(t *testing.T) {
	// Все правила проверяются без короткого замыкания
	now := time.Now()
	from := makeGroup("a", 12, 12, 18, time.Time{})
	to := makeGroup("b", 18, 12, 18, now.Add(-time.Hour))

	violations := Evaluate(from, to, now)
	assert.ElementsMatch(t, []Violation{
		ViolationSourceBelowMin,
		ViolationDestinationFull,
		ViolationDeadlinePassed,
	}, violations)
}

func TestEvaluate_NilSourceGroup(t *testing.T) {
	// Студент не состоял в группе предмета: правило минимума не применяется
	now := time.Now()
	to := makeGroup("b", 15, 12, 18, time.Time{})

	assert.Empty(t, Evaluate(nil, to, now))
}

func TestViolationMessages(t *testing.T) {
	msgs := ViolationMessages([]Violation{ViolationDestinationFull, ViolationDeadlinePassed})
	assert.Equal(t, []string{
		"destination group would exceed maximum",
		"submission deadline has passed",
	}, msgs)
}
