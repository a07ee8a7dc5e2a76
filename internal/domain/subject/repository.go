package subject

import (
	"context"
	"time"
)

// Repository определяет контракт хранилища предметов и предметных групп.
// Перемещение студента между группами при complete/undo выполняется
// хранилищем заявок внутри той же транзакции, не этим интерфейсом.
type Repository interface {
	// GetSubject возвращает предмет по ID.
	// Возвращает ErrSubjectNotFound, если предмет не найден.
	GetSubject(ctx context.Context, id string) (*Subject, error)

	// CreateSubject создаёт предмет.
	CreateSubject(ctx context.Context, subj *Subject) error

	// GetGroup возвращает предметную группу со списками студентов и
	// преподавателей. Возвращает ErrGroupNotFound, если группа не найдена.
	GetGroup(ctx context.Context, id string) (*Group, error)

	// GetGroupsBySubject возвращает все группы предмета.
	GetGroupsBySubject(ctx context.Context, subjectID string) ([]*Group, error)

	// GroupOfStudent возвращает группу предмета, в которой состоит студент,
	// или ErrGroupNotFound, если студент не записан ни в одну группу предмета.
	GroupOfStudent(ctx context.Context, subjectID, studentID string) (*Group, error)

	// SubjectsOfStudent возвращает предметы, в группах которых состоит студент.
	SubjectsOfStudent(ctx context.Context, studentID string) ([]*Subject, error)

	// CreateGroup создаёт предметную группу.
	CreateGroup(ctx context.Context, group *Group) error

	// UpdateGroupLimits изменяет вместимость и крайний срок группы.
	// Вызывающая сторона обязана после успеха запустить переактивацию
	// очереди заявок (см. application/command.ReactivatePending).
	UpdateGroupLimits(ctx context.Context, groupID string, minStudents, maxStudents int, deadline time.Time) error

	// AddStudent добавляет студента в группу (первичное зачисление).
	AddStudent(ctx context.Context, groupID, studentID string) error

	// AddTeacher назначает преподавателя в группу.
	AddTeacher(ctx context.Context, groupID, teacherID string) error

	// GroupsWithPendingRequests возвращает ID групп, которых касается хотя бы
	// одна заявка в статусе PENDING. Используется страховочной перепроверкой.
	GroupsWithPendingRequests(ctx context.Context) ([]string, error)
}
