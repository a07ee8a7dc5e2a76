package transfer

import (
	"context"
)

// Repository определяет контракт хранилища заявок на перевод.
//
// Контракт атомарности: каждый метод записи выполняет все свои изменения -
// заявку, перемещение студента между группами и записи журнала - в одной
// транзакции. Частичное состояние (заявка без кода, перемещение без смены
// статуса) не должно быть наблюдаемо ни при каком исходе.
//
// При конфликте сериализации (одновременное присваивание кода, гонка на
// счётчике состава группы) методы возвращают ошибку с базой
// shared.ErrConcurrentModification; слой команд повторяет операцию.
type Repository interface {
	// Create присваивает заявке код и вставляет её вместе с записью журнала
	// о начальном статусе. Код вычисляется внутри транзакции под
	// сериализующей блокировкой дневного префикса: читается наибольший код
	// дня, номер увеличивается на единицу (или 1, если заявок ещё не было).
	// Возвращает ErrDuplicateOpen, если по паре (студент, предмет) уже есть
	// нетерминальная заявка.
	Create(ctx context.Context, req *Request, entry FieldChange) error

	// GetByID возвращает заявку по внутреннему ID.
	// Возвращает ErrRequestNotFound, если заявка не найдена.
	GetByID(ctx context.Context, id string) (*Request, error)

	// GetByCode возвращает заявку по человекочитаемому коду.
	GetByCode(ctx context.Context, code string) (*Request, error)

	// HasOpen проверяет, существует ли нетерминальная заявка по паре
	// (студент, предмет).
	HasOpen(ctx context.Context, studentID, subjectID string) (bool, error)

	// Update сохраняет изменённую заявку и записи журнала в одной транзакции.
	// Используется переходами, не меняющими состав групп: promote,
	// teacherApprove, teacherReject, reject.
	Update(ctx context.Context, req *Request, changes []FieldChange) error

	// CompleteTransfer сохраняет заявку, атомарно перемещая студента из
	// исходной группы в целевую (если они различаются), вместе с записями
	// журнала.
	CompleteTransfer(ctx context.Context, req *Request, changes []FieldChange) error

	// UndoTransfer сохраняет заявку, атомарно возвращая студента из целевой
	// группы в исходную (откат ранее выполненного перевода), вместе с
	// записями журнала.
	UndoTransfer(ctx context.Context, req *Request, changes []FieldChange) error

	// ListPendingByGroups возвращает все заявки в статусе PENDING, у которых
	// исходная или целевая группа входит в groupIDs. Основа переактивации.
	ListPendingByGroups(ctx context.Context, groupIDs []string) ([]*Request, error)

	// ListWaitingForTeacher возвращает заявки в статусе WAITING_TEACHER,
	// целевые группы которых ведёт указанный преподаватель.
	ListWaitingForTeacher(ctx context.Context, teacherID string) ([]*Request, error)

	// LatestForStudentSubject возвращает последнюю по времени подачи заявку
	// студента по предмету или ErrRequestNotFound.
	LatestForStudentSubject(ctx context.Context, studentID, subjectID string) (*Request, error)
}

// AuditLog определяет доступ на чтение к журналу изменений заявки.
// Запись журнала выполняется методами Repository в транзакциях переходов;
// отдельного пути записи нет.
type AuditLog interface {
	// ListByRequest возвращает записи журнала по заявке в порядке времени
	// изменения (от ранних к поздним).
	ListByRequest(ctx context.Context, requestID string) ([]FieldChange, error)
}
