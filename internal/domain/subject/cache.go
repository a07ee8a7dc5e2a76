package subject

import (
	"context"
	"time"
)

// Occupancy - снимок заполненности предметной группы для быстрых выборок.
// Кеш служит только для отображения: проверка критериев перевода всегда
// читает группы из основного хранилища.
type Occupancy struct {
	GroupID     string    `json:"group_id"`
	Members     int       `json:"members"`
	MinStudents int       `json:"min_students"`
	MaxStudents int       `json:"max_students"`
	Deadline    time.Time `json:"deadline"`
}

// OccupancyOf строит снимок заполненности из группы.
func OccupancyOf(g *Group) Occupancy {
	return Occupancy{
		GroupID:     g.ID,
		Members:     g.MemberCount(),
		MinStudents: g.MinStudents,
		MaxStudents: g.MaxStudents,
		Deadline:    g.Deadline,
	}
}

// Full сообщает, достигла ли группа верхней границы вместимости.
func (o Occupancy) Full() bool {
	return o.Members >= o.MaxStudents
}

// OccupancyCache - кеш заполненности групп. Инвалидируется обработчиком
// событий group.* вместе с запуском переактивации.
type OccupancyCache interface {
	// Get возвращает снимок группы или ok=false при промахе кеша.
	Get(ctx context.Context, groupID string) (Occupancy, bool, error)

	// Set сохраняет снимок группы.
	Set(ctx context.Context, occ Occupancy) error

	// Invalidate удаляет снимки указанных групп.
	Invalidate(ctx context.Context, groupIDs ...string) error
}
