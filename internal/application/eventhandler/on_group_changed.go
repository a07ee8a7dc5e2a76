// Package eventhandler содержит обработчики доменных событий.
// Обработчики связывают части системы через события: изменение группы
// запускает переактивацию очереди заявок и сброс кеша заполненности.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/application/command"
	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON GROUP CHANGED HANDLER
// Обрабатывает события group.* (вместимость, крайний срок, состав).
// Любое из них могло освободить место для заявок в статусе PENDING,
// поэтому обработчик инвалидирует кеш заполненности и запускает
// переактивацию по затронутым группам.
// ═══════════════════════════════════════════════════════════════════════════

// OnGroupChangedHandler обрабатывает события изменения предметных групп.
type OnGroupChangedHandler struct {
	reactivate *command.ReactivatePendingHandler
	occupancy  subject.OccupancyCache
	logger     *slog.Logger
	timeout    time.Duration
}

// NewOnGroupChangedHandler создаёт новый обработчик событий групп.
func NewOnGroupChangedHandler(
	reactivate *command.ReactivatePendingHandler,
	occupancy subject.OccupancyCache,
	logger *slog.Logger,
) *OnGroupChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnGroupChangedHandler{
		reactivate: reactivate,
		occupancy:  occupancy,
		logger:     logger,
		timeout:    30 * time.Second,
	}
}

// Name возвращает имя обработчика для логирования шины.
func (h *OnGroupChangedHandler) Name() string {
	return "on_group_changed"
}

// Handle обрабатывает событие.
func (h *OnGroupChangedHandler) Handle(event shared.Event) error {
	changed, ok := event.(shared.GroupChangedEvent)
	if !ok {
		h.logger.Warn("unexpected event type",
			slog.String("handler", h.Name()),
			slog.String("event_type", string(event.EventType())))
		return nil
	}
	if len(changed.GroupIDs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if h.occupancy != nil {
		if err := h.occupancy.Invalidate(ctx, changed.GroupIDs...); err != nil {
			// Кеш отображения: просрочка записи не критична, идём дальше.
			h.logger.Warn("occupancy cache invalidation failed",
				slog.String("handler", h.Name()),
				slog.Any("error", err))
		}
	}

	result, err := h.reactivate.Handle(ctx, command.ReactivatePendingCommand{GroupIDs: changed.GroupIDs})
	if err != nil {
		h.logger.Error("reactivation sweep failed",
			slog.String("handler", h.Name()),
			slog.String("event_type", string(event.EventType())),
			slog.Any("error", err))
		return err
	}

	if result.Examined > 0 {
		h.logger.Info("reactivation sweep finished",
			slog.String("event_type", string(event.EventType())),
			slog.Int("examined", result.Examined),
			slog.Int("promoted", len(result.Promoted)))
	}

	return nil
}
