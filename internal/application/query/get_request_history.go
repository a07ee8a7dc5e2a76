package query

import (
	"context"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET REQUEST HISTORY QUERY
// История заявки: сама заявка и её журнал изменений полей в порядке времени.
// Журнал пополняется только транзакциями переходов, поэтому история всегда
// согласована с текущим состоянием заявки.
// ══════════════════════════════════════════════════════════════════════════════

// GetRequestHistoryQuery содержит параметры запроса истории.
type GetRequestHistoryQuery struct {
	// RequestID - внутренний ID заявки. Укажите либо его, либо Code.
	RequestID string

	// Code - человекочитаемый код заявки.
	Code string
}

// Validate проверяет корректность параметров.
func (q GetRequestHistoryQuery) Validate() error {
	if q.RequestID == "" && q.Code == "" {
		return shared.NewDomainError("transfer", "GetRequestHistory", shared.ErrEmptyValue, "request_id or code is required")
	}
	return nil
}

// GetRequestHistoryResult - результат запроса истории.
type GetRequestHistoryResult struct {
	Request *transfer.Request      `json:"request"`
	Changes []transfer.FieldChange `json:"changes"`
}

// GetRequestHistoryHandler обрабатывает GetRequestHistoryQuery.
type GetRequestHistoryHandler struct {
	transfers transfer.Repository
	audit     transfer.AuditLog
}

// NewGetRequestHistoryHandler создаёт новый обработчик запроса истории.
func NewGetRequestHistoryHandler(transfers transfer.Repository, audit transfer.AuditLog) *GetRequestHistoryHandler {
	return &GetRequestHistoryHandler{transfers: transfers, audit: audit}
}

// Handle выполняет запрос.
func (h *GetRequestHistoryHandler) Handle(ctx context.Context, q GetRequestHistoryQuery) (*GetRequestHistoryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		req *transfer.Request
		err error
	)
	if q.RequestID != "" {
		req, err = h.transfers.GetByID(ctx, q.RequestID)
	} else {
		req, err = h.transfers.GetByCode(ctx, q.Code)
	}
	if err != nil {
		return nil, err
	}

	changes, err := h.audit.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &GetRequestHistoryResult{Request: req, Changes: changes}, nil
}
