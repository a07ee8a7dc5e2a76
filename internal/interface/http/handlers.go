package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/application/command"
	"github.com/phystech-portal/transfer-hub/internal/application/query"
	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/transfer"
	"github.com/phystech-portal/transfer-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Transfer Hub API",
		"version":     "v1",
		"description": "REST API for subject group transfer requests",
		"endpoints": map[string]string{
			"health":    "/health",
			"transfers": "/api/v1/transfers",
			"cabinet":   "/api/v1/students/{id}/cabinet",
			"queue":     "/api/v1/teachers/{id}/queue",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// transferView is the wire representation of a transfer request.
type transferView struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	StudentID      string    `json:"student_id"`
	SubjectID      string    `json:"subject_id"`
	FromGroupID    string    `json:"from_group_id,omitempty"`
	ToGroupID      string    `json:"to_group_id"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason"`
	Comment        string    `json:"comment,omitempty"`
	CommentTeacher string    `json:"comment_teacher,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newTransferView(req *transfer.Request) transferView {
	return transferView{
		ID:             req.ID,
		Code:           req.Code,
		StudentID:      req.StudentID,
		SubjectID:      req.SubjectID,
		FromGroupID:    req.FromGroupID,
		ToGroupID:      req.ToGroupID,
		Status:         string(req.Status),
		Reason:         req.Reason,
		Comment:        req.Comment,
		CommentTeacher: req.CommentTeacher,
		CreatedAt:      req.CreatedAt,
		UpdatedAt:      req.UpdatedAt,
	}
}

// actorView is the wire representation of an acting principal.
// A nil view marks a system-triggered change.
type actorView struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// fieldChangeView is the wire representation of one audit entry.
type fieldChangeView struct {
	Field     string     `json:"field"`
	OldValue  string     `json:"old_value"`
	NewValue  string     `json:"new_value"`
	Actor     *actorView `json:"actor,omitempty"`
	ChangedAt time.Time  `json:"changed_at"`
}

func newFieldChangeViews(changes []transfer.FieldChange) []fieldChangeView {
	views := make([]fieldChangeView, 0, len(changes))
	for _, c := range changes {
		v := fieldChangeView{
			Field:     c.Field,
			OldValue:  c.OldValue,
			NewValue:  c.NewValue,
			ChangedAt: c.Timestamp,
		}
		if c.Actor != nil {
			v.Actor = &actorView{
				Kind: string(c.Actor.Kind),
				ID:   c.Actor.ID,
				Name: c.Actor.Name,
			}
		}
		views = append(views, v)
	}
	return views
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSFER LIFECYCLE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCreateTransfer handles POST /api/v1/transfers
func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreateRequestHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Create handler not configured")
		return
	}

	var body struct {
		StudentID string `json:"student_id"`
		SubjectID string `json:"subject_id"`
		ToGroupID string `json:"to_group_id"`
		Reason    string `json:"reason"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.CreateRequestHandler.Handle(r.Context(), command.CreateRequestCommand{
		StudentID: body.StudentID,
		SubjectID: body.SubjectID,
		ToGroupID: body.ToGroupID,
		Reason:    body.Reason,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to create transfer request")
		return
	}

	violations := make([]string, 0, len(result.Violations))
	for _, v := range result.Violations {
		violations = append(violations, v.String())
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"request":    newTransferView(result.Request),
		"violations": violations,
	})
}

// handleTeacherApprove handles POST /api/v1/transfers/{id}/approve
func (s *Server) handleTeacherApprove(w http.ResponseWriter, r *http.Request) {
	s.handleTeacherReview(w, r, true)
}

// handleTeacherDecline handles POST /api/v1/transfers/{id}/decline
func (s *Server) handleTeacherDecline(w http.ResponseWriter, r *http.Request) {
	s.handleTeacherReview(w, r, false)
}

// handleTeacherReview is the shared implementation of approve and decline.
func (s *Server) handleTeacherReview(w http.ResponseWriter, r *http.Request, approve bool) {
	if s.deps.TeacherReviewHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Review handler not configured")
		return
	}

	requestID := r.PathValue("id")
	if requestID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request ID is required")
		return
	}

	var body struct {
		TeacherID string `json:"teacher_id"`
		Comment   string `json:"comment"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	cmd := command.TeacherReviewCommand{
		RequestID: requestID,
		TeacherID: body.TeacherID,
		Comment:   body.Comment,
	}

	var (
		result *command.TeacherReviewResult
		err    error
	)
	if approve {
		result, err = s.deps.TeacherReviewHandler.Approve(r.Context(), cmd)
	} else {
		result, err = s.deps.TeacherReviewHandler.Reject(r.Context(), cmd)
	}
	if err != nil {
		s.writeDomainError(w, r, err, "failed to review transfer request")
		return
	}

	writeJSON(w, http.StatusOK, newTransferView(result.Request))
}

// handleCompleteTransfer handles POST /api/v1/transfers/{id}/complete
func (s *Server) handleCompleteTransfer(w http.ResponseWriter, r *http.Request) {
	if s.deps.CompleteRequestHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Complete handler not configured")
		return
	}

	requestID := r.PathValue("id")
	if requestID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request ID is required")
		return
	}

	var body struct {
		StaffID   string `json:"staff_id"`
		StaffName string `json:"staff_name"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.CompleteRequestHandler.Handle(r.Context(), command.CompleteRequestCommand{
		RequestID: requestID,
		Actor:     s.staffActor(r.Context(), body.StaffID, body.StaffName),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to complete transfer request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request":           newTransferView(result.Request),
		"already_completed": result.AlreadyCompleted,
	})
}

// handleRejectTransfer handles POST /api/v1/transfers/{id}/reject
func (s *Server) handleRejectTransfer(w http.ResponseWriter, r *http.Request) {
	if s.deps.RejectRequestHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Reject handler not configured")
		return
	}

	requestID := r.PathValue("id")
	if requestID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request ID is required")
		return
	}

	var body struct {
		Comment   string `json:"comment"`
		StaffID   string `json:"staff_id"`
		StaffName string `json:"staff_name"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.RejectRequestHandler.Handle(r.Context(), command.RejectRequestCommand{
		RequestID: requestID,
		Comment:   body.Comment,
		Actor:     s.staffActor(r.Context(), body.StaffID, body.StaffName),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to reject transfer request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request":          newTransferView(result.Request),
		"already_rejected": result.AlreadyRejected,
	})
}

// handleUndoTransfer handles POST /api/v1/transfers/{id}/undo
func (s *Server) handleUndoTransfer(w http.ResponseWriter, r *http.Request) {
	if s.deps.UndoRequestHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Undo handler not configured")
		return
	}

	requestID := r.PathValue("id")
	if requestID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request ID is required")
		return
	}

	var body struct {
		StaffID   string `json:"staff_id"`
		StaffName string `json:"staff_name"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.UndoRequestHandler.Handle(r.Context(), command.UndoRequestCommand{
		RequestID: requestID,
		Actor:     s.staffActor(r.Context(), body.StaffID, body.StaffName),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to undo transfer request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request":             newTransferView(result.Request),
		"membership_reversed": result.MembershipReversed,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUP ADMINISTRATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleChangeGroupLimits handles PUT /api/v1/groups/{id}/limits
func (s *Server) handleChangeGroupLimits(w http.ResponseWriter, r *http.Request) {
	if s.deps.ChangeGroupLimitsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Group limits handler not configured")
		return
	}

	groupID := r.PathValue("id")
	if groupID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Group ID is required")
		return
	}

	var body struct {
		MinStudents int    `json:"min_students"`
		MaxStudents int    `json:"max_students"`
		Deadline    string `json:"deadline"` // RFC 3339, empty removes the deadline
		StaffID     string `json:"staff_id"`
		StaffName   string `json:"staff_name"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	var deadline time.Time
	if body.Deadline != "" {
		parsed, err := time.Parse(time.RFC3339, body.Deadline)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "Deadline must be an RFC 3339 timestamp")
			return
		}
		deadline = parsed
	}

	result, err := s.deps.ChangeGroupLimitsHandler.Handle(r.Context(), command.ChangeGroupLimitsCommand{
		GroupID:     groupID,
		MinStudents: body.MinStudents,
		MaxStudents: body.MaxStudents,
		Deadline:    deadline,
		Actor:       s.staffActor(r.Context(), body.StaffID, body.StaffName),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to change group limits")
		return
	}

	writeJSON(w, http.StatusOK, result.Group)
}

// ══════════════════════════════════════════════════════════════════════════════
// READ SIDE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetTransfer handles GET /api/v1/transfers/{id}
func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	s.handleGetTransferHistory(w, r, r.PathValue("id"), "")
}

// handleGetTransferByCode handles GET /api/v1/transfers/code/{code}
func (s *Server) handleGetTransferByCode(w http.ResponseWriter, r *http.Request) {
	s.handleGetTransferHistory(w, r, "", r.PathValue("code"))
}

// handleGetTransferHistory is the shared implementation for transfer lookups.
// The response carries the request together with its full change history.
func (s *Server) handleGetTransferHistory(w http.ResponseWriter, r *http.Request, id, code string) {
	if s.deps.GetRequestHistoryHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "History handler not configured")
		return
	}

	if id == "" && code == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request ID or code is required")
		return
	}

	result, err := s.deps.GetRequestHistoryHandler.Handle(r.Context(), query.GetRequestHistoryQuery{
		RequestID: id,
		Code:      code,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get transfer request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request": newTransferView(result.Request),
		"changes": newFieldChangeViews(result.Changes),
	})
}

// handleGetStudentCabinet handles GET /api/v1/students/{id}/cabinet
func (s *Server) handleGetStudentCabinet(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetStudentCabinetHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Cabinet handler not configured")
		return
	}

	studentID := r.PathValue("id")
	if studentID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	result, err := s.deps.GetStudentCabinetHandler.Handle(r.Context(), query.GetStudentCabinetQuery{
		StudentID: studentID,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get student cabinet")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetTeacherQueue handles GET /api/v1/teachers/{id}/queue
func (s *Server) handleGetTeacherQueue(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListTeacherQueueHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Queue handler not configured")
		return
	}

	teacherID := r.PathValue("id")
	if teacherID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Teacher ID is required")
		return
	}

	result, err := s.deps.ListTeacherQueueHandler.Handle(r.Context(), query.ListTeacherQueueQuery{
		TeacherID: teacherID,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get teacher queue")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HANDLER HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20 // 1 MB

// decodeBody decodes the JSON request body into dst. On failure it writes
// the error response and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return false
	}
	return true
}

// staffActor builds the acting administrator; both fields empty means the
// caller did not identify themselves and the change is recorded as system.
// A missing name is resolved through the staff store when one is wired.
func (s *Server) staffActor(ctx context.Context, id, name string) *shared.Actor {
	if id == "" && name == "" {
		return nil
	}
	if name == "" && id != "" && s.deps.StaffRepo != nil {
		if member, err := s.deps.StaffRepo.GetByID(ctx, id); err == nil {
			return member.Actor()
		}
	}
	return shared.StaffActor(id, name)
}

// writeDomainError maps a domain error to an HTTP status and logs it.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, logMessage string) {
	status, code := statusFromError(err)

	if status >= http.StatusInternalServerError {
		s.logger.Error(logMessage,
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
	} else {
		s.logger.Info(logMessage,
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
	}

	writeJSONError(w, status, code, err.Error())
}

// statusFromError maps domain error kinds to HTTP status codes.
func statusFromError(err error) (int, string) {
	switch {
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case shared.IsPrecondition(err):
		return http.StatusConflict, "invalid_state"
	case shared.IsRetryable(err):
		return http.StatusConflict, "concurrent_modification"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
