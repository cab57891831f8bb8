package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"placement/internal/profile"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
	"placement/pkg/platform/httputil"
	"placement/pkg/requestcontext"
)

// Service defines the interface for profile and verification operations.
type Service interface {
	UpsertBasicProfile(ctx context.Context, studentID id.StudentID, values map[string]string) (*profile.BasicProfile, error)
	AddRecord(ctx context.Context, studentID id.StudentID, kind profile.RecordKind, values map[string]string) (*profile.Record, error)
	EditRecord(ctx context.Context, studentID id.StudentID, kind profile.RecordKind, recordID id.RecordID, values map[string]string) (*profile.Record, error)
	DeleteRecord(ctx context.Context, studentID id.StudentID, kind profile.RecordKind, recordID id.RecordID) error
	SetFieldStatus(ctx context.Context, studentID id.StudentID, path profile.FieldPath, status profile.FieldStatus, seenValue *string, remark *string) (*profile.VerificationBundle, error)
	VerifyAll(ctx context.Context, studentID id.StudentID) (*profile.VerifyAllSummary, error)
	Bundle(ctx context.Context, studentID id.StudentID) (*profile.VerificationBundle, error)
}

// Handler wires profile endpoints to the profile service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a profile handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts profile endpoints on the router. Verification endpoints are
// mounted separately so the router can guard them with the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Get("/students/{studentID}/profile", h.HandleGetBundle)
	r.Put("/students/{studentID}/profile", h.HandleUpsertProfile)
	r.Post("/students/{studentID}/records/{kind}", h.HandleAddRecord)
	r.Put("/students/{studentID}/records/{kind}/{recordID}", h.HandleEditRecord)
	r.Delete("/students/{studentID}/records/{kind}/{recordID}", h.HandleDeleteRecord)
}

// RegisterVerification mounts the admin-only verification endpoints.
func (h *Handler) RegisterVerification(r chi.Router) {
	r.Post("/students/{studentID}/verification/field", h.HandleSetFieldStatus)
	r.Post("/students/{studentID}/verification/all", h.HandleVerifyAll)
}

// HandleGetBundle handles GET /students/{studentID}/profile requests.
func (h *Handler) HandleGetBundle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	studentID, ok := h.pathStudentID(w, r)
	if !ok {
		return
	}

	bundle, err := h.service.Bundle(ctx, studentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "bundle load failed",
			"request_id", requestcontext.RequestID(ctx),
			"student_id", studentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, bundle)
}

// HandleUpsertProfile handles PUT /students/{studentID}/profile requests.
func (h *Handler) HandleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	studentID, ok := h.pathStudentID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpsertProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	updated, err := h.service.UpsertBasicProfile(ctx, studentID, req.Values)
	if err != nil {
		h.logger.ErrorContext(ctx, "profile upsert failed",
			"request_id", requestID,
			"student_id", studentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "profile upserted",
		"request_id", requestID,
		"student_id", studentID,
		"fields", len(req.Values),
	)
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// HandleAddRecord handles POST /students/{studentID}/records/{kind} requests.
func (h *Handler) HandleAddRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	studentID, ok := h.pathStudentID(w, r)
	if !ok {
		return
	}
	kind, err := profile.ParseRecordKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RecordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.AddRecord(ctx, studentID, kind, req.Values)
	if err != nil {
		h.logger.ErrorContext(ctx, "record creation failed",
			"request_id", requestID,
			"student_id", studentID,
			"kind", kind,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "record created",
		"request_id", requestID,
		"student_id", studentID,
		"kind", kind,
		"record_id", record.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// HandleEditRecord handles PUT /students/{studentID}/records/{kind}/{recordID} requests.
func (h *Handler) HandleEditRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	studentID, ok := h.pathStudentID(w, r)
	if !ok {
		return
	}
	kind, err := profile.ParseRecordKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RecordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.EditRecord(ctx, studentID, kind, recordID, req.Values)
	if err != nil {
		h.logger.ErrorContext(ctx, "record edit failed",
			"request_id", requestID,
			"student_id", studentID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleDeleteRecord handles DELETE /students/{studentID}/records/{kind}/{recordID} requests.
func (h *Handler) HandleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	studentID, ok := h.pathStudentID(w, r)
	if !ok {
		return
	}
	kind, err := profile.ParseRecordKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteRecord(ctx, studentID, kind, recordID); err != nil {
		h.logger.ErrorContext(ctx, "record deletion failed",
			"request_id", requestcontext.RequestID(ctx),
			"student_id", studentID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSetFieldStatus handles POST /students/{studentID}/verification/field requests.
func (h *Handler) HandleSetFieldStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	studentID, ok := h.pathStudentID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetFieldStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	bundle, err := h.service.SetFieldStatus(ctx, studentID, req.ParsedPath(), req.ParsedStatus(), req.SeenValue, req.Remark)
	if err != nil {
		h.logger.ErrorContext(ctx, "field status update failed",
			"request_id", requestID,
			"student_id", studentID,
			"field", req.Field,
			"status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "field status updated",
		"request_id", requestID,
		"student_id", studentID,
		"field", req.Field,
		"status", req.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, bundle)
}

// HandleVerifyAll handles POST /students/{studentID}/verification/all requests.
func (h *Handler) HandleVerifyAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	studentID, ok := h.pathStudentID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.VerifyAll(ctx, studentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "verify all failed",
			"request_id", requestID,
			"student_id", studentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verify all completed",
		"request_id", requestID,
		"student_id", studentID,
		"fields_verified", summary.FieldsVerified,
		"failures", len(summary.Failures),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromSummary(summary))
}

func (h *Handler) pathStudentID(w http.ResponseWriter, r *http.Request) (id.StudentID, bool) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid student id"))
		return id.StudentID{}, false
	}
	return studentID, true
}
