package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"placement/internal/application"
	"placement/internal/posting"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
	"placement/pkg/platform/httputil"
	"placement/pkg/requestcontext"
)

// Service defines the interface for application lifecycle operations.
type Service interface {
	Apply(ctx context.Context, studentID id.StudentID, jobID id.JobID, resumeID id.ResumeID) (*application.Application, error)
	Get(ctx context.Context, applicationID id.ApplicationID) (*application.Application, error)
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]*application.Application, error)
	ListByJob(ctx context.Context, jobID id.JobID) ([]*application.Application, error)
	UpdateStatus(ctx context.Context, applicationID id.ApplicationID, to application.Status, stage posting.HiringStep) (*application.Application, error)
	BulkUpdateStatus(ctx context.Context, applicationIDs []id.ApplicationID, to application.Status, stage posting.HiringStep) (*application.BulkResult, error)
}

// Handler wires application endpoints to the application service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an application handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the student-facing application endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications", h.HandleApply)
	r.Get("/applications/{applicationID}", h.HandleGet)
	r.Get("/students/{studentID}/applications", h.HandleListByStudent)
}

// RegisterAdmin mounts the admin-only transition and cohort endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/applications/{applicationID}/status", h.HandleUpdateStatus)
	r.Post("/applications/status", h.HandleBulkUpdateStatus)
	r.Get("/postings/{jobID}/applications", h.HandleListByJob)
}

// HandleApply handles POST /applications requests.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ApplyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Apply(ctx, req.ParsedStudentID(), req.ParsedJobID(), req.ParsedResumeID())
	if err != nil {
		h.logger.ErrorContext(ctx, "application failed",
			"request_id", requestID,
			"student_id", req.StudentID,
			"job_id", req.JobID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application accepted",
		"request_id", requestID,
		"application_id", created.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// HandleGet handles GET /applications/{applicationID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	applicationID, ok := h.pathApplicationID(w, r)
	if !ok {
		return
	}

	found, err := h.service.Get(ctx, applicationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, found)
}

// HandleListByStudent handles GET /students/{studentID}/applications requests.
func (h *Handler) HandleListByStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid student id"))
		return
	}

	applications, err := h.service.ListByStudent(ctx, studentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if applications == nil {
		applications = []*application.Application{}
	}
	httputil.WriteJSON(w, http.StatusOK, applications)
}

// HandleListByJob handles GET /postings/{jobID}/applications requests.
func (h *Handler) HandleListByJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid job id"))
		return
	}

	applications, err := h.service.ListByJob(ctx, jobID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if applications == nil {
		applications = []*application.Application{}
	}
	httputil.WriteJSON(w, http.StatusOK, applications)
}

// HandleUpdateStatus handles POST /applications/{applicationID}/status requests.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	applicationID, ok := h.pathApplicationID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	updated, err := h.service.UpdateStatus(ctx, applicationID, req.ParsedStatus(), req.ParsedStage())
	if err != nil {
		h.logger.ErrorContext(ctx, "status update failed",
			"request_id", requestID,
			"application_id", applicationID,
			"status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, updated)
}

// HandleBulkUpdateStatus handles POST /applications/status requests.
func (h *Handler) HandleBulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[BulkUpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.BulkUpdateStatus(ctx, req.ParsedApplicationIDs(), req.ParsedStatus(), req.ParsedStage())
	if err != nil {
		h.logger.ErrorContext(ctx, "bulk status update failed",
			"request_id", requestID,
			"status", req.Status,
			"batch_size", len(req.ApplicationIDs),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bulk status update served",
		"request_id", requestID,
		"status", req.Status,
		"succeeded", result.Succeeded,
		"failed", len(result.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) pathApplicationID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid application id"))
		return id.ApplicationID{}, false
	}
	return applicationID, true
}
