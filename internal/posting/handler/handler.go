package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"placement/internal/posting"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
	"placement/pkg/platform/httputil"
	"placement/pkg/requestcontext"
)

// Service defines the interface for posting and eligibility operations.
type Service interface {
	CreatePosting(ctx context.Context, company, title, description string, eligibility posting.Eligibility, flow []posting.HiringStep, deadline time.Time) (*posting.Posting, error)
	GetPosting(ctx context.Context, jobID id.JobID) (*posting.Posting, error)
	ListPostings(ctx context.Context, openOnly bool) ([]*posting.Posting, error)
	ClosePosting(ctx context.Context, jobID id.JobID) (*posting.Posting, error)
	CheckEligibility(ctx context.Context, studentID id.StudentID, jobID id.JobID) (*posting.Report, error)
}

// Handler wires posting endpoints to the posting service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a posting handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read-side posting endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/postings", h.HandleListPostings)
	r.Get("/postings/{jobID}", h.HandleGetPosting)
	r.Get("/students/{studentID}/eligibility/{jobID}", h.HandleCheckEligibility)
}

// RegisterAdmin mounts the admin-only posting endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/postings", h.HandleCreatePosting)
	r.Post("/postings/{jobID}/close", h.HandleClosePosting)
}

// HandleCreatePosting handles POST /postings requests.
func (h *Handler) HandleCreatePosting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreatePostingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.CreatePosting(ctx, req.Company, req.Title, req.Description, req.Eligibility, req.ParsedFlow(), req.Deadline)
	if err != nil {
		h.logger.ErrorContext(ctx, "posting creation failed",
			"request_id", requestID,
			"company", req.Company,
			"title", req.Title,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "posting created",
		"request_id", requestID,
		"job_id", created.ID,
		"company", created.Company,
	)
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// HandleClosePosting handles POST /postings/{jobID}/close requests.
func (h *Handler) HandleClosePosting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid job id"))
		return
	}

	closed, err := h.service.ClosePosting(ctx, jobID)
	if err != nil {
		h.logger.ErrorContext(ctx, "posting close failed",
			"request_id", requestID,
			"job_id", jobID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "posting closed",
		"request_id", requestID,
		"job_id", closed.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, closed)
}

// HandleListPostings handles GET /postings requests. The status=open query
// parameter restricts the listing to postings still accepting applications.
func (h *Handler) HandleListPostings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postings, err := h.service.ListPostings(ctx, r.URL.Query().Get("status") == "open")
	if err != nil {
		h.logger.ErrorContext(ctx, "posting list failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if postings == nil {
		postings = []*posting.Posting{}
	}
	httputil.WriteJSON(w, http.StatusOK, postings)
}

// HandleGetPosting handles GET /postings/{jobID} requests.
func (h *Handler) HandleGetPosting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid job id"))
		return
	}

	found, err := h.service.GetPosting(ctx, jobID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, found)
}

// HandleCheckEligibility handles GET /students/{studentID}/eligibility/{jobID} requests.
func (h *Handler) HandleCheckEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid student id"))
		return
	}
	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid job id"))
		return
	}

	report, err := h.service.CheckEligibility(ctx, studentID, jobID)
	if err != nil {
		h.logger.ErrorContext(ctx, "eligibility check failed",
			"request_id", requestID,
			"student_id", studentID,
			"job_id", jobID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if report.FailedRules == nil {
		report.FailedRules = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
