package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"placement/internal/audit"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
	"placement/pkg/platform/httputil"
	"placement/pkg/requestcontext"
)

// Handler serves the audit trail read side.
type Handler struct {
	store  audit.Store
	logger *slog.Logger
}

func New(store audit.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the audit endpoints. Callers guard these with the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Get("/students/{studentID}/audit", h.HandleListByStudent)
}

// HandleListByStudent handles GET /students/{studentID}/audit requests.
func (h *Handler) HandleListByStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid student id"))
		return
	}

	events, err := h.store.ListByStudent(ctx, studentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"student_id", studentID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}
