package handler

import (
	"strings"
	"time"

	"placement/internal/posting"
	dErrors "placement/pkg/domain-errors"
)

// CreatePostingRequest is the HTTP request body for POST /postings.
type CreatePostingRequest struct {
	Company     string              `json:"company"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Eligibility posting.Eligibility `json:"eligibility"`
	Flow        []string            `json:"flow"`
	Deadline    time.Time           `json:"deadline"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
// Structural invariants (flow uniqueness, cutoff parsing) are enforced by
// the posting constructor; this catches the obvious omissions early.
func (r *CreatePostingRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Company = strings.TrimSpace(r.Company)
	if r.Company == "" {
		return dErrors.New(dErrors.CodeValidation, "company is required")
	}
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Flow) == 0 {
		return dErrors.New(dErrors.CodeValidation, "flow is required")
	}
	if r.Deadline.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "deadline is required")
	}
	return nil
}

// ParsedFlow returns the hiring flow as domain stages.
func (r *CreatePostingRequest) ParsedFlow() []posting.HiringStep {
	flow := make([]posting.HiringStep, 0, len(r.Flow))
	for _, step := range r.Flow {
		flow = append(flow, posting.HiringStep(step))
	}
	return flow
}
