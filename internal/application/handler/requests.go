package handler

import (
	"strings"

	"placement/internal/application"
	"placement/internal/posting"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
)

const maxBulkSize = 500

// ApplyRequest is the HTTP request body for POST /applications. The resume id
// references an upload held by the file collaborator; the core records it on
// the application without validating the file itself.
type ApplyRequest struct {
	StudentID string `json:"student_id"`
	JobID     string `json:"job_id"`
	ResumeID  string `json:"resume_id"`

	// Parsed values (populated by Validate)
	parsedStudentID id.StudentID
	parsedJobID     id.JobID
	parsedResumeID  id.ResumeID
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ApplyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.StudentID) == "" {
		return dErrors.New(dErrors.CodeValidation, "student_id is required")
	}
	studentID, err := id.ParseStudentID(r.StudentID)
	if err != nil {
		return err
	}
	r.parsedStudentID = studentID

	if strings.TrimSpace(r.JobID) == "" {
		return dErrors.New(dErrors.CodeValidation, "job_id is required")
	}
	jobID, err := id.ParseJobID(r.JobID)
	if err != nil {
		return err
	}
	r.parsedJobID = jobID

	if strings.TrimSpace(r.ResumeID) == "" {
		return dErrors.New(dErrors.CodeValidation, "resume_id is required")
	}
	resumeID, err := id.ParseResumeID(r.ResumeID)
	if err != nil {
		return err
	}
	r.parsedResumeID = resumeID
	return nil
}

// ParsedStudentID returns the validated student id.
func (r *ApplyRequest) ParsedStudentID() id.StudentID { return r.parsedStudentID }

// ParsedJobID returns the validated job id.
func (r *ApplyRequest) ParsedJobID() id.JobID { return r.parsedJobID }

// ParsedResumeID returns the validated resume id.
func (r *ApplyRequest) ParsedResumeID() id.ResumeID { return r.parsedResumeID }

// UpdateStatusRequest is the HTTP request body for POST /applications/{applicationID}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Stage  string `json:"stage,omitempty"`

	parsedStatus application.Status
}

func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Status) == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	status, err := application.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

// ParsedStatus returns the validated target status.
func (r *UpdateStatusRequest) ParsedStatus() application.Status { return r.parsedStatus }

// ParsedStage returns the requested hiring-flow stage, if any.
func (r *UpdateStatusRequest) ParsedStage() posting.HiringStep {
	return posting.HiringStep(strings.TrimSpace(r.Stage))
}

// BulkUpdateStatusRequest is the HTTP request body for POST /applications/status.
type BulkUpdateStatusRequest struct {
	ApplicationIDs []string `json:"application_ids"`
	Status         string   `json:"status"`
	Stage          string   `json:"stage,omitempty"`

	parsedIDs    []id.ApplicationID
	parsedStatus application.Status
}

func (r *BulkUpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.ApplicationIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "application_ids is required")
	}
	if len(r.ApplicationIDs) > maxBulkSize {
		return dErrors.New(dErrors.CodeValidation, "at most 500 applications per batch")
	}
	r.parsedIDs = make([]id.ApplicationID, 0, len(r.ApplicationIDs))
	for _, raw := range r.ApplicationIDs {
		applicationID, err := id.ParseApplicationID(raw)
		if err != nil {
			return err
		}
		r.parsedIDs = append(r.parsedIDs, applicationID)
	}

	status, err := application.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

// ParsedApplicationIDs returns the validated batch, in request order.
func (r *BulkUpdateStatusRequest) ParsedApplicationIDs() []id.ApplicationID { return r.parsedIDs }

// ParsedStatus returns the validated target status.
func (r *BulkUpdateStatusRequest) ParsedStatus() application.Status { return r.parsedStatus }

// ParsedStage returns the requested hiring-flow stage, if any.
func (r *BulkUpdateStatusRequest) ParsedStage() posting.HiringStep {
	return posting.HiringStep(strings.TrimSpace(r.Stage))
}
