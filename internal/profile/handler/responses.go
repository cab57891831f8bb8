package handler

import (
	"placement/internal/profile"
)

// VerifyAllResponse is the HTTP response for POST /students/{studentID}/verification/all.
type VerifyAllResponse struct {
	StudentID      string            `json:"student_id"`
	FieldsVerified int               `json:"fields_verified"`
	FullyVerified  bool              `json:"fully_verified"`
	Failures       []FailureResponse `json:"failures"`
}

// FailureResponse is one field that could not be verified.
type FailureResponse struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// FromSummary converts a verification summary to an HTTP response.
func FromSummary(summary *profile.VerifyAllSummary) *VerifyAllResponse {
	failures := make([]FailureResponse, 0, len(summary.Failures))
	for _, failure := range summary.Failures {
		failures = append(failures, FailureResponse{Ref: failure.Ref, Reason: failure.Reason})
	}
	return &VerifyAllResponse{
		StudentID:      summary.StudentID.String(),
		FieldsVerified: summary.FieldsVerified,
		FullyVerified:  len(summary.Failures) == 0,
		Failures:       failures,
	}
}
