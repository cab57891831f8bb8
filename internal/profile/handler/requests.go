package handler

import (
	"strings"

	"placement/internal/profile"
	dErrors "placement/pkg/domain-errors"
)

const maxFieldValueLength = 2048

// UpsertProfileRequest is the HTTP request body for PUT /students/{studentID}/profile.
type UpsertProfileRequest struct {
	Values map[string]string `json:"values"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *UpsertProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Values) == 0 {
		return dErrors.New(dErrors.CodeValidation, "values is required")
	}
	for name, value := range r.Values {
		if !profile.IsBasicField(name) {
			return dErrors.New(dErrors.CodeValidation, "unknown profile field "+name)
		}
		if len(value) > maxFieldValueLength {
			return dErrors.New(dErrors.CodeValidation, name+" exceeds maximum length")
		}
	}
	return nil
}

// RecordRequest is the HTTP request body for creating or editing a record.
type RecordRequest struct {
	Values map[string]string `json:"values"`
}

func (r *RecordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Values) == 0 {
		return dErrors.New(dErrors.CodeValidation, "values is required")
	}
	for name, value := range r.Values {
		if len(value) > maxFieldValueLength {
			return dErrors.New(dErrors.CodeValidation, name+" exceeds maximum length")
		}
	}
	return nil
}

// SetFieldStatusRequest is the HTTP request body for
// POST /students/{studentID}/verification/field. Field addresses either a
// basic profile field ("cgpa") or a record field ("education.<recordID>.degree").
type SetFieldStatusRequest struct {
	Field     string  `json:"field"`
	Status    string  `json:"status"`
	SeenValue *string `json:"seen_value,omitempty"`
	Remark    *string `json:"remark,omitempty"`

	// Parsed values (populated by Validate)
	parsedPath   profile.FieldPath
	parsedStatus profile.FieldStatus
}

func (r *SetFieldStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Field = strings.TrimSpace(r.Field)
	if r.Field == "" {
		return dErrors.New(dErrors.CodeValidation, "field is required")
	}
	path, err := profile.ParseFieldPath(r.Field)
	if err != nil {
		return err
	}
	r.parsedPath = path

	status, err := profile.ParseFieldStatus(r.Status)
	if err != nil {
		return err
	}
	r.parsedStatus = status

	if r.Remark != nil && len(*r.Remark) > maxFieldValueLength {
		return dErrors.New(dErrors.CodeValidation, "remark exceeds maximum length")
	}
	return nil
}

// ParsedPath returns the validated field path.
func (r *SetFieldStatusRequest) ParsedPath() profile.FieldPath {
	return r.parsedPath
}

// ParsedStatus returns the validated target status.
func (r *SetFieldStatusRequest) ParsedStatus() profile.FieldStatus {
	return r.parsedStatus
}
