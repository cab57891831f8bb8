package posting

import (
	"strconv"
	"strings"
	"time"

	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
)

// CGPAMode selects how the cutoff is resolved for a candidate.
type CGPAMode string

const (
	// CGPAModeUniform applies a single cutoff to every candidate.
	CGPAModeUniform CGPAMode = "uniform"
	// CGPAModePerBranch resolves the cutoff from Criteria by branch then
	// program. A candidate whose branch/program pair has no entry is
	// ineligible unless FallbackUniform opts into the uniform cutoff.
	CGPAModePerBranch CGPAMode = "per-branch"
)

// GenderAll opens a posting to every candidate regardless of gender.
const GenderAll = "all"

// Eligibility is the rule set attached to a posting. Empty Programs,
// Branches or Batches slices place no restriction on that dimension.
type Eligibility struct {
	Programs        []string                     `json:"programs"`
	Branches        []string                     `json:"branches"`
	Gender          string                       `json:"gender"`
	CGPAMode        CGPAMode                     `json:"cgpa_mode"`
	CGPA            string                       `json:"cgpa"`
	Criteria        map[string]map[string]string `json:"criteria,omitempty"`
	FallbackUniform bool                         `json:"fallback_uniform"`
	Batches         []int                        `json:"batches"`
}

// HiringStep is one stage of a posting's hiring flow.
type HiringStep string

// Status is the lifecycle state of a posting.
type Status string

const (
	// StatusOpen accepts applications until the deadline.
	StatusOpen Status = "open"
	// StatusClosed refuses applications regardless of the deadline.
	StatusClosed Status = "closed"
)

// Posting is a job opening published by a company.
type Posting struct {
	ID          id.JobID     `json:"id"`
	Company     string       `json:"company"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Eligibility Eligibility  `json:"eligibility"`
	Flow        []HiringStep `json:"flow"`
	Status      Status       `json:"status"`
	Deadline    time.Time    `json:"deadline"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewPosting constructs a posting, enforcing creation invariants:
//   - company, title and deadline are required
//   - the hiring flow has at least one stage, with no duplicates
//   - every configured CGPA cutoff parses as a decimal
func NewPosting(jobID id.JobID, company, title, description string, eligibility Eligibility, flow []HiringStep, deadline time.Time, now time.Time) (*Posting, error) {
	if strings.TrimSpace(company) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "company is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if deadline.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "deadline is required")
	}
	if len(flow) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "hiring flow must have at least one stage")
	}
	seen := make(map[HiringStep]struct{}, len(flow))
	for _, step := range flow {
		if strings.TrimSpace(string(step)) == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "hiring flow stages must be non-empty")
		}
		if _, dup := seen[step]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, "hiring flow stage "+string(step)+" is duplicated")
		}
		seen[step] = struct{}{}
	}
	if err := validateEligibility(eligibility); err != nil {
		return nil, err
	}
	return &Posting{
		ID:          jobID,
		Company:     company,
		Title:       title,
		Description: description,
		Eligibility: eligibility,
		Flow:        flow,
		Status:      StatusOpen,
		Deadline:    deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func validateEligibility(e Eligibility) error {
	switch e.CGPAMode {
	case CGPAModeUniform, CGPAModePerBranch:
	case "":
		if e.CGPA != "" || len(e.Criteria) > 0 {
			return dErrors.New(dErrors.CodeValidation, "cgpa_mode is required when a cutoff is set")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown cgpa_mode "+string(e.CGPAMode))
	}
	if e.CGPA != "" {
		if _, err := strconv.ParseFloat(e.CGPA, 64); err != nil {
			return dErrors.New(dErrors.CodeValidation, "cgpa cutoff "+e.CGPA+" is not a decimal")
		}
	}
	for branch, byProgram := range e.Criteria {
		for program, cutoff := range byProgram {
			if _, err := strconv.ParseFloat(cutoff, 64); err != nil {
				return dErrors.New(dErrors.CodeValidation,
					"cgpa cutoff for "+branch+"/"+program+" is not a decimal")
			}
		}
	}
	if e.FallbackUniform && e.CGPAMode == CGPAModePerBranch && e.CGPA == "" {
		return dErrors.New(dErrors.CodeValidation, "fallback_uniform requires a uniform cgpa cutoff")
	}
	return nil
}

// IsOpen reports whether applications are still accepted at the given time.
// A posting closed by an admin stays closed even before its deadline.
func (p *Posting) IsOpen(now time.Time) bool {
	return p.Status == StatusOpen && now.Before(p.Deadline)
}

// CanClose reports whether the posting can transition to closed.
func (p *Posting) CanClose() error {
	if p.Status == StatusClosed {
		return dErrors.New(dErrors.CodeInvalidTransition, "posting is already closed")
	}
	return nil
}

// Close stops the posting from accepting applications.
func (p *Posting) Close(now time.Time) {
	p.Status = StatusClosed
	p.UpdatedAt = now
}

// HasStage reports whether the hiring flow contains the given stage.
func (p *Posting) HasStage(step HiringStep) bool {
	for _, s := range p.Flow {
		if s == step {
			return true
		}
	}
	return false
}

// FirstStage returns the opening stage of the hiring flow.
func (p *Posting) FirstStage() HiringStep {
	return p.Flow[0]
}

// NextStage returns the stage after the given one, or "" when the given
// stage is the last.
func (p *Posting) NextStage(step HiringStep) HiringStep {
	for i, s := range p.Flow {
		if s == step && i+1 < len(p.Flow) {
			return p.Flow[i+1]
		}
	}
	return ""
}
