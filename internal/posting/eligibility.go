package posting

import (
	"strconv"
	"strings"

	dErrors "placement/pkg/domain-errors"
)

// Rule identifiers reported back to candidates when a check fails.
const (
	RuleProgram = "rule_program"
	RuleBranch  = "rule_branch"
	RuleGender  = "rule_gender"
	RuleCGPA    = "rule_cgpa"
	RuleBatch   = "rule_batch"
)

// CandidateProfile is the academic slice of a student the matcher evaluates.
// All values arrive as recorded on the profile; parsing happens at the rule.
type CandidateProfile struct {
	Branch         string
	Program        string
	Gender         string
	CGPA           string
	GraduationYear string
}

// Result is the outcome of an eligibility check. FailedRules lists every
// rule that failed, not just the first.
type Result struct {
	Eligible    bool     `json:"eligible"`
	FailedRules []string `json:"failed_rules"`
}

// CheckEligibility evaluates every rule of the posting's rule set against the
// candidate and reports all failures. This is pure domain logic - no I/O, no
// side effects. A malformed cutoff or candidate CGPA returns a validation
// error rather than a silent failure.
func CheckEligibility(e Eligibility, candidate CandidateProfile) (Result, error) {
	// Initialized empty so an eligible result serializes failed_rules as
	// [] rather than null.
	failed := []string{}

	if !matchesList(e.Programs, candidate.Program) {
		failed = append(failed, RuleProgram)
	}
	if !matchesList(e.Branches, candidate.Branch) {
		failed = append(failed, RuleBranch)
	}
	if !matchesGender(e.Gender, candidate.Gender) {
		failed = append(failed, RuleGender)
	}

	ok, err := matchesCGPA(e, candidate)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		failed = append(failed, RuleCGPA)
	}

	if !matchesBatch(e.Batches, candidate.GraduationYear) {
		failed = append(failed, RuleBatch)
	}

	return Result{Eligible: len(failed) == 0, FailedRules: failed}, nil
}

// matchesList treats an empty requirement as no restriction. Matching is
// case-insensitive so "B.Tech" and "b.tech" compare equal.
func matchesList(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, value) {
			return true
		}
	}
	return false
}

func matchesGender(required, actual string) bool {
	if required == "" || strings.EqualFold(required, GenderAll) {
		return true
	}
	return strings.EqualFold(required, actual)
}

func matchesCGPA(e Eligibility, candidate CandidateProfile) (bool, error) {
	cutoff, restricted, covered := resolveCutoff(e, candidate)
	if !covered {
		return false, nil
	}
	if !restricted {
		return true, nil
	}
	min, err := strconv.ParseFloat(cutoff, 64)
	if err != nil {
		return false, dErrors.New(dErrors.CodeValidation, "cgpa cutoff "+cutoff+" is not a decimal")
	}
	if candidate.CGPA == "" {
		return false, nil
	}
	actual, err := strconv.ParseFloat(candidate.CGPA, 64)
	if err != nil {
		return false, dErrors.New(dErrors.CodeValidation, "candidate cgpa "+candidate.CGPA+" is not a decimal")
	}
	return actual >= min, nil
}

// resolveCutoff picks the cutoff that applies to the candidate. The second
// return value reports whether a cutoff applies at all; the third whether the
// candidate's branch/program pair is covered by the rule set. In per-branch
// mode a missing entry leaves the candidate uncovered unless the posting opts
// into the uniform fallback.
func resolveCutoff(e Eligibility, candidate CandidateProfile) (cutoff string, restricted, covered bool) {
	switch e.CGPAMode {
	case CGPAModePerBranch:
		if byProgram, ok := lookupFold(e.Criteria, candidate.Branch); ok {
			for program, c := range byProgram {
				if strings.EqualFold(program, candidate.Program) {
					return c, true, true
				}
			}
		}
		if e.FallbackUniform && e.CGPA != "" {
			return e.CGPA, true, true
		}
		return "", false, false
	case CGPAModeUniform:
		if e.CGPA == "" {
			return "", false, true
		}
		return e.CGPA, true, true
	default:
		return "", false, true
	}
}

func lookupFold(criteria map[string]map[string]string, branch string) (map[string]string, bool) {
	for b, byProgram := range criteria {
		if strings.EqualFold(b, branch) {
			return byProgram, true
		}
	}
	return nil, false
}

// matchesBatch treats an empty batch list as no restriction. A candidate
// without a parseable graduation year fails a restricted batch rule.
func matchesBatch(batches []int, graduationYear string) bool {
	if len(batches) == 0 {
		return true
	}
	year, err := strconv.Atoi(strings.TrimSpace(graduationYear))
	if err != nil {
		return false
	}
	for _, b := range batches {
		if b == year {
			return true
		}
	}
	return false
}
