package posting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "placement/pkg/domain-errors"
)

func btechCSE(cgpa string) CandidateProfile {
	return CandidateProfile{
		Branch:         "CSE",
		Program:        "B.Tech",
		Gender:         "female",
		CGPA:           cgpa,
		GraduationYear: "2026",
	}
}

func TestCheckEligibilityAllRulesPass(t *testing.T) {
	rules := Eligibility{
		Programs: []string{"B.Tech"},
		Branches: []string{"CSE", "ECE"},
		Gender:   GenderAll,
		CGPAMode: CGPAModeUniform,
		CGPA:     "7.5",
		Batches:  []int{2026},
	}

	result, err := CheckEligibility(rules, btechCSE("8.0"))
	require.NoError(t, err)
	assert.True(t, result.Eligible)
	assert.NotNil(t, result.FailedRules, "failed_rules serializes as [], not null")
	assert.Empty(t, result.FailedRules)
}

func TestCheckEligibilityEmptyRuleSetMatchesEveryone(t *testing.T) {
	result, err := CheckEligibility(Eligibility{}, CandidateProfile{})
	require.NoError(t, err)
	assert.True(t, result.Eligible)
}

func TestCheckEligibilityReportsEveryFailure(t *testing.T) {
	rules := Eligibility{
		Programs: []string{"M.Tech"},
		Branches: []string{"ME"},
		Gender:   "male",
		CGPAMode: CGPAModeUniform,
		CGPA:     "9.0",
		Batches:  []int{2025},
	}

	result, err := CheckEligibility(rules, btechCSE("8.0"))
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.ElementsMatch(t,
		[]string{RuleProgram, RuleBranch, RuleGender, RuleCGPA, RuleBatch},
		result.FailedRules)
}

func TestCGPARule(t *testing.T) {
	uniform := Eligibility{CGPAMode: CGPAModeUniform, CGPA: "7.5"}

	t.Run("meets the cutoff exactly", func(t *testing.T) {
		result, err := CheckEligibility(uniform, btechCSE("7.5"))
		require.NoError(t, err)
		assert.True(t, result.Eligible)
	})

	t.Run("falls just below the cutoff", func(t *testing.T) {
		result, err := CheckEligibility(uniform, btechCSE("7.49"))
		require.NoError(t, err)
		assert.False(t, result.Eligible)
		assert.Equal(t, []string{RuleCGPA}, result.FailedRules)
	})

	t.Run("missing candidate CGPA fails a restricted rule", func(t *testing.T) {
		result, err := CheckEligibility(uniform, btechCSE(""))
		require.NoError(t, err)
		assert.False(t, result.Eligible)
	})

	t.Run("malformed candidate CGPA is a validation error", func(t *testing.T) {
		_, err := CheckEligibility(uniform, btechCSE("eight"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("no cutoff means no restriction", func(t *testing.T) {
		result, err := CheckEligibility(Eligibility{CGPAMode: CGPAModeUniform}, btechCSE(""))
		require.NoError(t, err)
		assert.True(t, result.Eligible)
	})
}

func TestPerBranchCGPARule(t *testing.T) {
	perBranch := Eligibility{
		// The hyphenated wire literal, as it arrives in request bodies.
		CGPAMode: "per-branch",
		Criteria: map[string]map[string]string{
			"CSE": {"B.Tech": "8.0", "M.Tech": "7.0"},
		},
	}

	t.Run("uses the branch and program specific cutoff", func(t *testing.T) {
		result, err := CheckEligibility(perBranch, btechCSE("8.0"))
		require.NoError(t, err)
		assert.True(t, result.Eligible)

		result, err = CheckEligibility(perBranch, btechCSE("7.9"))
		require.NoError(t, err)
		assert.False(t, result.Eligible)
	})

	t.Run("uncovered branch fails the rule", func(t *testing.T) {
		candidate := btechCSE("9.9")
		candidate.Branch = "ECE"
		result, err := CheckEligibility(perBranch, candidate)
		require.NoError(t, err)
		assert.False(t, result.Eligible)
		assert.Contains(t, result.FailedRules, RuleCGPA)
	})

	t.Run("fallback opts the uncovered branch into the uniform cutoff", func(t *testing.T) {
		withFallback := perBranch
		withFallback.FallbackUniform = true
		withFallback.CGPA = "6.0"

		candidate := btechCSE("6.5")
		candidate.Branch = "ECE"
		result, err := CheckEligibility(withFallback, candidate)
		require.NoError(t, err)
		assert.True(t, result.Eligible)
	})

	t.Run("matches branch and program case-insensitively", func(t *testing.T) {
		candidate := btechCSE("8.5")
		candidate.Branch = "cse"
		candidate.Program = "b.tech"
		result, err := CheckEligibility(perBranch, candidate)
		require.NoError(t, err)
		assert.True(t, result.Eligible)
	})
}

func TestGenderRule(t *testing.T) {
	t.Run("all admits every candidate", func(t *testing.T) {
		for _, gender := range []string{"female", "male", ""} {
			candidate := btechCSE("8.0")
			candidate.Gender = gender
			result, err := CheckEligibility(Eligibility{Gender: GenderAll}, candidate)
			require.NoError(t, err)
			assert.True(t, result.Eligible, "gender %q", gender)
		}
	})

	t.Run("specific requirement compares case-insensitively", func(t *testing.T) {
		candidate := btechCSE("8.0")
		candidate.Gender = "Female"
		result, err := CheckEligibility(Eligibility{Gender: "female"}, candidate)
		require.NoError(t, err)
		assert.True(t, result.Eligible)
	})

	t.Run("mismatch fails the rule", func(t *testing.T) {
		result, err := CheckEligibility(Eligibility{Gender: "male"}, btechCSE("8.0"))
		require.NoError(t, err)
		assert.Equal(t, []string{RuleGender}, result.FailedRules)
	})
}

func TestBatchRule(t *testing.T) {
	rules := Eligibility{Batches: []int{2025, 2026}}

	t.Run("listed graduation year passes", func(t *testing.T) {
		result, err := CheckEligibility(rules, btechCSE("8.0"))
		require.NoError(t, err)
		assert.True(t, result.Eligible)
	})

	t.Run("unlisted year fails", func(t *testing.T) {
		candidate := btechCSE("8.0")
		candidate.GraduationYear = "2027"
		result, err := CheckEligibility(rules, candidate)
		require.NoError(t, err)
		assert.Equal(t, []string{RuleBatch}, result.FailedRules)
	})

	t.Run("unparseable year fails a restricted rule", func(t *testing.T) {
		candidate := btechCSE("8.0")
		candidate.GraduationYear = ""
		result, err := CheckEligibility(rules, candidate)
		require.NoError(t, err)
		assert.Equal(t, []string{RuleBatch}, result.FailedRules)
	})
}
