package adapters

import (
	"context"

	"placement/internal/posting"
	"placement/internal/profile"
	id "placement/pkg/domain"
)

// ProfileAdapter implements posting.ProfileReader against the profile
// service, keeping the two modules decoupled in a single process.
type ProfileAdapter struct {
	profiles *profile.Service
}

// NewProfileAdapter creates a new profile adapter.
func NewProfileAdapter(profiles *profile.Service) posting.ProfileReader {
	return &ProfileAdapter{profiles: profiles}
}

// Candidate maps the profile's academic view onto the matcher's input.
func (a *ProfileAdapter) Candidate(ctx context.Context, studentID id.StudentID) (posting.CandidateProfile, error) {
	academic, err := a.profiles.Academic(ctx, studentID)
	if err != nil {
		return posting.CandidateProfile{}, err
	}
	return posting.CandidateProfile{
		Branch:         academic.Branch,
		Program:        academic.Program,
		Gender:         academic.Gender,
		CGPA:           academic.CGPA,
		GraduationYear: academic.GraduationYear,
	}, nil
}
