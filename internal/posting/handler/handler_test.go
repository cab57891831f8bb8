package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement/internal/posting"
	id "placement/pkg/domain"
	"placement/pkg/testutil"
)

type noProfiles struct{}

func (noProfiles) Candidate(context.Context, id.StudentID) (posting.CandidateProfile, error) {
	return posting.CandidateProfile{}, nil
}

type handlerFixture struct {
	router  http.Handler
	adminID id.UserID
	jobID   id.JobID
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	jobID := id.JobID(uuid.New())
	job, err := posting.NewPosting(jobID, "Initech", "Backend Engineer", "",
		posting.Eligibility{}, []posting.HiringStep{"online_test", "interview"},
		time.Now().Add(24*time.Hour), time.Now())
	require.NoError(t, err)

	postings := posting.NewInMemory()
	require.NoError(t, postings.Create(context.Background(), job))
	service := posting.NewService(postings, noProfiles{})
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := New(service, logger)
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAdmin(r)

	return &handlerFixture{
		router:  r,
		adminID: id.UserID(uuid.New()),
		jobID:   jobID,
	}
}

func TestHandleClosePosting(t *testing.T) {
	t.Run("admin closes a posting", func(t *testing.T) {
		f := newHandlerFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/postings/"+f.jobID.String()+"/close")
		rr := testutil.DoRequest(f.router, testutil.RequestAsAdmin(req, f.adminID))
		testutil.AssertStatus(t, rr, http.StatusOK)

		closed := testutil.UnmarshalResponse[posting.Posting](t, rr)
		assert.Equal(t, posting.StatusClosed, closed.Status)
	})

	t.Run("students may not close postings", func(t *testing.T) {
		f := newHandlerFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/postings/"+f.jobID.String()+"/close")
		rr := testutil.DoRequest(f.router, testutil.RequestAsStudent(req, id.StudentID(uuid.New())))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("closing twice conflicts", func(t *testing.T) {
		f := newHandlerFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/postings/"+f.jobID.String()+"/close")
		rr := testutil.DoRequest(f.router, testutil.RequestAsAdmin(req, f.adminID))
		testutil.AssertStatus(t, rr, http.StatusOK)

		req = testutil.NewRequest(t, http.MethodPost, "/postings/"+f.jobID.String()+"/close")
		rr = testutil.DoRequest(f.router, testutil.RequestAsAdmin(req, f.adminID))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "invalid_transition")
	})

	t.Run("malformed job id is rejected", func(t *testing.T) {
		f := newHandlerFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/postings/not-a-uuid/close")
		rr := testutil.DoRequest(f.router, testutil.RequestAsAdmin(req, f.adminID))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestHandleListPostings(t *testing.T) {
	t.Run("status=open hides closed postings", func(t *testing.T) {
		f := newHandlerFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/postings/"+f.jobID.String()+"/close")
		rr := testutil.DoRequest(f.router, testutil.RequestAsAdmin(req, f.adminID))
		testutil.AssertStatus(t, rr, http.StatusOK)

		req = testutil.NewRequest(t, http.MethodGet, "/postings?status=open")
		rr = testutil.DoRequest(f.router, testutil.RequestAsStudent(req, id.StudentID(uuid.New())))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Empty(t, *testutil.UnmarshalResponse[[]posting.Posting](t, rr))
	})

	t.Run("plain listing still includes closed postings", func(t *testing.T) {
		f := newHandlerFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/postings/"+f.jobID.String()+"/close")
		rr := testutil.DoRequest(f.router, testutil.RequestAsAdmin(req, f.adminID))
		testutil.AssertStatus(t, rr, http.StatusOK)

		req = testutil.NewRequest(t, http.MethodGet, "/postings")
		rr = testutil.DoRequest(f.router, testutil.RequestAsStudent(req, id.StudentID(uuid.New())))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Len(t, *testutil.UnmarshalResponse[[]posting.Posting](t, rr), 1)
	})
}
