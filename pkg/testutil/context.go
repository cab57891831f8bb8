package testutil

import (
	"context"
	"net/http"
	"time"

	id "placement/pkg/domain"
	"placement/pkg/requestcontext"
)

// AsStudent injects a student caller identity into a context, the way the
// auth middleware would for an authenticated request.
func AsStudent(ctx context.Context, studentID id.StudentID) context.Context {
	ctx = requestcontext.WithUserID(ctx, id.UserID(studentID))
	return requestcontext.WithRole(ctx, id.RoleStudent)
}

// AsAdmin injects an admin caller identity into a context.
func AsAdmin(ctx context.Context, adminID id.UserID) context.Context {
	ctx = requestcontext.WithUserID(ctx, adminID)
	return requestcontext.WithRole(ctx, id.RoleAdmin)
}

// At pins the request clock so services mint deterministic timestamps.
func At(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}

// RequestAsStudent rebuilds an HTTP request with a student caller identity.
func RequestAsStudent(req *http.Request, studentID id.StudentID) *http.Request {
	return req.WithContext(AsStudent(req.Context(), studentID))
}

// RequestAsAdmin rebuilds an HTTP request with an admin caller identity.
func RequestAsAdmin(req *http.Request, adminID id.UserID) *http.Request {
	return req.WithContext(AsAdmin(req.Context(), adminID))
}
