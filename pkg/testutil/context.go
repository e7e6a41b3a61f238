package testutil

import (
	"net/http"

	id "trustledger/pkg/domain"
	"trustledger/pkg/requestcontext"
)

// WithAuth adds a user ID and role to the request context, simulating what
// the auth middleware does for authenticated requests. An invalid user ID is
// ignored.
func WithAuth(req *http.Request, userID string, role requestcontext.Role) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	if role != "" {
		ctx = requestcontext.WithRole(ctx, role)
	}
	return req.WithContext(ctx)
}
