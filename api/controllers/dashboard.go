package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/invoicedesk-backend/api/middleware"
	"github.com/angelmondragon/invoicedesk-backend/api/responses"
)

// DashboardPage answers a guarded page request with the page name and the viewer's role.
// The page guard has already redirected anything the viewer may not see.
func DashboardPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := strings.Trim(strings.TrimPrefix(r.URL.Path, "/dashboard"), "/")
		if page == "" {
			page = "home"
		}
		responses.WriteSuccess(w, map[string]any{
			"page": page,
			"role": middleware.RoleFromContext(r.Context()),
		})
	}
}
