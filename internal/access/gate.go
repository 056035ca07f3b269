// Package access decides who may reach which dashboard page or API action.
package access

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
	dashboardPrefix  = "/dashboard"
)

// Reason explains a denial.
type Reason int

const (
	Allow Reason = iota
	DenyUnauthenticated
	DenyForbidden
)

func (r Reason) String() string {
	switch r {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "unauthenticated"
	case DenyForbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Decision is the outcome of CanAccess.
type Decision struct {
	Reason Reason
}

func (d Decision) Allowed() bool { return d.Reason == Allow }

// RedirectTarget is the page a denied browser request is sent to.
func (d Decision) RedirectTarget() string {
	switch d.Reason {
	case DenyUnauthenticated:
		return LoginPath
	case DenyForbidden:
		return UnauthorizedPath
	default:
		return ""
	}
}

// StatusCode is the HTTP status a denied API request receives.
func (d Decision) StatusCode() int {
	switch d.Reason {
	case DenyUnauthenticated:
		return http.StatusUnauthorized
	case DenyForbidden:
		return http.StatusForbidden
	default:
		return http.StatusOK
	}
}

// Level is the minimum role a route needs.
type Level int

const (
	Public Level = iota
	Staff
	SuperAdminOnly
)

// superAdminPages are matched exactly or as a prefix when they end in "/".
var superAdminPages = []string{
	"/dashboard/settings",
	"/dashboard/logs",
	"/dashboard/activity",
	"/dashboard/products/new",
	"/dashboard/products/edit/",
}

// LevelFor classifies a UI route.
func LevelFor(route string) Level {
	route = normalize(route)
	if route != dashboardPrefix && !strings.HasPrefix(route, dashboardPrefix+"/") {
		return Public
	}
	for _, page := range superAdminPages {
		if strings.HasSuffix(page, "/") {
			if strings.HasPrefix(route, page) || route == strings.TrimSuffix(page, "/") {
				return SuperAdminOnly
			}
			continue
		}
		if route == page || strings.HasPrefix(route, page+"/") {
			return SuperAdminOnly
		}
	}
	return Staff
}

// CanAccess applies the policy table to a UI route.
func CanAccess(route string, role enums.Role) Decision {
	return CanPerform(LevelFor(route), role)
}

// CanPerform checks a role against a required level; API routes declare their level
// directly.
func CanPerform(level Level, role enums.Role) Decision {
	if level == Public {
		return Decision{Reason: Allow}
	}
	switch role {
	case enums.RoleNone:
		return Decision{Reason: DenyUnauthenticated}
	case enums.RoleAdmin:
		if level == SuperAdminOnly {
			return Decision{Reason: DenyForbidden}
		}
		return Decision{Reason: Allow}
	case enums.RoleSuperAdmin:
		return Decision{Reason: Allow}
	default:
		// unknown roles never authenticate
		return Decision{Reason: DenyUnauthenticated}
	}
}

// normalize strips query and fragment and cleans the path, so "//" and dot segments
// classify the same as the canonical route.
func normalize(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	route = strings.TrimSpace(route)
	if route == "" {
		return ""
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return path.Clean(route)
}

// Canonical reports the cleaned form of a request path and whether the path already is
// canonical. A single trailing slash is tolerated.
func Canonical(p string) (string, bool) {
	clean := normalize(p)
	return clean, p == clean || p == clean+"/"
}
