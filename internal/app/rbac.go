package app

import (
	"net/http"
)

const (
	RoleManager = "MANAGER"
	RoleWaiter  = "WAITER"
	RoleChef    = "CHEF"
)

func ValidRole(role string) bool {
	switch role {
	case RoleManager, RoleWaiter, RoleChef:
		return true
	default:
		return false
	}
}

const (
	CodeUnauthorized = "Unauthorized"
	CodeForbidden    = "Forbidden"
)

func (a *App) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentStaff(r) == nil {
			WriteFail(w, http.StatusUnauthorized, CodeUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAnyRole admits the listed roles. Managers pass every staff gate.
func (a *App) RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	set := map[string]bool{RoleManager: true}
	for _, r := range roles {
		set[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := CurrentStaff(r)
			if s == nil {
				WriteFail(w, http.StatusUnauthorized, CodeUnauthorized, "login required")
				return
			}
			if !set[s.Role] {
				WriteFail(w, http.StatusForbidden, CodeForbidden, "not allowed for role "+s.Role)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
