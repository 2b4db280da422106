package app

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"table-service-go/internal/db"
	"table-service-go/internal/service"
)

type ctxKey string

const ctxKeyStaff ctxKey = "staff"

// MiddlewareLoadCurrentStaff resolves the session cookie to an active staff
// member and tags the request context with it.
func (a *App) MiddlewareLoadCurrentStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := a.SessionStaffID(r); ok {
			s, err := a.store.Q.GetStaffByID(r.Context(), id)
			if err != nil {
				a.log.Error("load session staff", "staff_id", id, "err", err)
			} else if s != nil && s.IsActive {
				ctx := context.WithValue(r.Context(), ctxKeyStaff, s)
				ctx = service.WithActor(ctx, s.ID)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// MiddlewareRequestLog writes one line per request once it has been served.
func (a *App) MiddlewareRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"dur", time.Since(start).String(),
			"req_id", chimw.GetReqID(r.Context()),
		}
		if s := CurrentStaff(r); s != nil {
			attrs = append(attrs, "staff", s.Username)
		}
		a.log.Info("http", attrs...)
	})
}

func CurrentStaff(r *http.Request) *db.Staff {
	s, _ := r.Context().Value(ctxKeyStaff).(*db.Staff)
	return s
}

// WithStaff is used by tests to fake a logged-in request.
func WithStaff(ctx context.Context, s *db.Staff) context.Context {
	ctx = context.WithValue(ctx, ctxKeyStaff, s)
	return service.WithActor(ctx, s.ID)
}
