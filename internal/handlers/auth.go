package handlers

import (
	"net/http"

	"table-service-go/internal/app"
)

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.App.Store().Ping(); err != nil {
		app.WriteFail(w, http.StatusServiceUnavailable, "Unavailable", "db not ok")
		return
	}
	s.ok(w, map[string]any{"status": "ok"})
}

/* ---------------- Login / Logout ---------------- */

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) LoginPost(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.App.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if st == nil {
		app.WriteFail(w, http.StatusUnauthorized, app.CodeUnauthorized, "invalid credentials")
		return
	}
	if err := s.App.SetSessionStaff(w, st.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, st)
}

func (s *Server) LogoutPost(w http.ResponseWriter, r *http.Request) {
	s.App.ClearSession(w)
	s.ok(w, map[string]any{"logged_out": true})
}

func (s *Server) MeGet(w http.ResponseWriter, r *http.Request) {
	s.ok(w, app.CurrentStaff(r))
}
