package handlers

import (
	"net/http"
)

func (s *Server) StaffGet(w http.ResponseWriter, r *http.Request) {
	staff, err := s.App.ListStaff(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, staff)
}

type createStaffRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

func (s *Server) StaffCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.App.CreateStaff(r.Context(), req.Username, req.Password, req.Role, req.DisplayName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.created(w, st)
}

func (s *Server) StaffTogglePost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "staff")
	if !ok {
		return
	}
	st, err := s.App.ToggleStaff(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, st)
}
