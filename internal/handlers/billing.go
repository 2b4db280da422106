package handlers

import (
	"net/http"
)

type checkoutRequest struct {
	DiscountType *string `json:"discount_type"`
}

func (s *Server) TableCheckoutPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "table")
	if !ok {
		return
	}
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	discount := ""
	if req.DiscountType != nil {
		discount = *req.DiscountType
	}
	bill, err := s.App.Service().Checkout(r.Context(), id, discount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, bill)
}

func (s *Server) RevenueGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseTime(q.Get("from"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := parseTime(q.Get("to"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.App.Service().Revenue(r.Context(), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, rep)
}
