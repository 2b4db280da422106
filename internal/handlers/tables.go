package handlers

import (
	"net/http"
)

func (s *Server) TablesGet(w http.ResponseWriter, r *http.Request) {
	tables, err := s.App.Service().ListTables(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, tables)
}

func (s *Server) AvailableTablesGet(w http.ResponseWriter, r *http.Request) {
	tables, err := s.App.Service().ListAvailableTables(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, tables)
}

func (s *Server) TableOpenPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "table")
	if !ok {
		return
	}
	order, err := s.App.Service().OpenTable(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.created(w, map[string]any{"order_id": order.ID, "order": order})
}

type tableStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) TableStatusPut(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "table")
	if !ok {
		return
	}
	var req tableStatusRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.App.Service().SetTableStatus(r.Context(), id, req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, t)
}

func (s *Server) TableCleanPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "table")
	if !ok {
		return
	}
	t, err := s.App.Service().CleanTable(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, t)
}

func (s *Server) CurrentOrderGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "table")
	if !ok {
		return
	}
	d, err := s.App.Service().CurrentOrder(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, d)
}

func (s *Server) ConfirmedOrdersGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "table")
	if !ok {
		return
	}
	orders, err := s.App.Service().ConfirmedOrders(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, orders)
}

func (s *Server) TableBillsGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "table")
	if !ok {
		return
	}
	bills, err := s.App.Service().TableBills(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, bills)
}
