package handlers

import (
	"net/http"
)

type itemStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) KitchenItemStatusPut(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "item")
	if !ok {
		return
	}
	var req itemStatusRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	it, err := s.App.Service().AdvanceItemStatus(r.Context(), id, req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, it)
}

// KitchenOrdersGet lists the station queue. status may repeat or be comma separated.
func (s *Server) KitchenOrdersGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var statuses []string
	for _, v := range q["status"] {
		statuses = append(statuses, splitCSV(v)...)
	}
	items, err := s.App.Service().KitchenQueue(r.Context(), q.Get("station"), statuses)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, items)
}
