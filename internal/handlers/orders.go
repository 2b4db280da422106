package handlers

import (
	"net/http"

	"table-service-go/internal/domain"
	"table-service-go/internal/service"
)

func (s *Server) OrderGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "order")
	if !ok {
		return
	}
	d, err := s.App.Service().GetOrder(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, d)
}

type addItemRequest struct {
	DishID     int64                 `json:"dish_id"`
	Quantity   int                   `json:"quantity"`
	Flavors    []domain.FlavorChoice `json:"flavor_choices"`
	RequestKey string                `json:"request_key"`
}

// OrderItemCreatePost adds a dish to a draft order. Retries may send the
// request key in the body or as an Idempotency-Key header.
func (s *Server) OrderItemCreatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "order")
	if !ok {
		return
	}
	var req addItemRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.RequestKey == "" {
		req.RequestKey = r.Header.Get("Idempotency-Key")
	}
	if req.DishID <= 0 {
		s.badRequest(w, "dish_id is required")
		return
	}
	item, err := s.App.Service().AddItem(r.Context(), service.AddItemParams{
		OrderID:    id,
		DishID:     req.DishID,
		Quantity:   req.Quantity,
		Flavors:    req.Flavors,
		RequestKey: req.RequestKey,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.created(w, item)
}

func (s *Server) OrderConfirmPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "order")
	if !ok {
		return
	}
	d, err := s.App.Service().ConfirmOrder(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, d)
}

func (s *Server) ItemRushPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "item")
	if !ok {
		return
	}
	it, err := s.App.Service().RushItem(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, it)
}

type refundRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) ItemRefundPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "item")
	if !ok {
		return
	}
	var req refundRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	it, err := s.App.Service().RefundItem(r.Context(), id, req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, it)
}

func (s *Server) ItemHistoryGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "item")
	if !ok {
		return
	}
	events, err := s.App.Service().ItemHistory(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, events)
}
