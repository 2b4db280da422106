package handlers

import (
	"net/http"
	"strings"

	"table-service-go/internal/domain"
	"table-service-go/internal/service"
)

func (s *Server) DishesGet(w http.ResponseWriter, r *http.Request) {
	v := strings.TrimSpace(r.URL.Query().Get("available"))
	onlyAvailable := v == "1" || strings.EqualFold(v, "true")
	dishes, err := s.App.Service().ListDishes(r.Context(), onlyAvailable)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, dishes)
}

func (s *Server) DishGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "dish")
	if !ok {
		return
	}
	d, err := s.App.Service().GetDish(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, d)
}

func (s *Server) DishFlavorsGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "dish")
	if !ok {
		return
	}
	rounds, err := s.App.Service().FlavorRounds(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, rounds)
}

type addDishRequest struct {
	Name     string               `json:"dish_name"`
	Category string               `json:"category"`
	Price    domain.Money         `json:"price"`
	Rounds   []domain.FlavorRound `json:"flavor_rounds"`
}

func (s *Server) DishCreatePost(w http.ResponseWriter, r *http.Request) {
	var req addDishRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.App.Service().AddDish(r.Context(), service.AddDishParams{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Rounds:   req.Rounds,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.created(w, d)
}

func (s *Server) DishDelistPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "dish")
	if !ok {
		return
	}
	d, err := s.App.Service().DelistDish(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, d)
}

func (s *Server) DishDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "dish")
	if !ok {
		return
	}
	if err := s.App.Service().PurgeDish(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, map[string]any{"dish_id": id, "deleted": true})
}

func (s *Server) DiscountsGet(w http.ResponseWriter, r *http.Request) {
	s.ok(w, s.App.Service().Discounts())
}
