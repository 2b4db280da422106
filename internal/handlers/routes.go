package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"table-service-go/internal/app"
)

// NewRouter wires every API route. It lives outside the app package so
// handlers can depend on app without a cycle.
func NewRouter(a *app.App) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(a.MiddlewareLoadCurrentStaff)
	r.Use(a.MiddlewareRequestLog)

	h := &Server{App: a}

	// SSE streams must not hit the request timeout.
	r.Get("/api/events", h.EventsGet)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		r.Get("/health", h.Health)

		r.Route("/api", func(api chi.Router) {
			api.Post("/login", h.LoginPost)
			api.Post("/logout", h.LogoutPost)
			api.With(a.RequireAuth).Get("/me", h.MeGet)

			// Guests at the table: browse, follow and add to the draft order.
			api.Get("/tables", h.TablesGet)
			api.Get("/tables/available", h.AvailableTablesGet)
			api.Get("/tables/{id}/current-order", h.CurrentOrderGet)
			api.Get("/tables/{id}/confirmed-orders", h.ConfirmedOrdersGet)
			api.Get("/dishes", h.DishesGet)
			api.Get("/dishes/{id}", h.DishGet)
			api.Get("/dishes/{id}/flavors", h.DishFlavorsGet)
			api.Get("/orders/{id}", h.OrderGet)
			api.Post("/orders/{id}/items", h.OrderItemCreatePost)
			api.Get("/discounts", h.DiscountsGet)

			// Waiters (managers allowed)
			api.Group(func(wr chi.Router) {
				wr.Use(a.RequireAnyRole(app.RoleWaiter))

				wr.Post("/tables/{id}/open", h.TableOpenPost)
				wr.Put("/tables/{id}/status", h.TableStatusPut)
				wr.Post("/tables/{id}/clean", h.TableCleanPost)
				wr.Post("/tables/{id}/checkout", h.TableCheckoutPost)
				wr.Get("/tables/{id}/bills", h.TableBillsGet)
				wr.Post("/orders/{id}/confirm", h.OrderConfirmPost)
				wr.Post("/items/{id}/rush", h.ItemRushPost)
				wr.Post("/items/{id}/refund", h.ItemRefundPost)
			})

			// Kitchen (managers allowed)
			api.Group(func(kr chi.Router) {
				kr.Use(a.RequireAnyRole(app.RoleChef))

				kr.Put("/kitchen/items/{id}/status", h.KitchenItemStatusPut)
				kr.Get("/kitchen/orders", h.KitchenOrdersGet)
			})

			// Any staff
			api.With(a.RequireAnyRole(app.RoleWaiter, app.RoleChef)).Get("/items/{id}/history", h.ItemHistoryGet)

			// Manager
			api.Group(func(mr chi.Router) {
				mr.Use(a.RequireAnyRole())

				mr.Post("/dishes", h.DishCreatePost)
				mr.Post("/dishes/{id}/delist", h.DishDelistPost)
				mr.Delete("/dishes/{id}", h.DishDelete)
				mr.Get("/revenue", h.RevenueGet)
				mr.Get("/staff", h.StaffGet)
				mr.Post("/staff", h.StaffCreatePost)
				mr.Post("/staff/{id}/toggle", h.StaffTogglePost)
			})
		})
	})

	return r
}
