package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router. Static routes under /api/campaigns
// are registered before the {id} routes so "preview", "history" and
// "delivery-receipt" are never captured as campaign ids.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.CreateCampaign)
			r.Get("/", h.ListCampaigns)
			r.Get("/history", h.CampaignHistory)
			r.Post("/preview", h.PreviewAudience)
			r.Post("/delivery-receipt", h.SubmitDeliveryReceipts)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Put("/", h.UpdateCampaign)
				r.Delete("/", h.DeleteCampaign)
				r.Post("/deliver", h.DeliverCampaign)
				r.Patch("/status", h.UpdateCampaignStatus)
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", h.CreateCustomer)
			r.Get("/", h.ListCustomers)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetOrder)
				r.Put("/", h.UpdateOrder)
				r.Delete("/", h.DeleteOrder)
			})
		})

		r.Post("/ai/message-suggestions", h.MessageSuggestions)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/metrics", h.CustomerMetrics)
			r.Get("/activity", h.CustomerActivity)
			r.Get("/spending", h.CustomerSpending)
			r.Get("/top-customers", h.TopCustomers)
		})
	})

	return r
}
