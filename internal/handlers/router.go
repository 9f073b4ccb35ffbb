package handlers

import (
	"net/http"
	"time"

	"tailorshop/internal/auth"
	"tailorshop/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	Deps
}

func New(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

var (
	anyStaff      = []string{auth.RoleAdmin, auth.RoleCashier, auth.RoleTailor}
	frontDesk     = []string{auth.RoleAdmin, auth.RoleCashier}
	workshop      = []string{auth.RoleAdmin, auth.RoleTailor}
	adminOnly     = []string{auth.RoleAdmin}
	loginLimitWin = time.Minute
)

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.Config.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authed := middleware.Auth(h.Config.JWTSecret)
	limited := middleware.RateLimit(h.Limiter, "login", h.Config.LoginRateLimit, loginLimitWin)

	router.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			r.With(limited).Post("/login", h.Login)
			r.With(limited).Post("/request-reset", h.RequestReset)
			r.Post("/refresh", h.Refresh)
			r.Post("/reset-password", h.ResetPassword)
			r.Post("/verify-email", h.VerifyEmail)
			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Get("/me", h.Me)
				r.Post("/change-password", h.ChangePassword)
				r.Post("/logout", h.Logout)
				r.Post("/verify-email/request", h.RequestVerification)
			})
		})

		api.Group(func(r chi.Router) {
			r.Use(authed)

			r.Route("/staff", func(r chi.Router) {
				r.Use(middleware.RequireRole(adminOnly...))
				r.Get("/", h.ListStaff)
				r.Post("/", h.CreateStaff)
				r.Put("/{id}/active", h.SetStaffActive)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Use(middleware.RequireRole(frontDesk...))
				r.Get("/", h.ListCustomers)
				r.Post("/", h.CreateCustomer)
				r.Get("/{id}", h.GetCustomer)
				r.Put("/{id}", h.UpdateCustomer)
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.RequireRole(anyStaff...)).Get("/", h.ListOrders)
				r.With(middleware.RequireRole(anyStaff...)).Get("/{id}", h.GetOrder)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(frontDesk...))
					r.Post("/", h.CreateOrder)
					r.Put("/{id}", h.UpdateOrder)
					r.Delete("/{id}", h.CancelOrder)
					r.Get("/{id}/payments", h.ListOrderPayments)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(frontDesk...))
				r.Post("/payments", h.RecordPayment)
				r.Get("/payments", h.ListPayments)
				r.Get("/transactions", h.ListTransactions)
				r.Post("/transactions", h.RecordTransaction)
				r.Get("/transactions/summary", h.TransactionSummary)
				r.Get("/swaps", h.ListSwaps)
				r.Post("/swaps", h.RecordSwap)
				r.Get("/swaps/summary", h.SwapSummary)
				r.Get("/banks", h.ListBanks)
				r.Post("/banks", h.CreateBank)
				r.Get("/banks/{id}", h.GetBank)
				r.Put("/banks/{id}", h.UpdateBank)
				r.Delete("/banks/{id}", h.DeleteBank)
			})

			r.Route("/inventory", func(r chi.Router) {
				r.With(middleware.RequireRole(workshop...)).Get("/", h.ListInventory)
				r.With(middleware.RequireRole(workshop...)).Get("/{id}", h.GetInventoryItem)
				r.With(middleware.RequireRole(workshop...)).Post("/{id}/adjust", h.AdjustInventory)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(adminOnly...))
					r.Post("/", h.CreateInventoryItem)
					r.Put("/{id}", h.UpdateInventoryItem)
					r.Delete("/{id}", h.DeleteInventoryItem)
				})
			})

			r.Route("/notifications/low-stock", func(r chi.Router) {
				r.Use(middleware.RequireRole(anyStaff...))
				r.Get("/", h.LowStockAlerts)
				r.Get("/unread-count", h.LowStockUnreadCount)
				r.Post("/read-all", h.MarkAllLowStockRead)
				r.Post("/{id}/read", h.MarkLowStockRead)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.With(middleware.RequireRole(workshop...)).Get("/", h.ListTasks)
				r.With(middleware.RequireRole(adminOnly...)).Post("/", h.CreateTask)
				r.With(middleware.RequireRole(workshop...)).Put("/{id}/status", h.UpdateTaskStatus)
			})

			r.With(middleware.RequireRole(frontDesk...)).Get("/dashboard", h.Dashboard)

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequireRole(frontDesk...))
				r.Get("/sales", h.SalesReport)
				r.Get("/income", h.IncomeReport)
				r.Get("/best-customers", h.BestCustomers)
				r.Get("/staff-performance", h.StaffPerformance)
				r.Get("/orders", h.ListOrders)
				r.Get("/transactions", h.ListTransactions)
				r.Get("/reconcile", h.Reconcile)
			})

			r.With(middleware.RequireRole(adminOnly...)).Get("/audit", h.ListAuditLogs)
		})
	})

	router.Get("/ws", h.ServeLive)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if h.Hub != nil {
			body["live_connections"] = h.Hub.ConnectedUsers()
		}
		respondJSON(w, http.StatusOK, body)
	})
	return router
}
