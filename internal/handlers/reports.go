package handlers

import (
	"net/http"
	"time"

	"tailorshop/internal/models"
	"tailorshop/internal/services"
	"tailorshop/internal/store"

	"github.com/samber/lo"
)

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Reports.Dashboard(r.Context())
	if err != nil {
		respondServiceError(w, err, "unable to load dashboard")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"total_orders":       dash.Orders.Total,
		"completed_orders":   dash.Orders.Completed,
		"pending_orders":     dash.Orders.Pending,
		"in_progress_orders": dash.Orders.InProgress,
		"total_revenue":      valueToMoney(dash.TotalRevenue),
		"month_revenue":      valueToMoney(dash.MonthRevenue),
		"total_customers":    dash.TotalCustomers,
		"monthly_chart": lo.Map(dash.MonthlyChart, func(p store.PeriodTotal, _ int) map[string]any {
			return map[string]any{
				"month":   p.Period.Format("2006-01"),
				"orders":  p.Orders,
				"revenue": valueToMoney(p.Total),
			}
		}),
	})
}

func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parseDate(query.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDate(query.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid to date")
		return
	}
	report, err := h.Reports.Sales(r.Context(), query.Get("period"), from, to)
	if err != nil {
		respondServiceError(w, err, "unable to build sales report")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"period":       report.Period,
		"from":         report.From.Format("2006-01-02"),
		"to":           report.To.Format("2006-01-02"),
		"rows":         presentPeriods(report.Rows),
		"total":        valueToMoney(report.Total),
		"total_orders": report.Orders,
	})
}

func (h *Handler) IncomeReport(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date")
			return
		}
		day = *parsed
	}
	report, err := h.Reports.Income(r.Context(), day)
	if err != nil {
		respondServiceError(w, err, "unable to build income report")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"date":  report.Date.Format("2006-01-02"),
		"total": valueToMoney(report.Total),
		"payments": lo.Map(report.Payments, func(p models.Payment, _ int) map[string]any {
			return presentPayment(p)
		}),
	})
}

func (h *Handler) BestCustomers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Reports.BestCustomers(r.Context(), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		respondServiceError(w, err, "unable to rank customers")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(rows, func(c store.CustomerRanking, _ int) map[string]any {
		return map[string]any{
			"customer_id": c.CustomerID,
			"full_name":   c.FullName,
			"phone":       c.Phone,
			"order_count": c.OrderCount,
			"total_spent": valueToMoney(c.TotalSpent),
		}
	}))
}

func (h *Handler) StaffPerformance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Reports.StaffPerformance(r.Context())
	if err != nil {
		respondServiceError(w, err, "unable to load staff performance")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(rows, func(p services.StaffPerformance, _ int) map[string]any {
		return map[string]any{
			"user_id":         p.UserID,
			"username":        p.Username,
			"full_name":       p.FullName,
			"total_tasks":     p.TotalTasks,
			"completed_tasks": p.CompletedTasks,
			"completion_rate": p.CompletionRate,
		}
	}))
}
