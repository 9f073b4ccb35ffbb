package services

import (
	"context"
	"math"
	"time"

	"tailorshop/internal/auth"
	"tailorshop/internal/models"
	"tailorshop/internal/store"

	"github.com/samber/lo"
)

type ReportStore interface {
	OrderCounts(ctx context.Context) (store.OrderCounts, error)
	Revenue(ctx context.Context, from, to *time.Time) (int64, error)
	CustomerCount(ctx context.Context) (int64, error)
	RevenueByPeriod(ctx context.Context, unit string, from, to time.Time) ([]store.PeriodTotal, error)
	PaymentsBetween(ctx context.Context, from, to time.Time) ([]models.Payment, error)
	BestCustomers(ctx context.Context, limit int) ([]store.CustomerRanking, error)
	StaffTaskStats(ctx context.Context, role string) ([]store.StaffTaskStats, error)
}

const (
	DefaultBestCustomers = 10
	chartMonths          = 6
)

type ReportService struct {
	reports ReportStore
	now     func() time.Time
}

func NewReportService(reports ReportStore) *ReportService {
	return &ReportService{reports: reports, now: time.Now}
}

type Dashboard struct {
	Orders         store.OrderCounts
	TotalRevenue   int64
	MonthRevenue   int64
	TotalCustomers int64
	MonthlyChart   []store.PeriodTotal
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func (s *ReportService) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	var err error
	if out.Orders, err = s.reports.OrderCounts(ctx); err != nil {
		return Dashboard{}, err
	}
	if out.TotalRevenue, err = s.reports.Revenue(ctx, nil, nil); err != nil {
		return Dashboard{}, err
	}
	start := monthStart(s.now())
	next := start.AddDate(0, 1, 0)
	if out.MonthRevenue, err = s.reports.Revenue(ctx, &start, &next); err != nil {
		return Dashboard{}, err
	}
	if out.TotalCustomers, err = s.reports.CustomerCount(ctx); err != nil {
		return Dashboard{}, err
	}
	chartFrom := start.AddDate(0, -(chartMonths - 1), 0)
	rows, err := s.reports.RevenueByPeriod(ctx, "month", chartFrom, next)
	if err != nil {
		return Dashboard{}, err
	}
	out.MonthlyChart = fillPeriods(rows, chartFrom, next, func(t time.Time) time.Time { return t.AddDate(0, 1, 0) })
	return out, nil
}

// fillPeriods returns one entry per step in [from, to), zero where no row exists.
func fillPeriods(rows []store.PeriodTotal, from, to time.Time, step func(time.Time) time.Time) []store.PeriodTotal {
	byPeriod := lo.KeyBy(rows, func(row store.PeriodTotal) string {
		return row.Period.Format("2006-01-02")
	})
	var out []store.PeriodTotal
	for cursor := from; cursor.Before(to); cursor = step(cursor) {
		if row, ok := byPeriod[cursor.Format("2006-01-02")]; ok {
			out = append(out, store.PeriodTotal{Period: cursor, Orders: row.Orders, Total: row.Total})
			continue
		}
		out = append(out, store.PeriodTotal{Period: cursor})
	}
	return out
}

type SalesReport struct {
	Period string
	From   time.Time
	To     time.Time
	Rows   []store.PeriodTotal
	Total  int64
	Orders int64
}

var salesUnits = map[string]string{
	"daily":   "day",
	"weekly":  "week",
	"monthly": "month",
}

// Sales buckets completed revenue. Without explicit bounds it covers the
// last 30 days, 12 weeks or 12 months depending on period.
func (s *ReportService) Sales(ctx context.Context, period string, from, to *time.Time) (SalesReport, error) {
	unit, ok := salesUnits[period]
	if !ok {
		period, unit = "daily", "day"
	}
	now := s.now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	var start time.Time
	switch unit {
	case "week":
		start = end.AddDate(0, 0, -7*12)
	case "month":
		start = monthStart(now).AddDate(0, -11, 0)
	default:
		start = end.AddDate(0, 0, -30)
	}
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	rows, err := s.reports.RevenueByPeriod(ctx, unit, start, end)
	if err != nil {
		return SalesReport{}, err
	}
	report := SalesReport{Period: period, From: start, To: end, Rows: rows}
	for _, row := range rows {
		report.Total += row.Total
		report.Orders += row.Orders
	}
	return report, nil
}

type IncomeReport struct {
	Date     time.Time
	Payments []models.Payment
	Total    int64
}

// Income lists the payments taken on the given day.
func (s *ReportService) Income(ctx context.Context, day time.Time) (IncomeReport, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	payments, err := s.reports.PaymentsBetween(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return IncomeReport{}, err
	}
	return IncomeReport{
		Date:     start,
		Payments: payments,
		Total:    lo.SumBy(payments, func(p models.Payment) int64 { return p.Amount }),
	}, nil
}

func (s *ReportService) BestCustomers(ctx context.Context, limit int) ([]store.CustomerRanking, error) {
	if limit <= 0 {
		limit = DefaultBestCustomers
	}
	return s.reports.BestCustomers(ctx, limit)
}

type StaffPerformance struct {
	store.StaffTaskStats
	CompletionRate float64
}

// StaffPerformance reports task completion per tailor. Staff with no tasks
// have a rate of zero.
func (s *ReportService) StaffPerformance(ctx context.Context) ([]StaffPerformance, error) {
	stats, err := s.reports.StaffTaskStats(ctx, auth.RoleTailor)
	if err != nil {
		return nil, err
	}
	return lo.Map(stats, func(row store.StaffTaskStats, _ int) StaffPerformance {
		return StaffPerformance{StaffTaskStats: row, CompletionRate: completionRate(row.CompletedTasks, row.TotalTasks)}
	}), nil
}

func completionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}
