package handlers

import (
	"context"
	"time"

	"tailorshop/internal/auth"
	"tailorshop/internal/config"
	"tailorshop/internal/db"
	"tailorshop/internal/models"
	"tailorshop/internal/services"
	"tailorshop/internal/store"
	"tailorshop/internal/websocket"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type UserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
	ListByRoles(ctx context.Context, roles []string) ([]models.User, error)
}

type CustomerStore interface {
	Create(ctx context.Context, tx store.Execer, customer models.Customer) error
	GetByID(ctx context.Context, customerID string) (models.Customer, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.Customer, error)
	Update(ctx context.Context, tx store.Execer, customer models.Customer) (int64, error)
}

type OrderStore interface {
	GetByID(ctx context.Context, orderID string) (models.Order, error)
	List(ctx context.Context, filter store.OrderFilter, limit, offset int) ([]models.Order, error)
}

type PaymentStore interface {
	ListByOrder(ctx context.Context, orderID string) ([]models.Payment, error)
}

type TransactionStore interface {
	List(ctx context.Context, filter store.TransactionFilter, limit, offset int) ([]models.Transaction, error)
}

type SwapStore interface {
	List(ctx context.Context, limit, offset int) ([]models.Swap, error)
}

type BankStore interface {
	GetByID(ctx context.Context, bankID string) (models.Bank, error)
	List(ctx context.Context) ([]models.Bank, error)
}

type InventoryStore interface {
	GetByID(ctx context.Context, itemID string) (models.InventoryItem, error)
	List(ctx context.Context, itemType string) ([]models.InventoryItem, error)
}

type AuditStore interface {
	List(ctx context.Context, limit, offset int) ([]store.AuditEntry, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password, ip string) (models.User, services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID string) error
	GenerateVerificationToken(ctx context.Context, userID string) (string, error)
	VerifyEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConsumeResetToken(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	CreateStaff(ctx context.Context, actorID string, input services.StaffInput) (models.User, error)
	SetStaffActive(ctx context.Context, actorID, userID string, active bool) error
}

type LedgerService interface {
	RecordPayment(ctx context.Context, req services.PaymentRequest) (services.PaymentResult, error)
	RecordTransaction(ctx context.Context, req services.TransactionRequest) (models.Transaction, error)
	ComputeBalances(ctx context.Context) (map[string]services.CurrencyBalance, error)
	RecordSwap(ctx context.Context, req services.SwapRequest) (models.Swap, error)
	SwapSummary(ctx context.Context) ([]store.SwapTotals, error)
	Reconcile(ctx context.Context) ([]store.PaymentDrift, error)
}

type WorkflowService interface {
	CreateOrder(ctx context.Context, input services.OrderInput) (models.Order, error)
	UpdateOrder(ctx context.Context, actorID, orderID string, update services.OrderUpdate) (models.Order, error)
	CancelOrder(ctx context.Context, actorID, orderID string) (models.Order, error)
	CreateTask(ctx context.Context, input services.TaskInput) (models.Task, error)
	ListTasks(ctx context.Context, actor auth.Identity, status string) ([]models.Task, error)
	UpdateTaskStatus(ctx context.Context, actor auth.Identity, taskID, status string, notes *string) (models.Task, error)
}

type InventoryService interface {
	Create(ctx context.Context, actorID string, input services.InventoryInput) (models.InventoryItem, error)
	Update(ctx context.Context, actorID, itemID string, input services.InventoryInput) (models.InventoryItem, error)
	Adjust(ctx context.Context, actorID, itemID string, delta decimal.Decimal) (models.InventoryItem, error)
	Delete(ctx context.Context, actorID, itemID string) error
	LowStockAlerts(ctx context.Context, userID string) ([]models.LowStockAlert, int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, itemID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type BankService interface {
	Create(ctx context.Context, actorID string, input services.BankInput) (models.Bank, error)
	Update(ctx context.Context, actorID, bankID string, input services.BankInput) (models.Bank, error)
	Delete(ctx context.Context, actorID, bankID string) error
}

type ReportService interface {
	Dashboard(ctx context.Context) (services.Dashboard, error)
	Sales(ctx context.Context, period string, from, to *time.Time) (services.SalesReport, error)
	Income(ctx context.Context, day time.Time) (services.IncomeReport, error)
	BestCustomers(ctx context.Context, limit int) ([]store.CustomerRanking, error)
	StaffPerformance(ctx context.Context) ([]services.StaffPerformance, error)
}

// Deps is everything the HTTP layer talks to. Limiter may be nil.
type Deps struct {
	Config   config.Config
	TxRunner db.TxRunner
	Hub      *websocket.Hub
	Limiter  redis.Scripter

	Users        UserStore
	Customers    CustomerStore
	Orders       OrderStore
	Payments     PaymentStore
	Transactions TransactionStore
	Swaps        SwapStore
	Banks        BankStore
	Inventory    InventoryStore
	Audit        AuditStore

	Auth      AuthService
	Ledger    LedgerService
	Workflow  WorkflowService
	Stock     InventoryService
	BankAdmin BankService
	Reports   ReportService
}
