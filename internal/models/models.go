package models

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	CurrencyKES = "KES"
	CurrencyUSD = "USD"

	MethodCash    = "cash"
	MethodDigital = "digital"

	DirectionIn  = "in"
	DirectionOut = "out"
)

var (
	Currencies = []string{CurrencyKES, CurrencyUSD}
	Methods    = []string{MethodCash, MethodDigital}
	Directions = []string{DirectionIn, DirectionOut}
)

const (
	OrderPending    = "pending"
	OrderInProgress = "in_progress"
	OrderCompleted  = "completed"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

var OrderStatuses = []string{OrderPending, OrderInProgress, OrderCompleted, OrderDelivered, OrderCancelled}

var orderFlow = map[string][]string{
	OrderPending:    {OrderInProgress},
	OrderInProgress: {OrderCompleted},
	OrderCompleted:  {OrderDelivered},
}

// CanTransition reports whether an order may move from one status to another.
// Any non-cancelled order may be cancelled; repeating the current status is a no-op.
func CanTransition(from, to string) bool {
	if from == to {
		return lo.Contains(OrderStatuses, to)
	}
	if to == OrderCancelled {
		return from != OrderCancelled
	}
	return lo.Contains(orderFlow[from], to)
}

const (
	TaskAssigned   = "assigned"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
)

var TaskStatuses = []string{TaskAssigned, TaskInProgress, TaskCompleted}

type User struct {
	ID                       string     `db:"id"`
	Username                 string     `db:"username"`
	Email                    string     `db:"email"`
	PasswordHash             string     `db:"password_hash"`
	FullName                 *string    `db:"full_name"`
	Phone                    *string    `db:"phone"`
	Role                     string     `db:"role"`
	IsActive                 bool       `db:"is_active"`
	EmailVerified            bool       `db:"email_verified"`
	VerificationToken        *string    `db:"verification_token"`
	VerificationTokenExpires *time.Time `db:"verification_token_expires"`
	FailedLoginAttempts      int        `db:"failed_login_attempts"`
	LockedUntil              *time.Time `db:"locked_until"`
	LastLoginAt              *time.Time `db:"last_login_at"`
	LastLoginIP              *string    `db:"last_login_ip"`
	CurrentLoginAt           *time.Time `db:"current_login_at"`
	CurrentLoginIP           *string    `db:"current_login_ip"`
	LoginCount               int        `db:"login_count"`
	ResetToken               *string    `db:"reset_token"`
	ResetTokenExpires        *time.Time `db:"reset_token_expires"`
	RefreshTokenHash         *string    `db:"refresh_token_hash"`
	CreatedAt                time.Time  `db:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at"`
}

type Customer struct {
	ID           string    `db:"id"`
	FullName     string    `db:"full_name"`
	Phone        string    `db:"phone"`
	Email        *string   `db:"email"`
	Address      *string   `db:"address"`
	SpecialNotes *string   `db:"special_notes"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Order struct {
	ID                string     `db:"id"`
	CustomerID        string     `db:"customer_id"`
	CustomerName      *string    `db:"customer_name"`
	ClothingType      string     `db:"clothing_type"`
	FabricDetails     *string    `db:"fabric_details"`
	DesignDescription *string    `db:"design_description"`
	DeliveryDate      *time.Time `db:"delivery_date"`
	Status            string     `db:"status"`
	TotalPrice        int64      `db:"total_price"`
	AdvancePaid       int64      `db:"advance_paid"`
	AssignedTo        *string    `db:"assigned_to"`
	CreatedBy         *string    `db:"created_by"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func (o Order) RemainingBalance() int64 {
	return o.TotalPrice - o.AdvancePaid
}

type Payment struct {
	ID          string    `db:"id"`
	OrderID     string    `db:"order_id"`
	Amount      int64     `db:"amount"`
	PaymentType string    `db:"payment_type"`
	Notes       *string   `db:"notes"`
	CreatedBy   *string   `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

type Transaction struct {
	ID              string    `db:"id"`
	Currency        string    `db:"currency"`
	Category        *string   `db:"category"`
	Amount          int64     `db:"amount"`
	Direction       string    `db:"transaction_type"`
	Method          string    `db:"method"`
	TransactionDate time.Time `db:"transaction_date"`
	Details         *string   `db:"details"`
	CreatedBy       *string   `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
}

// Signed is the transaction's contribution to its currency/method balance.
func (t Transaction) Signed() int64 {
	if t.Direction == DirectionOut {
		return -t.Amount
	}
	return t.Amount
}

type Swap struct {
	ID           string              `db:"id"`
	FromAccount  string              `db:"from_account"`
	ToAccount    string              `db:"to_account"`
	FromCash     int64               `db:"from_cash_amount"`
	FromDigital  int64               `db:"from_digital_amount"`
	ToCash       int64               `db:"to_cash_amount"`
	ToDigital    int64               `db:"to_digital_amount"`
	ExchangeRate decimal.NullDecimal `db:"exchange_rate"`
	Details      *string             `db:"details"`
	CreatedBy    *string             `db:"created_by"`
	CreatedAt    time.Time           `db:"created_at"`
}

type Bank struct {
	ID            string    `db:"id"`
	AccountNumber string    `db:"account_number"`
	Name          string    `db:"name"`
	Balance       int64     `db:"balance"`
	UserID        *string   `db:"user_id"`
	Username      *string   `db:"username"`
	CreatedAt     time.Time `db:"created_at"`
}

type InventoryItem struct {
	ID        string              `db:"id"`
	ItemType  string              `db:"item_type"`
	Name      string              `db:"name"`
	Quantity  decimal.Decimal     `db:"quantity"`
	Unit      string              `db:"unit"`
	MinStock  decimal.NullDecimal `db:"min_stock"`
	Notes     *string             `db:"notes"`
	CreatedAt time.Time           `db:"created_at"`
	UpdatedAt time.Time           `db:"updated_at"`
}

func (i InventoryItem) IsLowStock() bool {
	return i.MinStock.Valid && i.Quantity.LessThanOrEqual(i.MinStock.Decimal)
}

// LowStockAlert is an inventory item at or under the alert threshold, with the
// reader's dismissal state.
type LowStockAlert struct {
	InventoryItem
	IsRead bool `db:"is_read"`
}

type Task struct {
	ID            string     `db:"id"`
	OrderID       string     `db:"order_id"`
	AssignedTo    string     `db:"assigned_to"`
	AssigneeName  *string    `db:"assignee_name"`
	Status        string     `db:"status"`
	ProgressNotes *string    `db:"progress_notes"`
	CompletedAt   *time.Time `db:"completed_at"`
	CreatedAt     time.Time  `db:"created_at"`
}
