package handlers

import (
	"time"

	"tailorshop/internal/models"
	"tailorshop/internal/services"
	"tailorshop/internal/store"

	"github.com/samber/lo"
)

type userResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	Phone         string     `json:"phone"`
	Role          string     `json:"role"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at"`
	LoginCount    int        `json:"login_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

func presentUser(user models.User) userResponse {
	return userResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      valueToString(user.FullName),
		Phone:         valueToString(user.Phone),
		Role:          user.Role,
		IsActive:      user.IsActive,
		EmailVerified: user.EmailVerified,
		LastLoginAt:   user.LastLoginAt,
		LoginCount:    user.LoginCount,
		CreatedAt:     user.CreatedAt,
	}
}

type orderResponse struct {
	ID                string     `json:"id"`
	CustomerID        string     `json:"customer_id"`
	CustomerName      string     `json:"customer_name,omitempty"`
	ClothingType      string     `json:"clothing_type"`
	FabricDetails     *string    `json:"fabric_details"`
	DesignDescription *string    `json:"design_description"`
	DeliveryDate      *time.Time `json:"delivery_date"`
	Status            string     `json:"status"`
	TotalPrice        string     `json:"total_price"`
	AdvancePaid       string     `json:"advance_paid"`
	RemainingBalance  string     `json:"remaining_balance"`
	AssignedTo        *string    `json:"assigned_to"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func presentOrder(order models.Order) orderResponse {
	return orderResponse{
		ID:                order.ID,
		CustomerID:        order.CustomerID,
		CustomerName:      valueToString(order.CustomerName),
		ClothingType:      order.ClothingType,
		FabricDetails:     order.FabricDetails,
		DesignDescription: order.DesignDescription,
		DeliveryDate:      order.DeliveryDate,
		Status:            order.Status,
		TotalPrice:        valueToMoney(order.TotalPrice),
		AdvancePaid:       valueToMoney(order.AdvancePaid),
		RemainingBalance:  valueToMoney(order.RemainingBalance()),
		AssignedTo:        order.AssignedTo,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func presentPayment(payment models.Payment) map[string]any {
	return map[string]any{
		"id":           payment.ID,
		"order_id":     payment.OrderID,
		"amount":       valueToMoney(payment.Amount),
		"payment_type": payment.PaymentType,
		"notes":        payment.Notes,
		"created_by":   payment.CreatedBy,
		"created_at":   payment.CreatedAt,
	}
}

func presentTransaction(tx models.Transaction) map[string]any {
	return map[string]any{
		"id":               tx.ID,
		"currency":         tx.Currency,
		"category":         tx.Category,
		"amount":           valueToMoney(tx.Amount),
		"transaction_type": tx.Direction,
		"method":           tx.Method,
		"transaction_date": tx.TransactionDate,
		"details":          tx.Details,
		"created_by":       tx.CreatedBy,
		"created_at":       tx.CreatedAt,
	}
}

func presentSwap(swap models.Swap) map[string]any {
	var rate *string
	if swap.ExchangeRate.Valid {
		rate = lo.ToPtr(swap.ExchangeRate.Decimal.String())
	}
	return map[string]any{
		"id":                  swap.ID,
		"from_account":        swap.FromAccount,
		"to_account":          swap.ToAccount,
		"from_cash_amount":    valueToMoney(swap.FromCash),
		"from_digital_amount": valueToMoney(swap.FromDigital),
		"to_cash_amount":      valueToMoney(swap.ToCash),
		"to_digital_amount":   valueToMoney(swap.ToDigital),
		"exchange_rate":       rate,
		"details":             swap.Details,
		"created_at":          swap.CreatedAt,
	}
}

func presentBank(bank models.Bank) map[string]any {
	return map[string]any{
		"id":             bank.ID,
		"account_number": bank.AccountNumber,
		"name":           bank.Name,
		"balance":        valueToMoney(bank.Balance),
		"user_id":        bank.UserID,
		"username":       bank.Username,
		"created_at":     bank.CreatedAt,
	}
}

func presentItem(item models.InventoryItem) map[string]any {
	var minStock *string
	if item.MinStock.Valid {
		minStock = lo.ToPtr(item.MinStock.Decimal.String())
	}
	return map[string]any{
		"id":           item.ID,
		"item_type":    item.ItemType,
		"name":         item.Name,
		"quantity":     item.Quantity.String(),
		"unit":         item.Unit,
		"min_stock":    minStock,
		"is_low_stock": item.IsLowStock(),
		"notes":        item.Notes,
		"updated_at":   item.UpdatedAt,
	}
}

func presentTask(task models.Task) map[string]any {
	return map[string]any{
		"id":             task.ID,
		"order_id":       task.OrderID,
		"assigned_to":    task.AssignedTo,
		"assignee_name":  task.AssigneeName,
		"status":         task.Status,
		"progress_notes": task.ProgressNotes,
		"completed_at":   task.CompletedAt,
		"created_at":     task.CreatedAt,
	}
}

func presentBalance(balance services.CurrencyBalance) map[string]any {
	return map[string]any{
		"currency":               balance.Currency,
		"cash_balance":           valueToMoney(balance.Cash),
		"digital_balance":        valueToMoney(balance.Digital),
		"total_balance":          valueToMoney(balance.Total),
		"first_transaction_date": balance.FirstDate,
	}
}

func presentPeriods(rows []store.PeriodTotal) []map[string]any {
	return lo.Map(rows, func(row store.PeriodTotal, _ int) map[string]any {
		return map[string]any{
			"period": row.Period.Format("2006-01-02"),
			"orders": row.Orders,
			"total":  valueToMoney(row.Total),
		}
	})
}

func presentCustomer(customer models.Customer) map[string]any {
	return map[string]any{
		"id":            customer.ID,
		"full_name":     customer.FullName,
		"phone":         customer.Phone,
		"email":         customer.Email,
		"address":       customer.Address,
		"special_notes": customer.SpecialNotes,
		"created_at":    customer.CreatedAt,
		"updated_at":    customer.UpdatedAt,
	}
}
