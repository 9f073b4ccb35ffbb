package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tailorshop/internal/auth"
	"tailorshop/internal/db"
	"tailorshop/internal/events"
	"tailorshop/internal/models"
	"tailorshop/internal/store"
	"tailorshop/internal/validator"
	"tailorshop/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

type OrderStore interface {
	Create(ctx context.Context, tx store.Execer, order models.Order) error
	GetByID(ctx context.Context, orderID string) (models.Order, error)
	GetForUpdate(ctx context.Context, tx store.Getter, orderID string) (models.Order, error)
	Update(ctx context.Context, tx store.Execer, order models.Order) (int64, error)
	UpdateStatus(ctx context.Context, tx store.Execer, orderID, status string) error
	Assign(ctx context.Context, tx store.Execer, orderID, userID, status string) error
}

type CustomerLookup interface {
	Exists(ctx context.Context, customerID string) (bool, error)
}

type StaffLookup interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type TaskStore interface {
	Create(ctx context.Context, tx store.Execer, task models.Task) error
	ExistsForOrder(ctx context.Context, tx store.Getter, orderID string) (bool, error)
	GetForUpdate(ctx context.Context, tx store.Getter, taskID string) (models.Task, error)
	List(ctx context.Context, assignedTo, status string) ([]models.Task, error)
	UpdateStatus(ctx context.Context, tx store.Execer, taskID, status string, notes *string, completedAt *time.Time) error
}

// WorkflowService moves orders through their lifecycle and assigns the
// tailoring work behind them.
type WorkflowService struct {
	txRunner  db.TxRunner
	orders    OrderStore
	customers CustomerLookup
	staff     StaffLookup
	tasks     TaskStore
	audit     AuditStore
	notifier  Notifier
	publisher events.Publisher
	now       func() time.Time
}

func NewWorkflowService(
	txRunner db.TxRunner,
	orders OrderStore,
	customers CustomerLookup,
	staff StaffLookup,
	tasks TaskStore,
	audit AuditStore,
	notifier Notifier,
	publisher events.Publisher,
) *WorkflowService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &WorkflowService{
		txRunner:  txRunner,
		orders:    orders,
		customers: customers,
		staff:     staff,
		tasks:     tasks,
		audit:     audit,
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
	}
}

type OrderInput struct {
	CustomerID        string
	ClothingType      string
	FabricDetails     string
	DesignDescription string
	DeliveryDate      *time.Time
	TotalPrice        int64
	ActorID           string
}

func (s *WorkflowService) CreateOrder(ctx context.Context, input OrderInput) (models.Order, error) {
	if strings.TrimSpace(input.CustomerID) == "" || strings.TrimSpace(input.ClothingType) == "" {
		return models.Order{}, fmt.Errorf("customer_id and clothing_type: %w", validator.ErrRequired)
	}
	if input.TotalPrice < 0 {
		return models.Order{}, ErrInvalidAmount
	}
	exists, err := s.customers.Exists(ctx, input.CustomerID)
	if err != nil {
		return models.Order{}, err
	}
	if !exists {
		return models.Order{}, ErrCustomerNotFound
	}
	now := s.now()
	order := models.Order{
		ID:                uuid.NewString(),
		CustomerID:        input.CustomerID,
		ClothingType:      strings.TrimSpace(input.ClothingType),
		FabricDetails:     optional(input.FabricDetails),
		DesignDescription: optional(input.DesignDescription),
		DeliveryDate:      input.DeliveryDate,
		Status:            models.OrderPending,
		TotalPrice:        input.TotalPrice,
		CreatedBy:         optional(input.ActorID),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.orders.Create(ctx, tx, order); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, input.ActorID, "create_order", "order", order.ID, "{}")
	})
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// OrderUpdate carries the fields to change; nil means leave as is.
type OrderUpdate struct {
	ClothingType      *string
	FabricDetails     *string
	DesignDescription *string
	DeliveryDate      *time.Time
	TotalPrice        *int64
	Status            *string
}

func (s *WorkflowService) UpdateOrder(ctx context.Context, actorID, orderID string, update OrderUpdate) (models.Order, error) {
	if update.TotalPrice != nil && *update.TotalPrice < 0 {
		return models.Order{}, ErrInvalidAmount
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		order, err := s.orders.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return err
		}
		if update.ClothingType != nil && strings.TrimSpace(*update.ClothingType) != "" {
			order.ClothingType = strings.TrimSpace(*update.ClothingType)
		}
		if update.FabricDetails != nil {
			order.FabricDetails = optional(*update.FabricDetails)
		}
		if update.DesignDescription != nil {
			order.DesignDescription = optional(*update.DesignDescription)
		}
		if update.DeliveryDate != nil {
			order.DeliveryDate = update.DeliveryDate
		}
		if update.TotalPrice != nil {
			order.TotalPrice = *update.TotalPrice
		}
		if _, err := s.orders.Update(ctx, tx, order); err != nil {
			return err
		}
		if update.Status != nil && *update.Status != order.Status {
			if !models.CanTransition(order.Status, *update.Status) {
				return ErrInvalidTransition
			}
			if err := s.orders.UpdateStatus(ctx, tx, order.ID, *update.Status); err != nil {
				return err
			}
		}
		return s.audit.Log(ctx, tx, actorID, "update_order", "order", order.ID, "{}")
	})
	if err != nil {
		return models.Order{}, err
	}
	return s.orders.GetByID(ctx, orderID)
}

func (s *WorkflowService) CancelOrder(ctx context.Context, actorID, orderID string) (models.Order, error) {
	status := models.OrderCancelled
	return s.UpdateOrder(ctx, actorID, orderID, OrderUpdate{Status: &status})
}

type TaskInput struct {
	OrderID    string
	AssignedTo string
	Notes      string
	ActorID    string
}

// CreateTask assigns an order to a staff member. An order carries at most
// one task; creating it moves the order to in_progress.
func (s *WorkflowService) CreateTask(ctx context.Context, input TaskInput) (models.Task, error) {
	assignee, err := s.staff.GetByID(ctx, input.AssignedTo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrUserNotFound
		}
		return models.Task{}, err
	}
	if !assignee.IsActive || !lo.Contains(auth.StaffRoles, assignee.Role) {
		return models.Task{}, ErrUserNotFound
	}
	task := models.Task{
		ID:            uuid.NewString(),
		OrderID:       input.OrderID,
		AssignedTo:    assignee.ID,
		AssigneeName:  assignee.FullName,
		Status:        models.TaskAssigned,
		ProgressNotes: optional(input.Notes),
		CreatedAt:     s.now(),
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		order, err := s.orders.GetForUpdate(ctx, tx, input.OrderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return err
		}
		if !models.CanTransition(order.Status, models.OrderInProgress) {
			return ErrInvalidTransition
		}
		exists, err := s.tasks.ExistsForOrder(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrTaskExists
		}
		if err := s.tasks.Create(ctx, tx, task); err != nil {
			if isUniqueViolation(err) {
				return ErrTaskExists
			}
			return err
		}
		if err := s.orders.Assign(ctx, tx, order.ID, assignee.ID, models.OrderInProgress); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, input.ActorID, "create_task", "task", task.ID, auditData(map[string]string{
			"order_id":    order.ID,
			"assigned_to": assignee.ID,
		}))
	})
	if err != nil {
		return models.Task{}, err
	}
	if s.notifier != nil {
		s.notifier.Broadcast(websocket.Message{Type: "task_assigned", Data: map[string]string{
			"task_id":     task.ID,
			"order_id":    task.OrderID,
			"assigned_to": task.AssignedTo,
		}})
	}
	return task, nil
}

// ListTasks shows tailors only their own tasks.
func (s *WorkflowService) ListTasks(ctx context.Context, actor auth.Identity, status string) ([]models.Task, error) {
	assignedTo := ""
	if actor.Role == auth.RoleTailor {
		assignedTo = actor.UserID
	}
	return s.tasks.List(ctx, assignedTo, status)
}

// UpdateTaskStatus moves a task along. Completing it stamps completed_at and
// completes the parent order; a completed task cannot be reopened. Tailors
// may only touch tasks assigned to them.
func (s *WorkflowService) UpdateTaskStatus(ctx context.Context, actor auth.Identity, taskID, status string, notes *string) (models.Task, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !lo.Contains(models.TaskStatuses, status) {
		return models.Task{}, ErrInvalidStatus
	}
	now := s.now()
	var task models.Task
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.tasks.GetForUpdate(ctx, tx, taskID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if actor.Role == auth.RoleTailor && current.AssignedTo != actor.UserID {
			return ErrForbidden
		}
		if current.Status == models.TaskCompleted && status != models.TaskCompleted {
			return ErrInvalidTransition
		}
		var completedAt *time.Time
		if status == models.TaskCompleted {
			completedAt = &now
			if current.CompletedAt != nil {
				completedAt = current.CompletedAt
			}
			if err := s.completeOrder(ctx, tx, current.OrderID); err != nil {
				return err
			}
		}
		if err := s.tasks.UpdateStatus(ctx, tx, current.ID, status, notes, completedAt); err != nil {
			return err
		}
		current.Status = status
		current.CompletedAt = completedAt
		if notes != nil {
			current.ProgressNotes = notes
		}
		task = current
		return s.audit.Log(ctx, tx, actor.UserID, "update_task", "task", current.ID, auditData(map[string]string{"status": status}))
	})
	if err != nil {
		return models.Task{}, err
	}
	if task.Status == models.TaskCompleted {
		payload := map[string]any{"task_id": task.ID, "order_id": task.OrderID}
		_ = s.publisher.Publish(ctx, events.New(events.TaskCompleted, actor.UserID, payload))
		if s.notifier != nil {
			s.notifier.Broadcast(websocket.Message{Type: events.TaskCompleted, Data: payload})
		}
	}
	return task, nil
}

func (s *WorkflowService) completeOrder(ctx context.Context, tx *sqlx.Tx, orderID string) error {
	order, err := s.orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	}
	switch order.Status {
	case models.OrderCompleted, models.OrderDelivered:
		return nil
	case models.OrderCancelled:
		return ErrInvalidTransition
	}
	return s.orders.UpdateStatus(ctx, tx, orderID, models.OrderCompleted)
}
