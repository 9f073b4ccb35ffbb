package handlers

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"tailorshop/internal/auth"
	"tailorshop/internal/config"
	"tailorshop/internal/models"
	"tailorshop/internal/services"
	"tailorshop/internal/store"

	"github.com/jmoiron/sqlx"
)

const testSecret = "secret"

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	getByIDFn     func(ctx context.Context, userID string) (models.User, error)
	listByRolesFn func(ctx context.Context, roles []string) ([]models.User, error)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) ListByRoles(ctx context.Context, roles []string) ([]models.User, error) {
	return s.listByRolesFn(ctx, roles)
}

type stubOrderStore struct {
	getByIDFn func(ctx context.Context, orderID string) (models.Order, error)
	listFn    func(ctx context.Context, filter store.OrderFilter, limit, offset int) ([]models.Order, error)
}

func (s stubOrderStore) GetByID(ctx context.Context, orderID string) (models.Order, error) {
	return s.getByIDFn(ctx, orderID)
}

func (s stubOrderStore) List(ctx context.Context, filter store.OrderFilter, limit, offset int) ([]models.Order, error) {
	return s.listFn(ctx, filter, limit, offset)
}

type stubPaymentStore struct {
	listByOrderFn func(ctx context.Context, orderID string) ([]models.Payment, error)
}

func (s stubPaymentStore) ListByOrder(ctx context.Context, orderID string) ([]models.Payment, error) {
	return s.listByOrderFn(ctx, orderID)
}

// stubAuthService embeds the interface so tests only fill in what they call.
type stubAuthService struct {
	AuthService
	loginFn         func(ctx context.Context, email, password, ip string) (models.User, services.TokenPair, error)
	requestResetFn  func(ctx context.Context, email string) (string, error)
	createStaffFn   func(ctx context.Context, actorID string, input services.StaffInput) (models.User, error)
	setStaffActive  func(ctx context.Context, actorID, userID string, active bool) error
	changePasswordF func(ctx context.Context, userID, current, next string) error
}

func (s stubAuthService) Login(ctx context.Context, email, password, ip string) (models.User, services.TokenPair, error) {
	return s.loginFn(ctx, email, password, ip)
}

func (s stubAuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return s.requestResetFn(ctx, email)
}

func (s stubAuthService) CreateStaff(ctx context.Context, actorID string, input services.StaffInput) (models.User, error) {
	return s.createStaffFn(ctx, actorID, input)
}

func (s stubAuthService) SetStaffActive(ctx context.Context, actorID, userID string, active bool) error {
	return s.setStaffActive(ctx, actorID, userID, active)
}

func (s stubAuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	return s.changePasswordF(ctx, userID, current, next)
}

type stubLedgerService struct {
	LedgerService
	recordPaymentFn     func(ctx context.Context, req services.PaymentRequest) (services.PaymentResult, error)
	recordTransactionFn func(ctx context.Context, req services.TransactionRequest) (models.Transaction, error)
	computeBalancesFn   func(ctx context.Context) (map[string]services.CurrencyBalance, error)
}

func (s stubLedgerService) RecordPayment(ctx context.Context, req services.PaymentRequest) (services.PaymentResult, error) {
	return s.recordPaymentFn(ctx, req)
}

func (s stubLedgerService) RecordTransaction(ctx context.Context, req services.TransactionRequest) (models.Transaction, error) {
	return s.recordTransactionFn(ctx, req)
}

func (s stubLedgerService) ComputeBalances(ctx context.Context) (map[string]services.CurrencyBalance, error) {
	return s.computeBalancesFn(ctx)
}

type stubWorkflowService struct {
	WorkflowService
	createTaskFn       func(ctx context.Context, input services.TaskInput) (models.Task, error)
	listTasksFn        func(ctx context.Context, actor auth.Identity, status string) ([]models.Task, error)
	updateTaskStatusFn func(ctx context.Context, actor auth.Identity, taskID, status string, notes *string) (models.Task, error)
	updateOrderFn      func(ctx context.Context, actorID, orderID string, update services.OrderUpdate) (models.Order, error)
}

func (s stubWorkflowService) CreateTask(ctx context.Context, input services.TaskInput) (models.Task, error) {
	return s.createTaskFn(ctx, input)
}

func (s stubWorkflowService) ListTasks(ctx context.Context, actor auth.Identity, status string) ([]models.Task, error) {
	return s.listTasksFn(ctx, actor, status)
}

func (s stubWorkflowService) UpdateTaskStatus(ctx context.Context, actor auth.Identity, taskID, status string, notes *string) (models.Task, error) {
	return s.updateTaskStatusFn(ctx, actor, taskID, status, notes)
}

func (s stubWorkflowService) UpdateOrder(ctx context.Context, actorID, orderID string, update services.OrderUpdate) (models.Order, error) {
	return s.updateOrderFn(ctx, actorID, orderID, update)
}

func newTestHandler(deps Deps) *Handler {
	deps.Config = config.Config{
		AppEnv:         "production",
		JWTSecret:      testSecret,
		AllowedOrigins: "*",
		LoginRateLimit: 10,
	}
	if deps.TxRunner == nil {
		deps.TxRunner = fakeTxRunner{}
	}
	return New(deps)
}

func tokenFor(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := auth.GenerateAccessToken(testSecret, auth.Identity{UserID: userID, Role: role, Username: userID}, time.Minute, time.Now())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

// serve runs a request through the full router. An empty role sends no token.
func serve(t *testing.T, handler *Handler, method, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, role+"-1", role))
	}
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	return rr
}
