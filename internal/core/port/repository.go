package port

import (
	"context"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
)

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type Repository interface {
	// Student
	CreateStudent(ctx context.Context, student *domain.Student, account *domain.LoyaltyAccount) (*domain.Student, error)
	ReadStudent(ctx context.Context, studentID string) (*domain.Student, error)

	// Order
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrdersByStudent(ctx context.Context, studentID string) ([]*domain.Order, error)
	ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)
	// UpdateOrder fails with ErrDataNotFound when absent and with
	// ErrConflictingData when order.Version is stale.
	UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string) (bool, error)

	// Loyalty account
	ReadAccount(ctx context.Context, studentID string) (*domain.LoyaltyAccount, error)
	ListTransactions(ctx context.Context, studentID string, limit int) ([]domain.LoyaltyTransaction, error)
	UpdateAccount(ctx context.Context, studentID string, updateFn UpdateAccountFn) (*domain.LoyaltyAccount, error)
	UpdateOrderWithAccount(ctx context.Context, orderID string, updateFn UpdateOrderAccountFn) (*domain.Order, error)
}

// UpdateAccountFn runs against a freshly locked account. Returning an error
// discards every change.
type UpdateAccountFn func(*domain.LoyaltyAccount) error

// UpdateOrderAccountFn runs against a freshly locked order and the account of
// its owner. Returning an error discards every change.
type UpdateOrderAccountFn func(*domain.Order, *domain.LoyaltyAccount) error
