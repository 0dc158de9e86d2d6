package port

import (
	"context"
	"time"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/loyalty"
)

//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock
type Service interface {
	RegisterStudent(ctx context.Context, student *domain.Student) (*domain.Student, error)
	LoginStudent(ctx context.Context, studentID string, password string) (string, error)

	CreateOrder(ctx context.Context, studentID string) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrdersByStudent(ctx context.Context, studentID string) ([]*domain.Order, error)
	ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)
	AddItem(ctx context.Context, orderID string, itemID string, quantity int) (*domain.Order, error)
	RemoveItem(ctx context.Context, orderID string, itemID string) (*domain.Order, error)
	SetItemQuantity(ctx context.Context, orderID string, itemID string, quantity int) (*domain.Order, error)
	SetNotes(ctx context.Context, orderID string, notes string) (*domain.Order, error)
	ApplyLoyaltyDiscount(ctx context.Context, orderID string, points int) (*domain.Order, error)
	ConfirmOrder(ctx context.Context, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	DiscardOrder(ctx context.Context, orderID string) error
	EstimatedPreparationTime(ctx context.Context, orderID string) (time.Duration, error)

	GetAccount(ctx context.Context, studentID string) (*domain.LoyaltyAccount, error)
	History(ctx context.Context, studentID string, limit int) ([]domain.LoyaltyTransaction, error)
	AvailableRedemptions(ctx context.Context, studentID string) ([]loyalty.RedemptionOption, error)
	AdjustPoints(ctx context.Context, studentID string, points int, description string) (*domain.LoyaltyAccount, error)
}
