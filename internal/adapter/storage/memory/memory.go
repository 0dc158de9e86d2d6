// Package memory is a process-local storage adapter. A single mutex
// serializes every call, which makes the account closures atomic.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/port"
	"github.com/govalues/decimal"
)

type Storage struct {
	mu       sync.Mutex
	students map[string]domain.Student
	accounts map[string]*domain.LoyaltyAccount
	orders   map[string]*domain.Order
	// order ids in creation order
	orderIDs []string
	menu     map[string]domain.CatalogItem
	txSeq    int64
}

func New() *Storage {
	return &Storage{
		students: make(map[string]domain.Student),
		accounts: make(map[string]*domain.LoyaltyAccount),
		orders:   make(map[string]*domain.Order),
		orderIDs: make([]string, 0),
		menu:     make(map[string]domain.CatalogItem),
	}
}

// DefaultMenu mirrors the rows seeded by the Postgres migrations.
func DefaultMenu() []domain.CatalogItem {
	return []domain.CatalogItem{
		{ID: "coffee", Name: "Coffee", Price: decimal.MustParse("12.00"), Category: "drinks", Available: true},
		{ID: "tea", Name: "Green tea", Price: decimal.MustParse("8.50"), Category: "drinks", Available: true},
		{ID: "sandwich", Name: "Chicken sandwich", Price: decimal.MustParse("25.00"), Category: "meals", Available: true},
		{ID: "rice-bowl", Name: "Beef rice bowl", Price: decimal.MustParse("45.00"), Category: "meals", Available: true},
		{ID: "noodles", Name: "Noodle soup", Price: decimal.MustParse("38.00"), Category: "meals", Available: true},
		{ID: "muffin", Name: "Blueberry muffin", Price: decimal.MustParse("15.00"), Category: "snacks", Available: true},
		{ID: "salad", Name: "Garden salad", Price: decimal.MustParse("30.00"), Category: "meals", Available: false},
	}
}

// PutMenuItem adds or replaces a catalog entry.
func (s *Storage) PutMenuItem(item domain.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu[item.ID] = item
}

func (s *Storage) FindAvailable(_ context.Context, itemID string) (*domain.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.menu[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: menu item %s", domain.ErrDataNotFound, itemID)
	}
	if !item.Available {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemUnavailable, itemID)
	}
	return &item, nil
}

func (s *Storage) CreateStudent(_ context.Context, student *domain.Student,
	account *domain.LoyaltyAccount) (*domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[student.ID]; ok {
		return nil, domain.ErrConflictingData
	}
	s.students[student.ID] = *student
	s.accounts[student.ID] = account.Clone()
	s.assignTxIDs(s.accounts[student.ID])

	out := *student
	return &out, nil
}

func (s *Storage) ReadStudent(_ context.Context, studentID string) (*domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, ok := s.students[studentID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return &student, nil
}

func (s *Storage) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return nil, domain.ErrConflictingData
	}
	stored := order.Clone()
	stored.Version = 1
	s.orders[order.ID] = stored
	s.orderIDs = append(s.orderIDs, order.ID)
	return stored.Clone(), nil
}

func (s *Storage) ReadOrder(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return order.Clone(), nil
}

func (s *Storage) ListOrdersByStudent(_ context.Context, studentID string) ([]*domain.Order, error) {
	return s.listOrders(func(o *domain.Order) bool { return o.StudentID == studentID }), nil
}

func (s *Storage) ListOrdersByStatus(_ context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return s.listOrders(func(o *domain.Order) bool { return o.Status == status }), nil
}

func (s *Storage) listOrders(match func(*domain.Order) bool) []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]*domain.Order, 0)
	for _, id := range s.orderIDs {
		if o := s.orders[id]; match(o) {
			list = append(list, o.Clone())
		}
	}
	return list
}

func (s *Storage) UpdateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	if stored.Version != order.Version {
		return nil, fmt.Errorf("%w: order %s version %d, stored %d",
			domain.ErrConflictingData, order.ID, order.Version, stored.Version)
	}
	next := order.Clone()
	next.Version++
	s.orders[order.ID] = next
	return next.Clone(), nil
}

func (s *Storage) DeleteOrder(_ context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[orderID]; !ok {
		return false, nil
	}
	delete(s.orders, orderID)
	for i, id := range s.orderIDs {
		if id == orderID {
			s.orderIDs = append(s.orderIDs[:i], s.orderIDs[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *Storage) ReadAccount(_ context.Context, studentID string) (*domain.LoyaltyAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[studentID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return account.Clone(), nil
}

func (s *Storage) ListTransactions(_ context.Context, studentID string, limit int) ([]domain.LoyaltyTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[studentID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return account.History(limit), nil
}

func (s *Storage) UpdateAccount(_ context.Context, studentID string,
	updateFn port.UpdateAccountFn) (*domain.LoyaltyAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[studentID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	account := stored.Clone()
	if err := updateFn(account); err != nil {
		return nil, err
	}
	if err := account.Reconcile(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	s.assignTxIDs(account)
	s.accounts[studentID] = account
	return account.Clone(), nil
}

func (s *Storage) UpdateOrderWithAccount(_ context.Context, orderID string,
	updateFn port.UpdateOrderAccountFn) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	storedOrder, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	storedAccount, ok := s.accounts[storedOrder.StudentID]
	if !ok {
		return nil, fmt.Errorf("%w: account of %s", domain.ErrDataNotFound, storedOrder.StudentID)
	}

	order := storedOrder.Clone()
	account := storedAccount.Clone()
	if err := updateFn(order, account); err != nil {
		return nil, err
	}
	if err := account.Reconcile(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}

	order.Version++
	s.assignTxIDs(account)
	s.orders[orderID] = order
	s.accounts[order.StudentID] = account
	return order.Clone(), nil
}

func (s *Storage) assignTxIDs(account *domain.LoyaltyAccount) {
	for i := range account.Transactions {
		if account.Transactions[i].ID == 0 {
			s.txSeq++
			account.Transactions[i].ID = s.txSeq
		}
	}
}
