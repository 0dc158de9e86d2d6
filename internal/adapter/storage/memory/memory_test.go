package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MikeRez0/campuscafe/internal/adapter/storage/memory"
	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 9, 2, 12, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *memory.Storage {
	t.Helper()
	s := memory.New()
	for _, item := range memory.DefaultMenu() {
		s.PutMenuItem(item)
	}
	account, err := domain.NewLoyaltyAccount("2023001")
	require.NoError(t, err)
	_, err = s.CreateStudent(context.Background(), &domain.Student{ID: "2023001"}, account)
	require.NoError(t, err)
	return s
}

func TestStorage_Students(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	account, _ := domain.NewLoyaltyAccount("2023001")
	_, err := s.CreateStudent(ctx, &domain.Student{ID: "2023001"}, account)
	assert.ErrorIs(t, err, domain.ErrConflictingData)

	got, err := s.ReadStudent(ctx, "2023001")
	require.NoError(t, err)
	assert.Equal(t, "2023001", got.ID)

	_, err = s.ReadStudent(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrDataNotFound)
}

func TestStorage_FindAvailable(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	item, err := s.FindAvailable(ctx, "coffee")
	require.NoError(t, err)
	assert.Equal(t, "12.00", item.Price.String())

	_, err = s.FindAvailable(ctx, "salad")
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)
	_, err = s.FindAvailable(ctx, "lobster")
	assert.ErrorIs(t, err, domain.ErrDataNotFound)
}

func TestStorage_OrderVersioning(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	o, err := domain.NewOrder("o-1", "2023001", now)
	require.NoError(t, err)
	created, err := s.CreateOrder(ctx, o)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	_, err = s.CreateOrder(ctx, o)
	assert.ErrorIs(t, err, domain.ErrConflictingData)

	first, err := s.ReadOrder(ctx, "o-1")
	require.NoError(t, err)
	second, err := s.ReadOrder(ctx, "o-1")
	require.NoError(t, err)

	first.Notes = "first"
	updated, err := s.UpdateOrder(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	second.Notes = "second"
	_, err = s.UpdateOrder(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConflictingData)

	stored, err := s.ReadOrder(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Notes)

	missing, _ := domain.NewOrder("o-2", "2023001", now)
	_, err = s.UpdateOrder(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrDataNotFound)
}

func TestStorage_ReadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	o, _ := domain.NewOrder("o-1", "2023001", now)
	_, err := s.CreateOrder(ctx, o)
	require.NoError(t, err)

	got, err := s.ReadOrder(ctx, "o-1")
	require.NoError(t, err)
	got.Status = domain.OrderStatusCompleted

	again, err := s.ReadOrder(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, again.Status)
}

func TestStorage_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	for _, id := range []string{"o-1", "o-2", "o-3"} {
		o, _ := domain.NewOrder(id, "2023001", now)
		_, err := s.CreateOrder(ctx, o)
		require.NoError(t, err)
	}

	deleted, err := s.DeleteOrder(ctx, "o-2")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.DeleteOrder(ctx, "o-2")
	require.NoError(t, err)
	assert.False(t, deleted)

	list, err := s.ListOrdersByStudent(ctx, "2023001")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o-1", list[0].ID)
	assert.Equal(t, "o-3", list[1].ID)

	pending, err := s.ListOrdersByStatus(ctx, domain.OrderStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestStorage_UpdateAccountRollsBack(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	_, err := s.UpdateAccount(ctx, "2023001", func(a *domain.LoyaltyAccount) error {
		return a.Credit(40, "start", now)
	})
	require.NoError(t, err)

	errBoom := errors.New("boom")
	_, err = s.UpdateAccount(ctx, "2023001", func(a *domain.LoyaltyAccount) error {
		if err := a.Debit(10, "partial", now); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	a, err := s.ReadAccount(ctx, "2023001")
	require.NoError(t, err)
	assert.Equal(t, 40, a.Balance())
	require.Len(t, a.Transactions, 1)
	assert.NotZero(t, a.Transactions[0].ID)

	hist, err := s.ListTransactions(ctx, "2023001", 5)
	require.NoError(t, err)
	assert.Len(t, hist, 1)

	_, err = s.ListTransactions(ctx, "nobody", 5)
	assert.ErrorIs(t, err, domain.ErrDataNotFound)
}

func TestStorage_UpdateOrderWithAccount(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	o, _ := domain.NewOrder("o-1", "2023001", now)
	_, err := s.CreateOrder(ctx, o)
	require.NoError(t, err)

	updated, err := s.UpdateOrderWithAccount(ctx, "o-1", func(o *domain.Order, a *domain.LoyaltyAccount) error {
		o.Notes = "paid"
		return a.Credit(7, "earned", now)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "paid", updated.Notes)

	_, err = s.UpdateOrderWithAccount(ctx, "o-1", func(o *domain.Order, a *domain.LoyaltyAccount) error {
		o.Notes = "lost"
		return a.Debit(8, "too much", now)
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	stored, err := s.ReadOrder(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "paid", stored.Notes)
	a, err := s.ReadAccount(ctx, "2023001")
	require.NoError(t, err)
	assert.Equal(t, 7, a.Balance())

	_, err = s.UpdateOrderWithAccount(ctx, "o-9", func(*domain.Order, *domain.LoyaltyAccount) error { return nil })
	assert.ErrorIs(t, err, domain.ErrDataNotFound)
}

func TestStorage_UpdateAccountRejectsUnledgeredBalance(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	_, err := s.UpdateAccount(ctx, "2023001", func(a *domain.LoyaltyAccount) error {
		a.PointsBalance += 25
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrInternal)

	a, err := s.ReadAccount(ctx, "2023001")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Balance())
}
