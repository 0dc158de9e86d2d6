package e2etest

import (
	"context"
	"sync"
	"testing"

	"github.com/MikeRez0/campuscafe/internal/adapter/auth"
	"github.com/MikeRez0/campuscafe/internal/adapter/notify"
	"github.com/MikeRez0/campuscafe/internal/adapter/storage/repository"
	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/service"
	"github.com/MikeRez0/campuscafe/internal/e2etest/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	repo, err := repository.NewRepository(testdb.New(t))
	require.NoError(t, err)
	return newServiceOn(t, repo, opts...)
}

func newServiceOn(t *testing.T, repo *repository.Repository, opts ...service.Option) *service.Service {
	t.Helper()
	ts, err := auth.New()
	require.NoError(t, err)

	log := zap.NewNop()
	s, err := service.NewService(repo, repo, notify.NewLogNotifier(log), ts, log, opts...)
	require.NoError(t, err)
	return s
}

func register(t *testing.T, s *service.Service, id string, points int) {
	t.Helper()
	ctx := context.Background()
	_, err := s.RegisterStudent(ctx, &domain.Student{ID: id, Name: id, Password: "pw"})
	require.NoError(t, err)
	if points > 0 {
		_, err = s.AdjustPoints(ctx, id, points, "opening balance")
		require.NoError(t, err)
	}
}

func TestServiceDB_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	register(t, s, "2023001", 0)

	_, err := s.RegisterStudent(ctx, &domain.Student{ID: "2023001", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrConflictingData)

	token, err := s.LoginStudent(ctx, "2023001", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = s.LoginStudent(ctx, "2023001", "hacker")
	assert.Equal(t, domain.ErrInvalidCredentials, err)
}

func TestServiceDB_BasicOrder(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	register(t, s, "2023001", 0)

	o, err := s.CreateOrder(ctx, "2023001")
	require.NoError(t, err)
	o, err = s.AddItem(ctx, o.ID, "rice-bowl", 2)
	require.NoError(t, err)
	o, err = s.ConfirmOrder(ctx, o.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusConfirmed, o.Status)
	assert.Equal(t, "90.00", o.TotalAmount.String())
	assert.Equal(t, 9, o.LoyaltyPointsEarned)

	stored, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, 2, stored.Lines[0].Quantity)
	assert.Equal(t, "Beef rice bowl", stored.Lines[0].Item.Name)

	a, err := s.GetAccount(ctx, "2023001")
	require.NoError(t, err)
	assert.Equal(t, 9, a.Balance())
}

func TestServiceDB_RedemptionAndRefund(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	register(t, s, "2023001", 60)

	o, err := s.CreateOrder(ctx, "2023001")
	require.NoError(t, err)
	o, err = s.AddItem(ctx, o.ID, "sandwich", 4)
	require.NoError(t, err)
	o, err = s.ApplyLoyaltyDiscount(ctx, o.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, "90.00", o.TotalAmount.String())

	o, err = s.ConfirmOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, o.LoyaltyPointsEarned)

	a, err := s.GetAccount(ctx, "2023001")
	require.NoError(t, err)
	assert.Equal(t, 20, a.Balance())

	_, err = s.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	a, err = s.GetAccount(ctx, "2023001")
	require.NoError(t, err)
	assert.Equal(t, 60, a.Balance())

	hist, err := s.History(ctx, "2023001", 0)
	require.NoError(t, err)
	assert.Len(t, hist, 5)
}

func TestServiceDB_FreeItem(t *testing.T) {
	ctx := context.Background()
	s := newService(t, service.WithFreeItemImmediate(true))
	register(t, s, "2023001", 120)

	o, err := s.CreateOrder(ctx, "2023001")
	require.NoError(t, err)
	o, err = s.AddItem(ctx, o.ID, "noodles", 2)
	require.NoError(t, err)
	o, err = s.ApplyLoyaltyDiscount(ctx, o.ID, 100)
	require.NoError(t, err)

	require.Len(t, o.Lines, 2)
	assert.True(t, o.Lines[1].Free)
	assert.Equal(t, "38.00", o.TotalAmount.String())

	stored, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 2)
	assert.True(t, stored.Lines[1].Free)
	assert.True(t, stored.Lines[1].Subtotal.IsZero())
	assert.True(t, stored.RedemptionSettled)

	a, err := s.GetAccount(ctx, "2023001")
	require.NoError(t, err)
	assert.Equal(t, 20, a.Balance())
}

func TestServiceDB_ConcurrentConfirmations(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	register(t, s, "2023001", 60)

	ids := make([]string, 0, 3)
	for range 3 {
		o, err := s.CreateOrder(ctx, "2023001")
		require.NoError(t, err)
		_, err = s.AddItem(ctx, o.ID, "sandwich", 4)
		require.NoError(t, err)
		_, err = s.ApplyLoyaltyDiscount(ctx, o.ID, 50)
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}

	var mu sync.Mutex
	confirmed := 0
	wg := sync.WaitGroup{}
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ConfirmOrder(ctx, id)
			if err == nil {
				mu.Lock()
				confirmed++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, confirmed)
	a, err := s.GetAccount(ctx, "2023001")
	require.NoError(t, err)
	assert.Equal(t, 20, a.Balance())
}

func TestServiceDB_StaleVersion(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	repo, err := repository.NewRepository(db)
	require.NoError(t, err)

	s := newServiceOn(t, repo)
	register(t, s, "2023001", 0)
	o, err := s.CreateOrder(ctx, "2023001")
	require.NoError(t, err)

	first, err := repo.ReadOrder(ctx, o.ID)
	require.NoError(t, err)
	second, err := repo.ReadOrder(ctx, o.ID)
	require.NoError(t, err)

	require.NoError(t, first.SetNotes("first"))
	_, err = repo.UpdateOrder(ctx, first)
	require.NoError(t, err)

	require.NoError(t, second.SetNotes("second"))
	_, err = repo.UpdateOrder(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConflictingData)
}

