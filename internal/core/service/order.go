package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/loyalty"
	"go.uber.org/zap"
)

func (s *Service) CreateOrder(ctx context.Context, studentID string) (*domain.Order, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: empty student id", domain.ErrValidation)
	}
	if _, err := s.repo.ReadStudent(ctx, studentID); err != nil {
		return nil, err
	}

	order, err := domain.NewOrder(s.newID(), studentID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	newOrder, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		s.logger.Error("Create order", zap.Error(err))
		return nil, err
	}
	return newOrder, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.ReadOrder(ctx, orderID)
}

func (s *Service) ListOrdersByStudent(ctx context.Context, studentID string) ([]*domain.Order, error) {
	list, err := s.repo.ListOrdersByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("Get orders for student", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, status)
	}
	list, err := s.repo.ListOrdersByStatus(ctx, status)
	if err != nil {
		s.logger.Error("Get orders by status", zap.Error(err))
		return nil, err
	}
	return list, nil
}

// mutateOrder applies fn to a copy of the stored order and persists the copy
// only when fn succeeds.
func (s *Service) mutateOrder(ctx context.Context, orderID string, op string,
	fn func(*domain.Order) error) (*domain.Order, error) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next := order.Clone()
	if err := fn(next); err != nil {
		s.logger.Debug(op+" rejected", zap.String("order", orderID), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.UpdateOrder(ctx, next)
	if err != nil {
		s.logger.Error(op, zap.String("order", orderID), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

func (s *Service) AddItem(ctx context.Context, orderID string, itemID string, quantity int) (*domain.Order, error) {
	return s.mutateOrder(ctx, orderID, "Add item", func(o *domain.Order) error {
		if err := o.CheckModifiable(); err != nil {
			return err
		}
		if itemID == "" {
			return fmt.Errorf("%w: empty item id", domain.ErrValidation)
		}
		if quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrValidation, quantity)
		}
		item, err := s.catalog.FindAvailable(ctx, itemID)
		if err != nil {
			return err
		}
		return o.AddLine(*item, quantity)
	})
}

func (s *Service) RemoveItem(ctx context.Context, orderID string, itemID string) (*domain.Order, error) {
	return s.mutateOrder(ctx, orderID, "Remove item", func(o *domain.Order) error {
		return o.RemoveLine(itemID)
	})
}

func (s *Service) SetItemQuantity(ctx context.Context, orderID string, itemID string, quantity int) (*domain.Order, error) {
	return s.mutateOrder(ctx, orderID, "Set item quantity", func(o *domain.Order) error {
		return o.SetLineQuantity(itemID, quantity)
	})
}

func (s *Service) SetNotes(ctx context.Context, orderID string, notes string) (*domain.Order, error) {
	return s.mutateOrder(ctx, orderID, "Set notes", func(o *domain.Order) error {
		return o.SetNotes(notes)
	})
}

// ApplyLoyaltyDiscount attaches a redemption to a pending order. The points
// stay in the account until confirmation unless free items are configured
// for immediate debit.
func (s *Service) ApplyLoyaltyDiscount(ctx context.Context, orderID string, points int) (*domain.Order, error) {
	if loyalty.IsFreeItem(points) && s.freeItemImmediate {
		return s.grantFreeItemNow(ctx, orderID, points)
	}

	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next := order.Clone()
	err = checkRedeemable(next, points)
	if err == nil {
		if loyalty.IsFreeItem(points) {
			_, err = next.GrantFreeItem(points)
		} else {
			err = applyDiscount(next, points)
		}
	}
	if err != nil {
		s.logger.Debug("Apply loyalty discount rejected", zap.String("order", orderID), zap.Error(err))
		return nil, err
	}

	account, err := s.repo.ReadAccount(ctx, order.StudentID)
	if err != nil {
		return nil, err
	}
	if account.Balance() < points {
		return nil, fmt.Errorf("%w: %d points requested, %d available",
			domain.ErrInsufficientBalance, points, account.Balance())
	}

	updated, err := s.repo.UpdateOrder(ctx, next)
	if err != nil {
		s.logger.Error("Apply loyalty discount", zap.String("order", orderID), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

// checkRedeemable runs the pending-order guard ahead of the points policy.
func checkRedeemable(o *domain.Order, points int) error {
	if err := o.CheckModifiable(); err != nil {
		return err
	}
	return loyalty.CheckRedeemable(points)
}

func applyDiscount(o *domain.Order, points int) error {
	discount, err := loyalty.DiscountForPoints(points)
	if err != nil {
		return err
	}
	return o.ApplyLoyaltyDiscount(points, discount)
}

func (s *Service) grantFreeItemNow(ctx context.Context, orderID string, points int) (*domain.Order, error) {
	now := s.clock.Now()
	updated, err := s.repo.UpdateOrderWithAccount(ctx, orderID,
		func(o *domain.Order, a *domain.LoyaltyAccount) error {
			if err := checkRedeemable(o, points); err != nil {
				return err
			}
			item, err := o.GrantFreeItem(points)
			if err != nil {
				return err
			}
			err = a.Debit(points, fmt.Sprintf("Free %s on order %s", item.Name, o.ID), now)
			if err != nil {
				return err
			}
			o.RedemptionSettled = true
			return nil
		})
	if err != nil {
		s.logger.Debug("Grant free item rejected", zap.String("order", orderID), zap.Error(err))
		return nil, err
	}

	s.notify(ctx, domain.Event{
		Type:       domain.EventPointsRedeemed,
		StudentID:  updated.StudentID,
		OrderID:    updated.ID,
		Points:     points,
		OccurredAt: now,
	})
	return updated, nil
}

// ConfirmOrder settles a pending redemption and credits points earned on the
// pre-discount amount, atomically with the status change.
func (s *Service) ConfirmOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	now := s.clock.Now()
	var events []domain.Event

	updated, err := s.repo.UpdateOrderWithAccount(ctx, orderID,
		func(o *domain.Order, a *domain.LoyaltyAccount) error {
			events = events[:0]
			if o.Status == domain.OrderStatusPending && o.IsEmpty() {
				return fmt.Errorf("%w: order %s is empty", domain.ErrValidation, o.ID)
			}
			if err := o.TransitionTo(domain.OrderStatusConfirmed, now); err != nil {
				return err
			}

			if o.LoyaltyPointsRedeemed > 0 && !o.RedemptionSettled {
				err := a.Debit(o.LoyaltyPointsRedeemed, fmt.Sprintf("Redeemed on order %s", o.ID), now)
				if err != nil {
					return err
				}
				o.RedemptionSettled = true
				events = append(events, s.pointsEvent(domain.EventPointsRedeemed, o, o.LoyaltyPointsRedeemed, now))
			}

			gross, err := o.GrossAmount()
			if err != nil {
				return err
			}
			earned, err := loyalty.PointsEarned(gross)
			if err != nil {
				return err
			}
			if earned > 0 {
				err := a.Credit(earned, fmt.Sprintf("Earned on order %s", o.ID), now)
				if err != nil {
					return err
				}
				events = append(events, s.pointsEvent(domain.EventPointsEarned, o, earned, now))
			}
			o.LoyaltyPointsEarned = earned

			events = append(events, domain.Event{
				Type:       domain.EventOrderConfirmed,
				StudentID:  o.StudentID,
				OrderID:    o.ID,
				Status:     o.Status,
				OccurredAt: now,
			})
			return nil
		})
	if err != nil {
		s.logger.Debug("Confirm order rejected", zap.String("order", orderID), zap.Error(err))
		return nil, err
	}

	s.notify(ctx, events...)
	return updated, nil
}

// CancelOrder refunds deducted redemption points and, for a confirmed order,
// revokes the points it earned as far as the balance still holds them.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	now := s.clock.Now()
	var events []domain.Event

	updated, err := s.repo.UpdateOrderWithAccount(ctx, orderID,
		func(o *domain.Order, a *domain.LoyaltyAccount) error {
			events = events[:0]
			wasConfirmed := o.Status == domain.OrderStatusConfirmed
			if err := o.TransitionTo(domain.OrderStatusCancelled, now); err != nil {
				return err
			}

			if o.RedemptionSettled {
				err := a.Credit(o.LoyaltyPointsRedeemed, fmt.Sprintf("Refund for cancelled order %s", o.ID), now)
				if err != nil {
					return err
				}
				o.RedemptionSettled = false
				events = append(events, s.pointsEvent(domain.EventPointsRefunded, o, o.LoyaltyPointsRedeemed, now))
			}

			if wasConfirmed && o.LoyaltyPointsEarned > 0 {
				revoke := min(o.LoyaltyPointsEarned, a.Balance())
				if revoke > 0 {
					err := a.Debit(revoke, fmt.Sprintf("Revoked for cancelled order %s", o.ID), now)
					if err != nil {
						return err
					}
				}
			}

			events = append(events, domain.Event{
				Type:       domain.EventOrderCancelled,
				StudentID:  o.StudentID,
				OrderID:    o.ID,
				Status:     o.Status,
				OccurredAt: now,
			})
			return nil
		})
	if err != nil {
		s.logger.Debug("Cancel order rejected", zap.String("order", orderID), zap.Error(err))
		return nil, err
	}

	s.notify(ctx, events...)
	return updated, nil
}

// UpdateStatus is the staff-facing transition. Confirmation and cancellation
// go through their own flows so the loyalty side effects always apply.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, status)
	}
	switch status {
	case domain.OrderStatusConfirmed:
		return s.ConfirmOrder(ctx, orderID)
	case domain.OrderStatusCancelled:
		return s.CancelOrder(ctx, orderID)
	}

	now := s.clock.Now()
	updated, err := s.mutateOrder(ctx, orderID, "Update status", func(o *domain.Order) error {
		return o.TransitionTo(status, now)
	})
	if err != nil {
		return nil, err
	}

	events := []domain.Event{{
		Type:       domain.EventOrderStatusChanged,
		StudentID:  updated.StudentID,
		OrderID:    updated.ID,
		Status:     updated.Status,
		OccurredAt: now,
	}}
	if updated.Status == domain.OrderStatusReady {
		events = append(events, domain.Event{
			Type:       domain.EventOrderReady,
			StudentID:  updated.StudentID,
			OrderID:    updated.ID,
			Status:     updated.Status,
			OccurredAt: now,
		})
	}
	s.notify(ctx, events...)
	return updated, nil
}

// DiscardOrder deletes a pending order that holds no deducted points.
func (s *Service) DiscardOrder(ctx context.Context, orderID string) error {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := order.CheckModifiable(); err != nil {
		return err
	}
	if order.RedemptionSettled {
		return fmt.Errorf("%w: order %s holds redeemed points, cancel it instead",
			domain.ErrOrderNotModifiable, orderID)
	}

	deleted, err := s.repo.DeleteOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("Delete order", zap.String("order", orderID), zap.Error(err))
		return err
	}
	if !deleted {
		return domain.ErrDataNotFound
	}
	return nil
}

func (s *Service) EstimatedPreparationTime(ctx context.Context, orderID string) (time.Duration, error) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	return order.PreparationTime(), nil
}

func (s *Service) pointsEvent(t domain.EventType, o *domain.Order, points int, now time.Time) domain.Event {
	return domain.Event{
		Type:       t,
		StudentID:  o.StudentID,
		OrderID:    o.ID,
		Points:     points,
		OccurredAt: now,
	}
}
