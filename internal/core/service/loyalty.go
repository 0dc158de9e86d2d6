package service

import (
	"context"
	"fmt"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/loyalty"
	"go.uber.org/zap"
)

func (s *Service) GetAccount(ctx context.Context, studentID string) (*domain.LoyaltyAccount, error) {
	account, err := s.repo.ReadAccount(ctx, studentID)
	if err != nil {
		s.logger.Debug("Get account", zap.String("student", studentID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

// History returns the ledger most recent first; limit <= 0 returns everything.
func (s *Service) History(ctx context.Context, studentID string, limit int) ([]domain.LoyaltyTransaction, error) {
	list, err := s.repo.ListTransactions(ctx, studentID, limit)
	if err != nil {
		s.logger.Error("Get loyalty history", zap.String("student", studentID), zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) AvailableRedemptions(ctx context.Context, studentID string) ([]loyalty.RedemptionOption, error) {
	account, err := s.repo.ReadAccount(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return loyalty.AvailableRedemptions(account.Balance())
}

// AdjustPoints is a staff correction. Positive points credit the account,
// negative points debit it against the locked balance.
func (s *Service) AdjustPoints(ctx context.Context, studentID string, points int,
	description string) (*domain.LoyaltyAccount, error) {
	if points == 0 {
		return nil, fmt.Errorf("%w: adjustment must not be zero", domain.ErrValidation)
	}
	if description == "" {
		description = "Staff adjustment"
	}

	now := s.clock.Now()
	account, err := s.repo.UpdateAccount(ctx, studentID, func(a *domain.LoyaltyAccount) error {
		if points > 0 {
			return a.Credit(points, description, now)
		}
		return a.Debit(-points, description, now)
	})
	if err != nil {
		s.logger.Debug("Adjust points rejected", zap.String("student", studentID), zap.Error(err))
		return nil, err
	}

	t := domain.EventPointsEarned
	if points < 0 {
		t = domain.EventPointsRedeemed
		points = -points
	}
	s.notify(ctx, domain.Event{Type: t, StudentID: studentID, Points: points, OccurredAt: now})
	return account, nil
}
