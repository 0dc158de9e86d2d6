// Package loyalty holds the stateless point arithmetic: how many points a
// spend earns, what a number of points is worth, and which redemption tiers
// a balance affords.
package loyalty

import (
	"fmt"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/govalues/decimal"
)

const (
	// MinRedeemablePoints is the smallest redemption accepted.
	MinRedeemablePoints = 10

	FixedDiscountPoints = 50
	FreeItemPoints      = 100
)

var (
	spendPerPoint = decimal.Ten
	pointValue    = decimal.MustNew(20, 2)
	fixedDiscount = decimal.MustNew(1000, 2)
	halfCent      = decimal.MustNew(5, 3)
)

// RedemptionOption is advisory until applied to an order.
type RedemptionOption struct {
	PointsRequired int
	DiscountAmount decimal.Decimal
	FreeItem       bool
	Description    string
}

// PointsEarned is floor(spend / 10), zero for non-positive spend.
// Callers pass the pre-discount amount.
func PointsEarned(spend decimal.Decimal) (int, error) {
	if !spend.IsPos() {
		return 0, nil
	}
	q, err := spend.Quo(spendPerPoint)
	if err != nil {
		return 0, fmt.Errorf("math error:%w", err)
	}
	whole, _, ok := q.Floor(0).Int64(0)
	if !ok {
		return 0, fmt.Errorf("math error: %s points overflow", q)
	}
	return int(whole), nil
}

// IsFreeItem reports whether the points buy a free item instead of a discount.
func IsFreeItem(points int) bool {
	return points == FreeItemPoints
}

func DiscountForPoints(points int) (decimal.Decimal, error) {
	if points <= 0 {
		return decimal.Zero, fmt.Errorf("%w: points must be positive, got %d", domain.ErrValidation, points)
	}
	switch points {
	case FixedDiscountPoints:
		return fixedDiscount, nil
	case FreeItemPoints:
		return decimal.Zero, nil
	}

	p, err := decimal.New(int64(points), 0)
	if err != nil {
		return decimal.Zero, fmt.Errorf("math error:%w", err)
	}
	d, err := p.Mul(pointValue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("math error:%w", err)
	}
	return roundHalfUp(d)
}

// PointsForDiscount inverts the generic rate, rounding up.
func PointsForDiscount(amount decimal.Decimal) (int, error) {
	if !amount.IsPos() {
		return 0, nil
	}
	q, err := amount.Quo(pointValue)
	if err != nil {
		return 0, fmt.Errorf("math error:%w", err)
	}
	whole, _, ok := q.Ceil(0).Int64(0)
	if !ok {
		return 0, fmt.Errorf("math error: %s points overflow", q)
	}
	return int(whole), nil
}

var tiers = []int{FixedDiscountPoints, FreeItemPoints, 200, 500}

// AvailableRedemptions lists the tiers the balance affords, cheapest first.
func AvailableRedemptions(balance int) ([]RedemptionOption, error) {
	out := make([]RedemptionOption, 0, len(tiers))
	for _, points := range tiers {
		if points > balance {
			break
		}
		discount, err := DiscountForPoints(points)
		if err != nil {
			return nil, err
		}
		opt := RedemptionOption{PointsRequired: points, DiscountAmount: discount}
		if IsFreeItem(points) {
			opt.FreeItem = true
			opt.Description = "One free menu item"
		} else {
			opt.Description = fmt.Sprintf("%s off your order", discount)
		}
		out = append(out, opt)
	}
	return out, nil
}

// CheckRedeemable rejects amounts below the minimum regardless of balance.
func CheckRedeemable(points int) error {
	if points < MinRedeemablePoints {
		return fmt.Errorf("%w: at least %d points must be redeemed, got %d",
			domain.ErrRedemptionNotApplicable, MinRedeemablePoints, points)
	}
	return nil
}

func roundHalfUp(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNeg() {
		return decimal.Zero, fmt.Errorf("%w: negative amount %s", domain.ErrValidation, d)
	}
	up, err := d.Add(halfCent)
	if err != nil {
		return decimal.Zero, fmt.Errorf("math error:%w", err)
	}
	return up.Floor(2), nil
}
