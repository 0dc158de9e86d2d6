package domain

import (
	"fmt"
	"slices"
	"time"
)

type TransactionType string

const (
	TransactionEarned   TransactionType = "EARNED"
	TransactionRedeemed TransactionType = "REDEEMED"
)

type LoyaltyTransaction struct {
	// ID is zero until the transaction is persisted.
	ID          int64
	Type        TransactionType
	Points      int
	Description string
	Timestamp   time.Time
}

// LoyaltyAccount holds a student's points. Transactions is append-only and
// may hold only the entries appended since the account was loaded.
type LoyaltyAccount struct {
	StudentID     string
	PointsBalance int
	Transactions  []LoyaltyTransaction
}

func NewLoyaltyAccount(studentID string) (*LoyaltyAccount, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: empty student id", ErrValidation)
	}
	return &LoyaltyAccount{
		StudentID:    studentID,
		Transactions: make([]LoyaltyTransaction, 0),
	}, nil
}

func (a *LoyaltyAccount) Clone() *LoyaltyAccount {
	c := *a
	c.Transactions = slices.Clone(a.Transactions)
	return &c
}

func (a *LoyaltyAccount) Balance() int {
	return a.PointsBalance
}

func (a *LoyaltyAccount) Credit(points int, description string, now time.Time) error {
	if points <= 0 {
		return fmt.Errorf("%w: credit must be positive, got %d", ErrValidation, points)
	}
	a.PointsBalance += points
	a.Transactions = append(a.Transactions, LoyaltyTransaction{
		Type:        TransactionEarned,
		Points:      points,
		Description: description,
		Timestamp:   now,
	})
	return nil
}

// Debit checks sufficiency against the balance it holds at the moment of the
// call. Callers get a fresh account from the repository under lock.
func (a *LoyaltyAccount) Debit(points int, description string, now time.Time) error {
	if points <= 0 {
		return fmt.Errorf("%w: debit must be positive, got %d", ErrValidation, points)
	}
	if points > a.PointsBalance {
		return fmt.Errorf("%w: %d points requested, %d available",
			ErrInsufficientBalance, points, a.PointsBalance)
	}
	a.PointsBalance -= points
	a.Transactions = append(a.Transactions, LoyaltyTransaction{
		Type:        TransactionRedeemed,
		Points:      points,
		Description: description,
		Timestamp:   now,
	})
	return nil
}

// History returns transactions most recent first. limit <= 0 means all.
func (a *LoyaltyAccount) History(limit int) []LoyaltyTransaction {
	out := slices.Clone(a.Transactions)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NewTransactions returns the entries not yet persisted.
func (a *LoyaltyAccount) NewTransactions() []LoyaltyTransaction {
	out := make([]LoyaltyTransaction, 0)
	for _, t := range a.Transactions {
		if t.ID == 0 {
			out = append(out, t)
		}
	}
	return out
}

// Reconcile checks that the balance equals the ledger sum. Only meaningful
// when Transactions holds the full ledger.
func (a *LoyaltyAccount) Reconcile() error {
	sum := 0
	for _, t := range a.Transactions {
		switch t.Type {
		case TransactionEarned:
			sum += t.Points
		case TransactionRedeemed:
			sum -= t.Points
		}
		if sum < 0 {
			return fmt.Errorf("ledger of %s goes negative", a.StudentID)
		}
	}
	if sum != a.PointsBalance {
		return fmt.Errorf("balance %d of %s does not match ledger sum %d",
			a.PointsBalance, a.StudentID, sum)
	}
	return nil
}
