package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/govalues/decimal"
)

// MaxOrderUnits caps the number of units across all lines of one order.
const MaxOrderUnits = 50

type OrderLine struct {
	Item     CatalogItem
	Quantity int
	// Free marks a unit granted by a free-item redemption.
	Free     bool
	Subtotal decimal.Decimal
}

func newOrderLine(item CatalogItem, quantity int, free bool) (OrderLine, error) {
	line := OrderLine{Item: item, Quantity: quantity, Free: free}
	err := line.recalc()
	return line, err
}

func (l *OrderLine) recalc() error {
	if l.Free {
		l.Subtotal = decimal.Zero
		return nil
	}
	sub, err := l.listAmount()
	if err != nil {
		return err
	}
	l.Subtotal = sub
	return nil
}

// listAmount is the price the line would cost without any redemption.
func (l *OrderLine) listAmount() (decimal.Decimal, error) {
	qty, err := decimal.New(int64(l.Quantity), 0)
	if err != nil {
		return decimal.Zero, fmt.Errorf("math error:%w", err)
	}
	sub, err := l.Item.Price.Mul(qty)
	if err != nil {
		return decimal.Zero, fmt.Errorf("math error:%w", err)
	}
	return sub, nil
}

type Order struct {
	ID                    string
	StudentID             string
	Status                OrderStatus
	Lines                 []OrderLine
	TotalAmount           decimal.Decimal
	DiscountAmount        decimal.Decimal
	LoyaltyPointsEarned   int
	LoyaltyPointsRedeemed int
	// RedemptionSettled is true while the redeemed points are deducted
	// from the account.
	RedemptionSettled bool
	OrderTime         time.Time
	StatusUpdatedTime time.Time
	Notes             string
	Version           int
}

func NewOrder(id, studentID string, now time.Time) (*Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty order id", ErrValidation)
	}
	if studentID == "" {
		return nil, fmt.Errorf("%w: empty student id", ErrValidation)
	}
	return &Order{
		ID:                id,
		StudentID:         studentID,
		Status:            OrderStatusPending,
		Lines:             make([]OrderLine, 0),
		TotalAmount:       decimal.Zero,
		DiscountAmount:    decimal.Zero,
		OrderTime:         now,
		StatusUpdatedTime: now,
	}, nil
}

// Clone returns a deep copy so that a failed mutation never leaks into the source.
func (o *Order) Clone() *Order {
	c := *o
	c.Lines = slices.Clone(o.Lines)
	return &c
}

// CheckModifiable is the single guard consulted by every mutator.
func (o *Order) CheckModifiable() error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: order %s is %s", ErrOrderNotModifiable, o.ID, o.Status)
	}
	return nil
}

func (o *Order) IsEmpty() bool {
	return len(o.Lines) == 0
}

func (o *Order) UnitCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// ItemsSubtotal sums the line subtotals, free lines contributing zero.
func (o *Order) ItemsSubtotal() (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range o.Lines {
		next, err := sum.Add(l.Subtotal)
		if err != nil {
			return decimal.Zero, fmt.Errorf("math error:%w", err)
		}
		sum = next
	}
	return sum, nil
}

// GrossAmount is what the student would have paid before any redemption,
// free lines included at list price.
func (o *Order) GrossAmount() (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range o.Lines {
		amount, err := l.listAmount()
		if err != nil {
			return decimal.Zero, err
		}
		sum, err = sum.Add(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("math error:%w", err)
		}
	}
	return sum, nil
}

func (o *Order) recalcTotal() error {
	sub, err := o.ItemsSubtotal()
	if err != nil {
		return err
	}
	total, err := sub.Sub(o.DiscountAmount)
	if err != nil {
		return fmt.Errorf("math error:%w", err)
	}
	if total.IsNeg() {
		total = decimal.Zero
	}
	o.TotalAmount = total
	return nil
}

func (o *Order) paidLineIndex(itemID string) int {
	return slices.IndexFunc(o.Lines, func(l OrderLine) bool {
		return l.Item.ID == itemID && !l.Free
	})
}

func (o *Order) checkCapacity(extra int) error {
	if units := o.UnitCount(); units+extra > MaxOrderUnits {
		return fmt.Errorf("%w: %d units requested, %d already in order, limit %d",
			ErrCapacityExceeded, extra, units, MaxOrderUnits)
	}
	return nil
}

// AddLine merges quantity into the paid line for the item or appends a new one.
func (o *Order) AddLine(item CatalogItem, quantity int) error {
	if err := o.CheckModifiable(); err != nil {
		return err
	}
	if item.ID == "" {
		return fmt.Errorf("%w: empty item id", ErrValidation)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrValidation, quantity)
	}
	if !item.Available {
		return fmt.Errorf("%w: %s", ErrItemUnavailable, item.ID)
	}
	if err := o.checkCapacity(quantity); err != nil {
		return err
	}

	lines := slices.Clone(o.Lines)
	if i := o.paidLineIndex(item.ID); i >= 0 {
		lines[i].Quantity += quantity
		if err := lines[i].recalc(); err != nil {
			return err
		}
	} else {
		line, err := newOrderLine(item, quantity, false)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	return o.replaceLines(lines)
}

// RemoveLine drops the paid line for the item. A free-item grant stays.
func (o *Order) RemoveLine(itemID string) error {
	if err := o.CheckModifiable(); err != nil {
		return err
	}
	i := o.paidLineIndex(itemID)
	if i < 0 {
		return fmt.Errorf("%w: item %s is not in order %s", ErrDataNotFound, itemID, o.ID)
	}
	return o.replaceLines(slices.Delete(slices.Clone(o.Lines), i, i+1))
}

// SetLineQuantity sets the paid quantity of an item already in the order;
// zero removes the line.
func (o *Order) SetLineQuantity(itemID string, quantity int) error {
	if err := o.CheckModifiable(); err != nil {
		return err
	}
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative, got %d", ErrValidation, quantity)
	}
	i := o.paidLineIndex(itemID)
	if i < 0 {
		return fmt.Errorf("%w: item %s is not in order %s", ErrDataNotFound, itemID, o.ID)
	}
	if quantity == 0 {
		return o.RemoveLine(itemID)
	}
	if delta := quantity - o.Lines[i].Quantity; delta > 0 {
		if err := o.checkCapacity(delta); err != nil {
			return err
		}
	}

	lines := slices.Clone(o.Lines)
	lines[i].Quantity = quantity
	if err := lines[i].recalc(); err != nil {
		return err
	}
	return o.replaceLines(lines)
}

func (o *Order) replaceLines(lines []OrderLine) error {
	prev := o.Lines
	o.Lines = lines
	if err := o.recalcTotal(); err != nil {
		o.Lines = prev
		return err
	}
	return nil
}

func (o *Order) checkRedeemable(points int) error {
	if err := o.CheckModifiable(); err != nil {
		return err
	}
	if o.IsEmpty() {
		return fmt.Errorf("%w: order %s is empty", ErrRedemptionNotApplicable, o.ID)
	}
	if o.LoyaltyPointsRedeemed != 0 {
		return fmt.Errorf("%w: order %s already redeemed %d points",
			ErrRedemptionNotApplicable, o.ID, o.LoyaltyPointsRedeemed)
	}
	if points <= 0 {
		return fmt.Errorf("%w: points must be positive, got %d", ErrValidation, points)
	}
	return nil
}

// ApplyLoyaltyDiscount records an order-level discount bought with points.
func (o *Order) ApplyLoyaltyDiscount(points int, discount decimal.Decimal) error {
	if err := o.checkRedeemable(points); err != nil {
		return err
	}
	if discount.IsNeg() {
		return fmt.Errorf("%w: negative discount %s", ErrValidation, discount)
	}

	prev := o.DiscountAmount
	o.DiscountAmount = discount
	if err := o.recalcTotal(); err != nil {
		o.DiscountAmount = prev
		return err
	}
	o.LoyaltyPointsRedeemed = points
	return nil
}

// GrantFreeItem moves one unit of the most expensive paid line into a
// zero-priced free line. Ties resolve to the earliest line.
func (o *Order) GrantFreeItem(points int) (CatalogItem, error) {
	if err := o.checkRedeemable(points); err != nil {
		return CatalogItem{}, err
	}

	pick := -1
	for i, l := range o.Lines {
		if l.Free {
			continue
		}
		if pick < 0 || l.Item.Price.Cmp(o.Lines[pick].Item.Price) > 0 {
			pick = i
		}
	}
	if pick < 0 {
		return CatalogItem{}, fmt.Errorf("%w: order %s has no paid item to grant",
			ErrRedemptionNotApplicable, o.ID)
	}

	lines := slices.Clone(o.Lines)
	item := lines[pick].Item
	free, err := newOrderLine(item, 1, true)
	if err != nil {
		return CatalogItem{}, err
	}
	if lines[pick].Quantity == 1 {
		lines[pick] = free
	} else {
		lines[pick].Quantity--
		if err := lines[pick].recalc(); err != nil {
			return CatalogItem{}, err
		}
		lines = slices.Insert(lines, pick+1, free)
	}
	if err := o.replaceLines(lines); err != nil {
		return CatalogItem{}, err
	}
	o.LoyaltyPointsRedeemed = points
	return item, nil
}

// MaxNotesLength bounds the free-text notes of an order.
const MaxNotesLength = 500

func (o *Order) SetNotes(notes string) error {
	if err := o.CheckModifiable(); err != nil {
		return err
	}
	if len(notes) > MaxNotesLength {
		return fmt.Errorf("%w: notes longer than %d bytes", ErrValidation, MaxNotesLength)
	}
	o.Notes = notes
	return nil
}

// TransitionTo moves the order along the transition table.
func (o *Order) TransitionTo(status OrderStatus, now time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}
	if !CanTransition(o.Status, status) {
		return &TransitionError{From: o.Status, To: status}
	}
	o.Status = status
	o.StatusUpdatedTime = now
	return nil
}

// PreparationTime is an informational estimate, not persisted.
func (o *Order) PreparationTime() time.Duration {
	return time.Duration(15+2*o.UnitCount()) * time.Minute
}
