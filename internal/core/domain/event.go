package domain

import "time"

type EventType string

const (
	EventOrderConfirmed     EventType = "OrderConfirmed"
	EventOrderReady         EventType = "OrderReady"
	EventOrderStatusChanged EventType = "OrderStatusChanged"
	EventOrderCancelled     EventType = "OrderCancelled"
	EventPointsEarned       EventType = "PointsEarned"
	EventPointsRedeemed     EventType = "PointsRedeemed"
	EventPointsRefunded     EventType = "PointsRefunded"
)

// Event is a fire-and-forget notification about a completed state change.
type Event struct {
	Type       EventType   `json:"type"`
	StudentID  string      `json:"student_id"`
	OrderID    string      `json:"order_id,omitempty"`
	Status     OrderStatus `json:"status,omitempty"`
	Points     int         `json:"points,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}
