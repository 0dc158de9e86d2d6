package http

import (
	"net/http"
	"time"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Handler
	service port.Service
}

func NewOrderHandler(service port.Service, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type orderLineResp struct {
	ItemID   string      `json:"item_id"`
	Name     string      `json:"name"`
	Price    jsonDecimal `json:"price"`
	Quantity int         `json:"quantity"`
	Free     bool        `json:"free,omitempty"`
	Subtotal jsonDecimal `json:"subtotal"`
}

type orderResp struct {
	ID                    string          `json:"id"`
	StudentID             string          `json:"student_id"`
	Status                string          `json:"status"`
	Lines                 []orderLineResp `json:"lines"`
	TotalAmount           jsonDecimal     `json:"total_amount"`
	DiscountAmount        jsonDecimal     `json:"discount_amount"`
	LoyaltyPointsEarned   int             `json:"loyalty_points_earned"`
	LoyaltyPointsRedeemed int             `json:"loyalty_points_redeemed"`
	Notes                 string          `json:"notes,omitempty"`
	OrderTime             time.Time       `json:"order_time"`
	StatusUpdatedTime     time.Time       `json:"status_updated_time"`
}

func newOrderResp(o *domain.Order) orderResp {
	r := orderResp{
		ID:                    o.ID,
		StudentID:             o.StudentID,
		Status:                string(o.Status),
		Lines:                 make([]orderLineResp, 0, len(o.Lines)),
		TotalAmount:           jsonDecimal(o.TotalAmount),
		DiscountAmount:        jsonDecimal(o.DiscountAmount),
		LoyaltyPointsEarned:   o.LoyaltyPointsEarned,
		LoyaltyPointsRedeemed: o.LoyaltyPointsRedeemed,
		Notes:                 o.Notes,
		OrderTime:             o.OrderTime,
		StatusUpdatedTime:     o.StatusUpdatedTime,
	}
	for _, l := range o.Lines {
		r.Lines = append(r.Lines, orderLineResp{
			ItemID:   l.Item.ID,
			Name:     l.Item.Name,
			Price:    jsonDecimal(l.Item.Price),
			Quantity: l.Quantity,
			Free:     l.Free,
			Subtotal: jsonDecimal(l.Subtotal),
		})
	}
	return r
}

func newOrderListResp(list []*domain.Order) []orderResp {
	result := make([]orderResp, 0, len(list))
	for _, o := range list {
		result = append(result, newOrderResp(o))
	}
	return result
}

// ownOrder loads the order from the path and hides it from everyone but its
// student. Mutations go through ownOrder.
func (oh *OrderHandler) ownOrder(ctx *gin.Context) (*domain.Order, bool) {
	return oh.loadOrder(ctx, false)
}

// visibleOrder is ownOrder with read access for staff.
func (oh *OrderHandler) visibleOrder(ctx *gin.Context) (*domain.Order, bool) {
	return oh.loadOrder(ctx, true)
}

func (oh *OrderHandler) loadOrder(ctx *gin.Context, staffRead bool) (*domain.Order, bool) {
	payload := getAuthPayload(ctx)
	order, err := oh.service.GetOrder(ctx, ctx.Param("id"))
	if err != nil {
		oh.handleError(ctx, err)
		return nil, false
	}
	if order.StudentID == payload.StudentID {
		return order, true
	}
	if staffRead && payload.Role == domain.RoleStaff {
		return order, true
	}
	oh.handleError(ctx, domain.ErrDataNotFound)
	return nil, false
}

func (oh *OrderHandler) respondOrder(ctx *gin.Context, order *domain.Order, err error) {
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, newOrderResp(order))
}

func (oh *OrderHandler) CreateOrder(ctx *gin.Context) {
	studentID := getAuthPayload(ctx).StudentID

	order, err := oh.service.CreateOrder(ctx, studentID)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccessWithStatus(ctx, newOrderResp(order), http.StatusCreated)
}

func (oh *OrderHandler) ListOrdersByStudent(ctx *gin.Context) {
	studentID := getAuthPayload(ctx).StudentID

	list, err := oh.service.ListOrdersByStudent(ctx, studentID)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, newOrderListResp(list))
}

func (oh *OrderHandler) GetOrder(ctx *gin.Context) {
	order, ok := oh.visibleOrder(ctx)
	if !ok {
		return
	}
	oh.handleSuccess(ctx, newOrderResp(order))
}

type addItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

func (oh *OrderHandler) AddItem(ctx *gin.Context) {
	req := addItemRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	order, err := oh.service.AddItem(ctx, order.ID, req.ItemID, req.Quantity)
	oh.respondOrder(ctx, order, err)
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (oh *OrderHandler) SetItemQuantity(ctx *gin.Context) {
	req := quantityRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	order, err := oh.service.SetItemQuantity(ctx, order.ID, ctx.Param("item"), *req.Quantity)
	oh.respondOrder(ctx, order, err)
}

func (oh *OrderHandler) RemoveItem(ctx *gin.Context) {
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	order, err := oh.service.RemoveItem(ctx, order.ID, ctx.Param("item"))
	oh.respondOrder(ctx, order, err)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (oh *OrderHandler) SetNotes(ctx *gin.Context) {
	req := notesRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	order, err := oh.service.SetNotes(ctx, order.ID, req.Notes)
	oh.respondOrder(ctx, order, err)
}

type redeemRequest struct {
	Points int `json:"points" binding:"required"`
}

func (oh *OrderHandler) Redeem(ctx *gin.Context) {
	req := redeemRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	order, err := oh.service.ApplyLoyaltyDiscount(ctx, order.ID, req.Points)
	oh.respondOrder(ctx, order, err)
}

func (oh *OrderHandler) Confirm(ctx *gin.Context) {
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	order, err := oh.service.ConfirmOrder(ctx, order.ID)
	oh.respondOrder(ctx, order, err)
}

func (oh *OrderHandler) Cancel(ctx *gin.Context) {
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	order, err := oh.service.CancelOrder(ctx, order.ID)
	oh.respondOrder(ctx, order, err)
}

func (oh *OrderHandler) Discard(ctx *gin.Context) {
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	if err := oh.service.DiscardOrder(ctx, order.ID); err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccessWithStatus(ctx, nil, http.StatusNoContent)
}

type etaResp struct {
	Minutes int `json:"minutes"`
}

func (oh *OrderHandler) EstimatedPreparationTime(ctx *gin.Context) {
	order, ok := oh.visibleOrder(ctx)
	if !ok {
		return
	}

	eta, err := oh.service.EstimatedPreparationTime(ctx, order.ID)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, etaResp{Minutes: int(eta / time.Minute)})
}

func (oh *OrderHandler) ListOrdersByStatus(ctx *gin.Context) {
	status, err := domain.ParseOrderStatus(ctx.Query("status"))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	list, err := oh.service.ListOrdersByStatus(ctx, status)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, newOrderListResp(list))
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (oh *OrderHandler) UpdateStatus(ctx *gin.Context) {
	req := statusRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	order, err := oh.service.UpdateStatus(ctx, ctx.Param("id"), status)
	oh.respondOrder(ctx, order, err)
}
