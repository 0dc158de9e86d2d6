package http

import (
	"strconv"
	"time"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoyaltyHandler struct {
	Handler
	service port.Service
}

func NewLoyaltyHandler(service port.Service, logger *zap.Logger) (*LoyaltyHandler, error) {
	return &LoyaltyHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type balanceResp struct {
	StudentID string `json:"student_id"`
	Balance   int    `json:"balance"`
}

func (lh *LoyaltyHandler) Balance(ctx *gin.Context) {
	studentID := getAuthPayload(ctx).StudentID

	account, err := lh.service.GetAccount(ctx, studentID)
	if err != nil {
		lh.handleError(ctx, err)
		return
	}

	lh.handleSuccess(ctx, balanceResp{StudentID: account.StudentID, Balance: account.Balance()})
}

type transactionResp struct {
	Type        string    `json:"type"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

func (lh *LoyaltyHandler) History(ctx *gin.Context) {
	studentID := getAuthPayload(ctx).StudentID

	limit := 0
	if q := ctx.Query("limit"); q != "" {
		var err error
		limit, err = strconv.Atoi(q)
		if err != nil || limit < 0 {
			lh.handleValidationError(ctx, domain.ErrBadRequest)
			return
		}
	}

	list, err := lh.service.History(ctx, studentID, limit)
	if err != nil {
		lh.handleError(ctx, err)
		return
	}

	result := make([]transactionResp, 0, len(list))
	for _, t := range list {
		result = append(result, transactionResp{
			Type:        string(t.Type),
			Points:      t.Points,
			Description: t.Description,
			Timestamp:   t.Timestamp,
		})
	}
	lh.handleSuccess(ctx, result)
}

type redemptionResp struct {
	PointsRequired int         `json:"points_required"`
	DiscountAmount jsonDecimal `json:"discount_amount"`
	FreeItem       bool        `json:"free_item"`
	Description    string      `json:"description"`
}

func (lh *LoyaltyHandler) Redemptions(ctx *gin.Context) {
	studentID := getAuthPayload(ctx).StudentID

	options, err := lh.service.AvailableRedemptions(ctx, studentID)
	if err != nil {
		lh.handleError(ctx, err)
		return
	}

	result := make([]redemptionResp, 0, len(options))
	for _, o := range options {
		result = append(result, redemptionResp{
			PointsRequired: o.PointsRequired,
			DiscountAmount: jsonDecimal(o.DiscountAmount),
			FreeItem:       o.FreeItem,
			Description:    o.Description,
		})
	}
	lh.handleSuccess(ctx, result)
}

type adjustRequest struct {
	Points      int    `json:"points" binding:"required"`
	Description string `json:"description"`
}

func (lh *LoyaltyHandler) Adjust(ctx *gin.Context) {
	req := adjustRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		lh.handleValidationError(ctx, err)
		return
	}

	account, err := lh.service.AdjustPoints(ctx, ctx.Param("student"), req.Points, req.Description)
	if err != nil {
		lh.handleError(ctx, err)
		return
	}
	lh.handleSuccess(ctx, balanceResp{StudentID: account.StudentID, Balance: account.Balance()})
}
