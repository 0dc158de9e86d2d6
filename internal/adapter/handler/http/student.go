package http

import (
	"net/http"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StudentHandler struct {
	Handler
	service   port.Service
	staffCode string
}

type registerRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Name      string `json:"name"`
	Password  string `json:"password" binding:"required"`
	StaffCode string `json:"staff_code"`
}

type loginRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

type tokenResp struct {
	Token string `json:"token"`
}

func NewStudentHandler(service port.Service, staffCode string, logger *zap.Logger) (*StudentHandler, error) {
	return &StudentHandler{
		Handler:   *NewHandler(logger),
		service:   service,
		staffCode: staffCode,
	}, nil
}

func (sh *StudentHandler) Register(ctx *gin.Context) {
	req := registerRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		sh.handleValidationError(ctx, err)
		return
	}

	role := domain.RoleStudent
	if req.StaffCode != "" {
		if sh.staffCode == "" || req.StaffCode != sh.staffCode {
			sh.handleError(ctx, domain.ErrForbidden)
			return
		}
		role = domain.RoleStaff
	}

	_, err := sh.service.RegisterStudent(ctx, &domain.Student{
		ID:       req.StudentID,
		Name:     req.Name,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		sh.handleError(ctx, err)
		return
	}

	token, err := sh.service.LoginStudent(ctx, req.StudentID, req.Password)
	if err != nil {
		sh.handleError(ctx, err)
		return
	}
	sh.handleSuccessWithStatus(ctx, tokenResp{Token: token}, http.StatusCreated)
}

func (sh *StudentHandler) Login(ctx *gin.Context) {
	req := loginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		sh.handleValidationError(ctx, err)
		return
	}

	token, err := sh.service.LoginStudent(ctx, req.StudentID, req.Password)
	if err != nil {
		sh.handleError(ctx, err)
		return
	}
	sh.handleSuccess(ctx, tokenResp{Token: token})
}
