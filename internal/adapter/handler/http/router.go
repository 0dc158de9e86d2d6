package http

import (
	"github.com/MikeRez0/campuscafe/internal/core/port"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	handler *Handler,
	tokenService port.TokenService,
	studentHandler *StudentHandler,
	orderHandler *OrderHandler,
	loyaltyHandler *LoyaltyHandler) (*Router, error) {

	router := gin.New()
	router.Use(gin.Recovery(), handler.requestLogger())

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	{
		students := api.Group("/students")
		{
			students.POST("/register", studentHandler.Register)
			students.POST("/login", studentHandler.Login)
		}

		orders := api.Group("/orders")
		{
			orders.Use(handler.authCheck(tokenService))
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrdersByStudent)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.DELETE("/:id", orderHandler.Discard)
			orders.POST("/:id/items", orderHandler.AddItem)
			orders.PUT("/:id/items/:item", orderHandler.SetItemQuantity)
			orders.DELETE("/:id/items/:item", orderHandler.RemoveItem)
			orders.PUT("/:id/notes", orderHandler.SetNotes)
			orders.POST("/:id/redeem", orderHandler.Redeem)
			orders.POST("/:id/confirm", orderHandler.Confirm)
			orders.POST("/:id/cancel", orderHandler.Cancel)
			orders.GET("/:id/eta", orderHandler.EstimatedPreparationTime)
		}

		loyalty := api.Group("/loyalty")
		{
			loyalty.Use(handler.authCheck(tokenService))
			loyalty.GET("", loyaltyHandler.Balance)
			loyalty.GET("/history", loyaltyHandler.History)
			loyalty.GET("/redemptions", loyaltyHandler.Redemptions)
		}

		staff := api.Group("/staff")
		{
			staff.Use(handler.authCheck(tokenService), handler.staffOnly())
			staff.GET("/orders", orderHandler.ListOrdersByStatus)
			staff.PUT("/orders/:id/status", orderHandler.UpdateStatus)
			staff.POST("/loyalty/:student/adjust", loyaltyHandler.Adjust)
		}
	}

	return &Router{router}, nil
}
