package leaverequest

import (
	"dayflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	requests := r.Group("/leave-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.POST("", middleware.Idempotency(rdb), handler.Submit)
		requests.GET("", middleware.RoleMiddleware("HR_ADMIN", "MANAGER"), handler.List)
		requests.GET("/mine", handler.ListMine)
		requests.GET("/:id", handler.GetByID)
		requests.POST("/:id/approve", middleware.RoleMiddleware("HR_ADMIN", "MANAGER"), handler.Approve)
		requests.POST("/:id/reject", middleware.RoleMiddleware("HR_ADMIN", "MANAGER"), handler.Reject)
		requests.POST("/:id/cancel", handler.Cancel)
	}
}
