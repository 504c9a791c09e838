package balance

import (
	"dayflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.GET("", handler.GetBalances)
		balances.PUT("", middleware.RoleMiddleware("HR_ADMIN"), handler.Allocate)
	}
}
