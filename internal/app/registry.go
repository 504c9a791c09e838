package app

import (
	"database/sql"

	"dayflow/internal/balance"
	"dayflow/internal/leaverequest"
	"dayflow/internal/leavetype"
	"dayflow/internal/messaging/kafka"
	"dayflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	balanceRepo := balance.NewRepository(gormDB)
	leaveTypeRepo := leavetype.NewRepository(gormDB)
	leaveRequestRepo := leaverequest.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	balanceService := balance.NewService(db, balanceRepo)
	leaveTypeService := leavetype.NewService(leaveTypeRepo, rdb)
	leaveRequestService := leaverequest.NewServiceWithOutbox(db, leaveRequestRepo, balanceRepo, outboxRepo)

	// --- Handlers ---
	balanceHandler := balance.NewHandler(balanceService)
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService)
	leaveRequestHandler := leaverequest.NewHandler(leaveRequestService, rdb)

	// --- Routes Registration ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByIP(50, 100))

	api := router.Group("/api/v1")
	{
		balance.RegisterRoutes(api, balanceHandler)
		leavetype.RegisterRoutes(api, leaveTypeHandler)
		leaverequest.RegisterRoutes(api, leaveRequestHandler, rdb)
	}

	return nil
}
