package routers

import (
	"github.com/gin-gonic/gin"

	"fulfilment/internal/app/pkg/logger"
	"fulfilment/internal/app/server/handlers/order"
	"fulfilment/internal/app/server/handlers/session"
	"fulfilment/internal/app/server/handlers/substitution"
	"fulfilment/internal/app/server/middlewares"
)

// SetupRoutes 配置所有路由，使用 Route Group 分类
// limiter 为 nil 时不限流
func SetupRoutes(
	orderHandler *order.OrderHandler,
	substitutionHandler *substitution.SubstitutionHandler,
	sessionHandler *session.SessionHandler,
	limiter *middlewares.RateLimiter,
	log logger.Logger,
) *gin.Engine {
	r := gin.New()

	r.Use(middlewares.RequestID())
	r.Use(middlewares.CORS())
	r.Use(middlewares.Logger(log))
	r.Use(middlewares.ErrorHandler(log))

	r.GET("/health", substitutionHandler.Health)

	api := r.Group("")
	if limiter != nil {
		api.Use(limiter.Middleware())
	}

	api.POST("/substitution/suggest", substitutionHandler.Suggest)

	orders := api.Group("/api/orders")
	{
		orders.POST("", orderHandler.Create)
		orders.POST("/events/pick-shortage", orderHandler.PickShortage)
		orders.POST("/shortage/proactive-call", orderHandler.ProactiveCall)
		orders.POST("/shortage/preflight", orderHandler.Preflight)
		orders.POST("/claims/create", orderHandler.CreateClaim)
		orders.GET("/:id", orderHandler.Get)
		orders.GET("/:id/events", orderHandler.Events)
		orders.POST("/:id/customer-response", orderHandler.CustomerResponse)
		orders.POST("/:id/fulfil", orderHandler.Fulfil)
		orders.POST("/:id/cancel", orderHandler.Cancel)
	}

	sessions := api.Group("/api/sessions")
	{
		sessions.GET("/:id", sessionHandler.Get)
		sessions.DELETE("/:id", sessionHandler.Delete)
	}

	return r
}
