package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pos/backoffice/internal/interfaces/http/router"
)

// TransactionRoutes creates the route group for sale transaction endpoints
func TransactionRoutes(handler *TransactionHandler, middleware ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("transactions", "/transactions")
	group.Use(middleware...)

	group.POST("", handler.Create)
	group.GET("", handler.List)
	group.GET("/:id", handler.GetByID)
	group.POST("/:id/approve", handler.Approve)

	return group
}

// RefundRoutes creates the route group for refund endpoints
func RefundRoutes(handler *RefundHandler, middleware ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("refunds", "/refunds")
	group.Use(middleware...)

	group.POST("", handler.Create)
	group.GET("", handler.List)
	group.GET("/:id", handler.GetByID)

	return group
}

// SystemRoutes creates the route group for system endpoints.
// These stay outside authentication so probes can reach them.
func SystemRoutes(handler *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/system")

	group.GET("/info", handler.GetSystemInfo)
	group.GET("/ping", handler.Ping)

	return group
}
