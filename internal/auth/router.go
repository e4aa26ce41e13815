package auth

import (
	"busline/internal/shared/config"
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

type Router struct {
	controller *Controller
	config     *config.Config
}

func NewRouter(controller *Controller, cfg *config.Config) *Router {
	return &Router{controller: controller, config: cfg}
}

func (r *Router) SetupRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/auth")
	group.POST("/login", r.controller.Login)
	group.POST("/refresh", r.controller.Refresh)
	group.POST("/logout", r.controller.Logout)

	signedIn := group.Group("", middleware.JWTAuthWithConfig(r.config))
	signedIn.GET("/me", r.controller.Me)
	signedIn.PUT("/change-password", r.controller.ChangePassword)

	// operator accounts are opened and managed by admins only
	admin := group.Group("", middleware.JWTAuthWithConfig(r.config), middleware.RequireAdmin())
	admin.POST("/register", r.controller.Register)
	admin.GET("/operators", r.controller.ListOperators)
	admin.POST("/operators/:id/activate", r.controller.Activate)
	admin.POST("/operators/:id/deactivate", r.controller.Deactivate)
}
