package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docuvault/docuvault/internal/middleware"
)

type RouterDeps struct {
	Auth           *AuthHandler
	Users          *UserHandler
	Documents      *DocumentHandler
	Versions       *VersionHandler
	Checkouts      *CheckoutHandler
	Tags           *TagHandler
	JWTSecret      []byte
	LoginRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", middleware.RateLimit(deps.LoginRateLimit), deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.GET("/users/me", deps.Users.Me)
	authGroup.GET("/users", deps.Users.List)

	authGroup.POST("/documents", deps.Documents.Create)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)
	authGroup.PUT("/documents/:id", deps.Documents.Update)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)
	authGroup.GET("/documents/:id/download", deps.Documents.Download)

	authGroup.GET("/documents/:id/versions", deps.Versions.List)
	authGroup.GET("/documents/:id/versions/:version", deps.Versions.Get)

	authGroup.POST("/documents/:id/checkout", deps.Checkouts.Checkout)
	authGroup.POST("/documents/:id/checkin", deps.Checkouts.Checkin)
	authGroup.GET("/documents/:id/checkout", deps.Checkouts.Status)
	authGroup.GET("/documents/:id/activities", deps.Checkouts.Activities)

	authGroup.GET("/tags", deps.Tags.List)
}
