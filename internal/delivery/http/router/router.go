// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"locker/internal/delivery/http/middleware"
	"locker/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	TokenHandler   *handler.TokenHandler
	AccountHandler *handler.AccountHandler
	VaultHandler   *handler.VaultHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	tokenHandler   *handler.TokenHandler
	accountHandler *handler.AccountHandler
	vaultHandler   *handler.VaultHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		tokenHandler:   params.TokenHandler,
		accountHandler: params.AccountHandler,
		vaultHandler:   params.VaultHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/healthz", handler.HealthCheck)

	// Token endpoints speak the flat OAuth wire format
	oauthGroup := e.Group("/oauth")
	{
		oauthGroup.POST("/token", r.tokenHandler.Token)
		oauthGroup.POST("/revoke", r.tokenHandler.Revoke)
	}

	// Account registration is the only unauthenticated JSON endpoint
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.accountHandler.Register)
	}

	// Everything below requires a live access token
	accountGroup := e.Group("/account")
	accountGroup.Use(r.authMiddleware.Authenticate)
	{
		accountGroup.GET("/me", r.accountHandler.Me)
		accountGroup.POST("/logout-all", r.accountHandler.LogoutAll)
	}

	vaultGroup := e.Group("/vault")
	vaultGroup.Use(r.authMiddleware.Authenticate)
	{
		vaultGroup.PUT("/files/*", r.vaultHandler.Upload)
		vaultGroup.GET("/files/*", r.vaultHandler.Download)
		vaultGroup.DELETE("/files/*", r.vaultHandler.Delete)
		vaultGroup.GET("/list", r.vaultHandler.List)
	}
}
