// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"staan/internal/delivery/http/middleware"
	"staan/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler     *handler.UserHandler
	ConnectHandler  *handler.ConnectHandler
	AuthMiddleware  *middleware.AuthMiddleware
	ErrorMiddleware *middleware.ErrorMiddleware
	RequestContext  *middleware.RequestContextMiddleware
	Logger          *middleware.LoggerMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler     *handler.UserHandler
	connectHandler  *handler.ConnectHandler
	authMiddleware  *middleware.AuthMiddleware
	errorMiddleware *middleware.ErrorMiddleware
	requestContext  *middleware.RequestContextMiddleware
	loggerMw        *middleware.LoggerMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:     params.UserHandler,
		connectHandler:  params.ConnectHandler,
		authMiddleware:  params.AuthMiddleware,
		errorMiddleware: params.ErrorMiddleware,
		requestContext:  params.RequestContext,
		loggerMw:        params.Logger,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.HTTPErrorHandler = r.errorMiddleware.HandleHTTPError
	e.Use(r.requestContext.Handle)
	e.Use(r.loggerMw.Handle)

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	api := e.Group("/api")

	// Account routes
	userGroup := api.Group("/users")
	{
		userGroup.POST("/register", r.userHandler.Register)
		userGroup.POST("/login", r.userHandler.Login)
		userGroup.GET("/profile", r.userHandler.GetProfile, r.authMiddleware.Authenticate)
		userGroup.PUT("/profile", r.userHandler.UpdateProfile, r.authMiddleware.Authenticate)
	}

	// Platform connect routes
	connectGroup := api.Group("/connect")
	{
		connectGroup.GET("/spotify", r.connectHandler.SpotifyConnect)
		connectGroup.GET("/spotify/qr", r.connectHandler.SpotifyConnectQR)
		connectGroup.GET("/spotify/callback", r.connectHandler.SpotifyCallback)
		connectGroup.GET("/spotify/profile", r.connectHandler.SpotifyProfile, r.authMiddleware.Authenticate)
		connectGroup.POST("/google", r.connectHandler.GoogleSignIn)
	}
}
