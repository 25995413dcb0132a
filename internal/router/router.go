package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/edustack/authuser/api/handler"
)

type Handlers struct {
	User   *apiHandler.UserHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Registration is open; everything else requires a gateway token.
	r.POST("/users", handlers.User.Register)

	r.GET("/users", authMiddleware(handlers.User.List))
	r.GET("/users/{userId}", authMiddleware(handlers.User.Get))
	r.DELETE("/users/{userId}", authMiddleware(handlers.User.Delete))
	r.PUT("/users/{userId}", authMiddleware(handlers.User.UpdateProfile))
	r.PUT("/users/{userId}/password", authMiddleware(handlers.User.UpdatePassword))
	r.PUT("/users/{userId}/image", authMiddleware(handlers.User.UpdateImage))

	return r
}
