// Package httpapi exposes the services over HTTP. Handlers stay thin:
// bind, call the service, map the error to a status.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Account  *AccountHandler
	Category *CategoryHandler
	Game     *GameHandler
	Mechanic *MechanicHandler
	Rule     *RuleHandler
	Video    *VideoHandler
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h Handlers, tokens *TokenIssuer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoadIdentity(tokens))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.Account.Signup)
			auth.POST("/login", h.Account.Login)
			auth.GET("/check-email", h.Account.CheckEmail)
			auth.GET("/check-username", h.Account.CheckUsername)
			auth.GET("/me", RequireAuth(), h.Account.Me)
			auth.GET("/me/liked-categories", RequireAuth(), h.Category.Liked)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", h.Category.List)
			categories.GET("/:id", h.Category.Get)
			categories.GET("/:id/history", h.Category.History)

			categories.POST("", RequireAuth(), h.Category.Create)
			categories.PATCH("/:id", RequireAuth(), h.Category.Update)
			categories.POST("/:id/toggle-status", RequireAuth(), h.Category.ToggleStatus)
			categories.DELETE("/:id", RequireAuth(), h.Category.Delete)

			categories.PUT("/:id/like", RequireAuth(), h.Category.Like)
			categories.DELETE("/:id/like", RequireAuth(), h.Category.Unlike)
			categories.GET("/:id/liked", RequireAuth(), h.Category.HasLiked)
		}

		mechanics := api.Group("/mechanics")
		{
			mechanics.GET("/:id", h.Mechanic.Get)
			mechanics.GET("/:id/history", h.Mechanic.History)

			mechanics.POST("", RequireAuth(), h.Mechanic.Create)
			mechanics.PATCH("/:id", RequireAuth(), h.Mechanic.Update)
			mechanics.DELETE("/:id", RequireAuth(), h.Mechanic.Delete)

			mechanics.PUT("/:id/like", RequireAuth(), h.Mechanic.Like)
			mechanics.DELETE("/:id/like", RequireAuth(), h.Mechanic.Unlike)
			mechanics.GET("/:id/liked", RequireAuth(), h.Mechanic.HasLiked)
		}

		games := api.Group("/games")
		{
			games.GET("/:id", h.Game.Get)
			games.GET("/:id/categories", h.Game.Categories)
			games.GET("/:id/mechanics", h.Game.Mechanics)
			games.GET("/:id/rules", h.Rule.ListByGame)
			games.GET("/:id/videos", h.Video.ListByGame)
			games.GET("/:id/history", h.Game.History)

			games.POST("", RequireAuth(), h.Game.Create)
			games.PATCH("/:id", RequireAuth(), h.Game.Update)
			games.DELETE("/:id", RequireAuth(), h.Game.Delete)

			games.PUT("/:id/categories/:mappedID", RequireAuth(), h.Game.AddCategory)
			games.DELETE("/:id/categories/:mappedID", RequireAuth(), h.Game.RemoveCategory)
			games.PUT("/:id/mechanics/:mappedID", RequireAuth(), h.Game.AddMechanic)
			games.DELETE("/:id/mechanics/:mappedID", RequireAuth(), h.Game.RemoveMechanic)

			games.POST("/:id/rules", RequireAuth(), h.Rule.Create)
			games.POST("/:id/videos", RequireAuth(), h.Video.Create)
		}

		rules := api.Group("/rules")
		{
			rules.GET("/:id", h.Rule.Get)
			rules.GET("/:id/history", h.Rule.History)
			rules.PATCH("/:id", RequireAuth(), h.Rule.Update)
			rules.DELETE("/:id", RequireAuth(), h.Rule.Delete)
		}

		videos := api.Group("/videos")
		{
			videos.GET("/:id", h.Video.Get)
			videos.GET("/:id/history", h.Video.History)
			videos.PATCH("/:id", RequireAuth(), h.Video.Update)
			videos.DELETE("/:id", RequireAuth(), h.Video.Delete)
		}
	}

	return router
}
