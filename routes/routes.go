package routes

import (
	"net/http"

	"github.com/Dosada05/wsob-poker/handlers"
	"github.com/Dosada05/wsob-poker/middleware"
	"github.com/Dosada05/wsob-poker/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	r chi.Router,
	tokens services.TokenManager,
	allowedOrigins []string,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	ruleHandler *handlers.RuleHandler,
	gameHandler *handlers.GameHandler,
	seasonHandler *handlers.SeasonHandler,
	dashboardHandler *handlers.DashboardHandler,
) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(tokens)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.With(authenticate).Get("/me", authHandler.Me)
	})

	r.Route("/players", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", playerHandler.ListPlayers)
		r.With(middleware.RequireAdmin).Post("/", playerHandler.CreatePlayer)

		r.Route("/{playerID}", func(r chi.Router) {
			r.Get("/", playerHandler.GetPlayer)
			// Права (сам игрок или админ) проверяет сервис.
			r.Put("/", playerHandler.UpdatePlayer)
			r.Post("/avatar", playerHandler.UploadAvatar)
			r.With(middleware.RequireAdmin).Delete("/", playerHandler.DeletePlayer)
		})
	})

	r.Route("/rules", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", ruleHandler.ListRules)
		r.Get("/by-slug/{slug}", ruleHandler.GetRuleBySlug)
		r.Get("/{ruleID}", ruleHandler.GetRule)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/", ruleHandler.CreateRule)
			r.Put("/{ruleID}", ruleHandler.UpdateRule)
			r.Delete("/{ruleID}", ruleHandler.DeleteRule)
			r.Post("/{ruleID}/clone", ruleHandler.CloneRule)
			r.Put("/{ruleID}/active", ruleHandler.SetRuleActive)
		})
	})

	r.Route("/games", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", gameHandler.ListGames)
		r.Get("/{gameID}", gameHandler.GetGame)
		r.Get("/{gameID}/settlement", gameHandler.GetSettlement)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/", gameHandler.CreateGame)
			r.Delete("/{gameID}", gameHandler.DeleteGame)
			r.Post("/{gameID}/entries", gameHandler.AddParticipant)
			r.Delete("/{gameID}/entries/{dataID}", gameHandler.RemoveParticipant)
			r.Patch("/{gameID}/entries/{dataID}", gameHandler.UpdateEntry)
			r.Post("/{gameID}/entries/{dataID}/eliminate", gameHandler.Eliminate)
			r.Post("/{gameID}/entries/{dataID}/revive", gameHandler.Revive)
			r.Put("/{gameID}/entries/{dataID}/payment", gameHandler.SetPayment)
			r.Post("/{gameID}/end", gameHandler.EndGame)
			r.Post("/{gameID}/reopen", gameHandler.ReopenGame)
		})
	})

	r.With(authenticate).Get("/seasons/{year}/leaderboard", seasonHandler.Leaderboard)
	r.With(authenticate, middleware.RequireAdmin).Get("/admin/overview", dashboardHandler.Stats)
}
