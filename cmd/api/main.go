package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/stayfinder/stayfinder-api/internal/config"
	"github.com/stayfinder/stayfinder-api/internal/domain/accommodation"
	"github.com/stayfinder/stayfinder-api/internal/domain/favorite"
	"github.com/stayfinder/stayfinder-api/internal/domain/reservation"
	"github.com/stayfinder/stayfinder-api/internal/middleware"
	"github.com/stayfinder/stayfinder-api/internal/pkg/database"
	"github.com/stayfinder/stayfinder-api/internal/pkg/logger"
	pkgresponse "github.com/stayfinder/stayfinder-api/internal/pkg/response"
	"github.com/stayfinder/stayfinder-api/internal/pkg/session"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})
	pkgresponse.ExposeErrorTraces(cfg.IsDevelopment())

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("stay_api", cfg.StayAPIBaseURL).
		Msg("Starting StayFinder API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redis, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	var cache accommodation.Cache = accommodation.NoopCache{}
	if redis != nil {
		cache = accommodation.NewRedisCache(redis, cfg.AccommodationCacheTTL)
	}

	client := stayapi.NewClient(cfg.StayAPIBaseURL, cfg.StayAPITimeout(), cfg.StayAPIUserAgent)

	registry := reservation.NewRegistry(cfg.FormIdleTTL)
	go registry.Run(ctx)

	favorites := favorite.NewRepository()
	go favorites.Run(ctx, cfg.FormIdleTTL)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	go limiter.Run(ctx)

	handler := newRouter(cfg, client, cache, registry, favorites, limiter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ReservationSubmitTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("Server exited properly")
}

func newRouter(cfg *config.Config, client *stayapi.Client, cache accommodation.Cache, registry *reservation.Registry, favorites *favorite.Repository, limiter *middleware.RateLimiter) http.Handler {
	accommodationService := accommodation.NewService(client, cache)
	accommodationHandler := accommodation.NewHandler(accommodationService)

	reservationService := reservation.NewService(
		accommodationService,
		func(s *session.Session) reservation.API { return client.WithSession(s) },
		registry,
		reservation.Config{SubmitTimeout: cfg.ReservationSubmitTimeout},
	)
	reservationHandler := reservation.NewHandler(reservationService)

	favoriteHandler := favorite.NewHandler(favorite.NewToggler(
		favorites,
		func(s *session.Session) favorite.API { return client.WithSession(s) },
	))

	authMiddleware := middleware.Auth(time.Now)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(limiter.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/accommodations", accommodationHandler.Routes(
			accommodation.With(http.MethodPost, "/{id}/forms", authMiddleware, reservationHandler.OpenForm),
		))
		r.Mount("/forms", reservationHandler.FormRoutes(authMiddleware))
		r.Mount("/reservations", reservationHandler.HistoryRoutes(authMiddleware))
		r.Mount("/favorites", favorite.Routes(favoriteHandler, authMiddleware))
	})

	return r
}
