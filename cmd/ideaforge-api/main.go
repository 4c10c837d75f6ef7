package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/ideaforge-api/internal/config"
	"github.com/dimitrije/ideaforge-api/internal/database"
	"github.com/dimitrije/ideaforge-api/internal/handlers"
	"github.com/dimitrije/ideaforge-api/internal/logging"
	authmw "github.com/dimitrije/ideaforge-api/internal/middleware"
	"github.com/dimitrije/ideaforge-api/internal/services"
	"github.com/dimitrije/ideaforge-api/internal/sse"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	var locks services.RowLocker
	if cfg.RedisURL != "" {
		rdb, err := services.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer rdb.Close()
		locks = services.NewRedisRowLocker(rdb, cfg.RowLockTTL)
		log.Info("row locks held in redis")
	} else {
		locks = services.NewMemoryRowLocker()
		log.Info("row locks held in process")
	}

	qualifiers, err := config.LoadQualifiers(cfg.RoleQualifiersFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load role qualifiers")
	}
	evaluator := team.NewEvaluator(qualifiers)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	userService := services.NewUserService(db)
	ideaService := services.NewIdeaService(db)
	teamService := services.NewTeamService(db)
	approachService := services.NewApproachService(db)

	hub := sse.NewHub()
	go hub.Run(ctx)

	userHandler := handlers.NewUserHandler(userService, log)
	ideaHandler := handlers.NewIdeaHandler(ideaService, teamService, hub, log)
	teamHandler := handlers.NewTeamHandler(ideaService, teamService, locks, hub, log)
	approachHandler := handlers.NewApproachHandler(ideaService, teamService, userService, approachService, evaluator, locks, hub, log)
	sseHandler := handlers.NewSSEHandler(hub, ideaService, teamService, log)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)

	protected.Post("/ideas", ideaHandler.Create)
	protected.Get("/ideas/:id", ideaHandler.Get)
	protected.Patch("/ideas/:id", ideaHandler.Update)

	protected.Get("/ideas/:id/team", teamHandler.Get)
	protected.Post("/ideas/:id/leave", teamHandler.Leave)
	protected.Post("/ideas/:id/members/:memberId/promote", teamHandler.Promote)
	protected.Post("/ideas/:id/members/:memberId/demote", teamHandler.Demote)
	protected.Delete("/ideas/:id/members/:memberId", teamHandler.RemoveMember)
	protected.Post("/ideas/:id/roles", teamHandler.AddRole)
	protected.Delete("/ideas/:id/roles/:roleId", teamHandler.RemoveRole)

	protected.Post("/ideas/:id/approaches", approachHandler.Submit)
	protected.Get("/ideas/:id/approaches", approachHandler.List)
	protected.Post("/ideas/:id/approaches/:approachId/accept", approachHandler.Accept)
	protected.Post("/ideas/:id/approaches/:approachId/resolve", approachHandler.Resolve)

	protected.Get("/ideas/:id/events", sseHandler.Connect)
	protected.Post("/sse/:clientId/subscribe/:id", sseHandler.Subscribe)
	protected.Post("/sse/:clientId/unsubscribe/:id", sseHandler.Unsubscribe)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           authmw.RequestLogger(log, app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
