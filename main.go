package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shellboard/shellboard/internal/audit"
	"github.com/shellboard/shellboard/internal/config"
	"github.com/shellboard/shellboard/internal/database"
	"github.com/shellboard/shellboard/internal/handlers"
	"github.com/shellboard/shellboard/internal/logging"
	"github.com/shellboard/shellboard/internal/scheduler"
	"github.com/shellboard/shellboard/internal/terminal"
)

func main() {
	config.Load()
	logging.Init()

	if err := database.Init(); err != nil {
		log.Fatalf("Database init: %v", err)
	}
	defer database.Close()

	log.Printf("Config: allowed_dirs=%v allowed_commands=%v max_sessions=%d",
		config.Cfg.AllowedBaseDirs, config.Cfg.AllowedCommands, config.Cfg.MaxSessions)

	// Init terminal manager with the immutable spawn policy
	termMgr := terminal.NewManager(terminal.Policy{
		AllowedBaseDirs:          config.Cfg.AllowedBaseDirs,
		AllowedCommands:          config.Cfg.AllowedCommands,
		MaxSessions:              config.Cfg.MaxSessions,
		MaxSubscribersPerSession: config.Cfg.MaxSubscribersPerSession,
		SubscriberBuffer:         config.Cfg.SubscriberBuffer,
		ScrollbackLines:          config.Cfg.ScrollbackLines,
		PublishTimeout:           config.Cfg.PublishTimeout,
		StopGracePeriod:          config.Cfg.StopGracePeriod,
	}, audit.NewRecorder())
	handlers.TermMgr = termMgr
	log.Printf("Terminal manager initialized (max_sessions=%d, max_subscribers=%d, publish_timeout=%s)",
		config.Cfg.MaxSessions, config.Cfg.MaxSubscribersPerSession, config.Cfg.PublishTimeout)

	// Init task scheduler
	sched := scheduler.New(termMgr)
	if err := sched.Start(); err != nil {
		log.Printf("WARNING: scheduler start: %v", err)
	}
	handlers.Sched = sched

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	// Health (no prefix)
	r.Get("/health", handlers.HealthCheck)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Projects
		r.Get("/projects", handlers.ListProjects)
		r.Post("/projects", handlers.CreateProject)
		r.Get("/projects/{id}", handlers.GetProject)
		r.Delete("/projects/{id}", handlers.DeleteProject)
		r.Post("/projects/{id}/open-terminal", handlers.OpenProjectTerminal)

		// Terminals
		r.Get("/terminals", handlers.ListTerminals)
		r.Post("/terminals", handlers.SpawnTerminal)
		r.Get("/terminals/{id}/status", handlers.GetTerminalStatus)
		r.Get("/terminals/{id}/output", handlers.GetTerminalOutput)
		r.Get("/terminals/{id}/stream", handlers.StreamTerminal)
		r.Delete("/terminals/{id}", handlers.StopTerminal)

		// Scheduled tasks
		r.Get("/tasks", handlers.ListTasks)
		r.Post("/tasks", handlers.CreateTask)
		r.Get("/tasks/{id}", handlers.GetTask)
		r.Delete("/tasks/{id}", handlers.DeleteTask)

		// Service logs
		r.Get("/logs", handlers.GetLogs)
		r.Delete("/logs", handlers.ClearLogs)
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:    config.Cfg.ListenAddr,
		Handler: r,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on %s", config.Cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("Shutting down...")

	sched.Stop()
	termMgr.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
