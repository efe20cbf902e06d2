package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cloudbox/internal/api"
	"cloudbox/internal/config"
	"cloudbox/internal/core"
	"cloudbox/internal/mail"
	"cloudbox/internal/storage"
	"cloudbox/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}

	localStorage, err := storage.NewLocalStorage(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Could not initialize local storage: %v", err)
	}
	log.Printf("User files will be stored in: %s", cfg.Storage.Path)

	var notifier core.Notifier
	if cfg.SMTP.Host != "" {
		notifier = mail.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		log.Println("No SMTP relay configured; activation codes will be logged")
		notifier = &mail.LogMailer{Sink: func(recipient, subject, body string) {
			log.Printf("MAIL to %s [%s]: %s", recipient, subject, body)
		}}
	}

	wsHub := websocket.NewHub()
	go wsHub.Run()

	svc, err := core.New(localStorage, notifier, wsHub, cfg.Pending.TTL)
	if err != nil {
		log.Fatalf("Could not initialize core service: %v", err)
	}

	go sweepLoop(svc, localStorage, cfg.Storage.SweepInterval, cfg.Storage.TempMaxAge)

	server := api.NewServer(cfg, svc, wsHub)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/ws", server.ServeWsHandler)
	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/auth/login", server.LoginHandler)
	r.Post("/api/v1/users/{username}", server.RegisterHandler)
	r.Put("/api/v1/users/{username}", server.ActivateHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.AuthMiddleware)
		r.Get("/me", server.GetCurrentUserHandler)
		r.Delete("/users/me", server.DeleteAccountHandler)
		r.Get("/files", server.SnapshotHandler)
		r.Get("/files/*", server.DownloadFileHandler)
		r.Post("/files/*", server.UploadFileHandler)
		r.Put("/files/*", server.OverwriteFileHandler)
		r.Post("/actions/delete", server.DeleteActionHandler)
		r.Post("/actions/copy", server.CopyActionHandler)
		r.Post("/actions/move", server.MoveActionHandler)
		r.Post("/shares/*", server.CreateShareHandler)
		r.Delete("/shares/*", server.RemoveShareHandler)
	})

	log.Printf("Starting server on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatalf("Could not start server: %v", err)
	}
}

// sweepLoop periodically drops expired pending registrations and
// garbage-collects interrupted uploads from the storage temp area.
func sweepLoop(svc *core.Service, ls *storage.LocalStorage, interval, tempMaxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if n := svc.SweepPending(); n > 0 {
			log.Printf("Removed %d expired pending registrations", n)
		}
		n, err := ls.SweepTemp(tempMaxAge)
		if err != nil {
			log.Printf("WARN: temp sweep failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("Removed %d stale temporary upload files", n)
		}
	}
}
