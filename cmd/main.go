package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Vovarama1992/homecare-engage/internal/chat"
	"github.com/Vovarama1992/homecare-engage/internal/config"
	"github.com/Vovarama1992/homecare-engage/internal/identity"
	"github.com/Vovarama1992/homecare-engage/internal/notify"
	"github.com/Vovarama1992/homecare-engage/internal/ratelimit"
	"github.com/Vovarama1992/homecare-engage/internal/realtime"
	"github.com/Vovarama1992/homecare-engage/internal/review"
	"github.com/Vovarama1992/homecare-engage/internal/settings"
	"github.com/Vovarama1992/homecare-engage/internal/storage"
	"github.com/Vovarama1992/homecare-engage/internal/util"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		util.Fatal("config load failed", "err", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	var (
		pinger   storage.Pinger
		sessions chat.SessionRepo
		messages chat.MessageRepo
		reviews  review.Repo
		themes   settings.ThemeRepo
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		sessions = chat.NewMemorySessionRepo()
		messages = chat.NewMemoryMessageRepo()
		reviews = review.NewMemoryRepo()
		themes = settings.NewMemoryThemeRepo()
	default:
		db, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			util.Fatal("database init failed", "err", err)
		}
		defer db.Close()
		pinger = db
		sessions = chat.NewSessionRepo(db)
		messages = chat.NewMessageRepo(db)
		reviews = review.NewRepo(db)
		themes = settings.NewThemeRepo(db)
	}

	// --- Identity ---
	verifier, err := identity.NewJWKSVerifier(identity.Config{
		JWKSURL:  cfg.AuthJWKSURL,
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
	})
	if err != nil {
		util.Fatal("identity verifier init failed", "err", err)
	}

	// --- Rate limit ---
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" && cfg.RateLimitPerMinute > 0 {
		fw, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "homecare:ratelimit", cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			util.Fatal("rate limiter init failed", "err", err)
		}
		defer fw.Close()
		limiter = fw
	} else {
		logger.Info("rate limiting disabled")
	}

	// --- Notifications ---
	prefs := settings.NewPreferenceStore()
	var mailer notify.Mailer
	if cfg.SMTPHost != "" && cfg.SMTPUser != "" {
		smtp, err := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Secure:   cfg.SMTPSecure,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
		})
		if err != nil {
			util.Fatal("smtp mailer init failed", "err", err)
		}
		mailer = smtp
	} else {
		logger.Warn("smtp not configured, staff notifications disabled")
	}
	notifier := notify.New(mailer, prefs, cfg.AdminEmail, cfg.BrandName, logger)

	// --- Services ---
	chatService := chat.NewService(sessions, messages, notifier, chat.WithLogger(logger))
	reviewService := review.NewService(reviews, notifier, review.WithLogger(logger))
	themeService := settings.NewThemeService(themes, logger)

	chatHandler := chat.NewHandler(chatService, logger)
	reviewHandler := review.NewHandler(reviewService, logger)
	settingsHandler := settings.NewHandler(prefs, themeService, logger)

	hub := realtime.NewHub(logger)
	gateway := realtime.NewGateway(hub, chatService, cfg.CORSOrigin, logger)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(util.WithRequestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	r.Get("/health", healthHandler(pinger))
	r.Get("/ws", gateway.ServeWS)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(pub chi.Router) {
			pub.Use(ratelimit.Middleware(limiter))
			chat.RegisterRoutes(pub, chatHandler)
			review.RegisterRoutes(pub, reviewHandler)
			settings.RegisterRoutes(pub, settingsHandler)
		})
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(identity.RequireAdmin(verifier))
			chat.RegisterAdminRoutes(admin, chatHandler)
			review.RegisterAdminRoutes(admin, reviewHandler)
			settings.RegisterAdminRoutes(admin, settingsHandler)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.Fatal("server error", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	hub.Close()
	chatService.Wait()
	reviewService.Wait()
	logger.Info("stopped")
}

// healthHandler reports process liveness and, when a database is in use,
// whether it answers a ping.
func healthHandler(db storage.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "memory"
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			status = "connected"
			if err := db.PingContext(ctx); err != nil {
				slog.Warn("health ping failed", "err", err)
				status = "disconnected"
			}
		}
		util.WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"database":  status,
		})
	}
}
