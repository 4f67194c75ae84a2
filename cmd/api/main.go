package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hvichare/go-estate/internal/config"
	"github.com/hvichare/go-estate/internal/db"
	"github.com/hvichare/go-estate/internal/handlers"
	"github.com/hvichare/go-estate/internal/middleware"
	"github.com/hvichare/go-estate/internal/repo"
	"github.com/hvichare/go-estate/internal/stats"
	"github.com/hvichare/go-estate/internal/token"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultJWTSecret = "supersecretkey"

func main() {
	cfg := config.Load()

	setupLogger(cfg.LogFormat)

	if cfg.Env == "prod" && cfg.JWTSecret == defaultJWTSecret {
		slog.Error("JWT_SECRET must be set in prod")
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if err := db.Run(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	statsCron, err := stats.Run(cfg.StatsCron, repo.NewUserRepo(database), repo.NewListingRepo(database))
	if err != nil {
		slog.Error("stats refresher failed to start", "error", err)
		os.Exit(1)
	}
	defer statsCron.Stop()

	r := newRouter(database, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		useTLS := cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""
		slog.Info("starting server", "port", cfg.Port, "tls", useTLS)

		var err error
		if useTLS {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

// newRouter builds the full handler chain. Split out so tests can run the
// router against a mock database.
func newRouter(database *sql.DB, cfg config.Config) chi.Router {
	userRepo := repo.NewUserRepo(database)
	listingRepo := repo.NewListingRepo(database)

	ttl := time.Duration(cfg.JWTExpireHours) * time.Hour
	tokens := token.New([]byte(cfg.JWTSecret), ttl)
	secureCookie := cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""

	authHandler := &handlers.AuthHandler{
		UserRepo:     userRepo,
		Tokens:       tokens,
		TokenTTL:     ttl,
		SecureCookie: secureCookie,
	}
	userHandler := &handlers.UserHandler{
		Repo:         userRepo,
		ListingRepo:  listingRepo,
		SecureCookie: secureCookie,
	}
	listingHandler := &handlers.ListingHandler{Repo: listingRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(secureCookie))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			handlers.JSONError(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.AuthRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/signup", authHandler.Signup)
			r.Post("/signin", authHandler.Signin)
			r.Post("/google", authHandler.Google)
		})
		r.Get("/signout", authHandler.Signout)
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens))
		r.Post("/update/{id}", userHandler.UpdateUser)
		r.Delete("/delete/{id}", userHandler.DeleteUser)
		r.Get("/listings/{id}", userHandler.GetUserListings)
		r.Get("/{id}", userHandler.GetUser)
	})

	r.Route("/api/listing", func(r chi.Router) {
		r.Get("/get", listingHandler.SearchListings)
		r.Get("/get/{id}", listingHandler.GetListing)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens))
			r.Post("/create", listingHandler.CreateListing)
			r.Post("/update/{id}", listingHandler.UpdateListing)
			r.Delete("/delete/{id}", listingHandler.DeleteListing)
		})
	})

	return r
}

func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
