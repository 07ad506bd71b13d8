package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/akluev/vendops/internal/handler"
	"github.com/akluev/vendops/internal/store"
	"github.com/akluev/vendops/internal/utils"
	"github.com/akluev/vendops/pkg/auth"
	"github.com/akluev/vendops/pkg/vendapi"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("no .env file found, relying on environment: %v", err)
	}

	addr := ":" + utils.GetEnv("PORT", "8080")
	httpClient := &http.Client{Timeout: 15 * time.Second}

	jwtSecret := os.Getenv("AUTH_SECRET")
	if jwtSecret == "" {
		log.Fatalf("AUTH_SECRET is required")
	}
	jwtIssuer := utils.GetEnv("AUTH_ISSUER", "vendops")
	jwtAudience := utils.GetEnv("AUTH_AUDIENCE", "dashboard")
	authProvider := auth.NewJWT(jwtSecret, jwtIssuer, jwtAudience)

	dbURL := utils.GetEnv("DATABASE_URL", "")
	if dbURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := store.EnsureSchema(ctx, dbURL); err != nil {
			log.Printf("ensure schema: %v", err)
		}
		cancel()
	} else {
		log.Printf("DATABASE_URL not set, overrides/planograms/schedules disabled")
	}

	// optional Redis-backed token cache for the telemetry session
	var tokenCache vendapi.TokenCache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       utils.GetEnvInt("REDIS_DB", 0),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, token cache disabled: %v", err)
		} else {
			tokenCache = vendapi.NewRedisTokenCache(rdb, utils.GetEnv("REDIS_TOKEN_KEY", "vendops:telemetry-token"))
		}
		cancel()
	}

	baseURL := utils.GetEnv("VENDAPI_BASE_URL", "https://api.vendtelemetry.com/v1")
	session := vendapi.NewSession(httpClient, baseURL,
		os.Getenv("VENDAPI_LOGIN"), os.Getenv("VENDAPI_PASSWORD"), tokenCache)
	telemetry := vendapi.NewClient(httpClient, baseURL, session)

	appRouter := handler.NewRouter(authProvider, telemetry, dbURL, jwtSecret, jwtIssuer, jwtAudience)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/", appRouter)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}
