package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery-tracker-service/internal/adapters/geo"
	"delivery-tracker-service/internal/adapters/repositories"
	"delivery-tracker-service/internal/api"
	"delivery-tracker-service/internal/config"
	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/fanout"
	"delivery-tracker-service/internal/platform/db"
	"delivery-tracker-service/internal/ports"
	"delivery-tracker-service/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (Postgres or in-memory store, ORS or mock
// geo, optional Redis fan-out bridge) behind ports and starts the HTTP
// server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")
	seedPath := config.Get("SEED_PATH", "data/seeds/demo.json")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, seedPath)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	registry := fanout.NewRegistry(config.GetInt("OBSERVER_BUFFER", 16))
	engine := fanout.NewEngine(registry, store)

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("parse REDIS_URL: %v", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		bridge := fanout.NewRedisBridge(client, config.Get("REDIS_CHANNEL", "entity-updates"), engine)
		engine.UseRemote(bridge)
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("redis bridge stopped err=%v", err)
			}
		}()
		log.Println("Redis fan-out bridge enabled")
	}

	reaperStop := make(chan struct{})
	defer close(reaperStop)
	registry.StartReaper(reaperStop,
		config.GetDuration("SUBSCRIPTION_IDLE_TTL", time.Minute),
		config.GetDuration("SUBSCRIPTION_REAP_INTERVAL", 15*time.Second))

	updater := services.NewLocationUpdater(store, engine)
	updater.MinInterval = config.GetDuration("LOCATION_MIN_INTERVAL", 0)

	geocoder, directions := openGeo()

	directory := services.NewDirectory(store, engine)
	lifecycle := services.NewLifecycle(store, engine)
	advisor := services.NewRouteAdvisor(store, geocoder, directions)

	router := api.NewRouter(directory, lifecycle, updater, advisor, registry)

	// WriteTimeout stays zero so long-lived /stream connections are not
	// cut off by the server; the registry reaper handles dead observers.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening addr=:%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown err=%v", err)
	}

	registry.Close()
	engine.Close()
}

// openStore picks Postgres when DATABASE_URL is set and otherwise falls
// back to an in-memory store seeded with demo data.
func openStore(ctx context.Context, seedPath string) (ports.EntityStore, func(), error) {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		conn, err := db.Open(databaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.InitSchema(conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return repositories.NewPostgresStore(conn), func() { conn.Close() }, nil
	}

	log.Println("DATABASE_URL not set, running with in-memory store")
	store := repositories.NewMemoryStore()
	if _, err := os.Stat(seedPath); err == nil {
		if err := repositories.SeedFromJSON(ctx, store, seedPath); err != nil {
			return nil, nil, err
		}
	}
	return store, func() {}, nil
}

// openGeo picks the OpenRouteService provider when an API key is set and
// otherwise a fixed-table mock covering the demo seed addresses.
func openGeo() (ports.Geocoder, ports.DirectionsProvider) {
	if apiKey := os.Getenv("ORS_API_KEY"); apiKey != "" {
		provider, err := geo.NewORSProvider(apiKey)
		if err != nil {
			log.Fatal(err)
		}
		return provider, provider
	}

	log.Println("ORS_API_KEY not set, using mock geo provider")
	mock := geo.NewMockProvider(map[string]domain.Position{
		"Jl. Merdeka Barat 12, Jakarta":      {Lat: -6.1754, Lng: 106.8272},
		"Jl. Thamrin 5, Jakarta":             {Lat: -6.1931, Lng: 106.8236},
		"Jl. Sudirman Kav. 52-53, Jakarta":   {Lat: -6.2251, Lng: 106.8097},
		"Jl. Gatot Subroto Kav. 18, Jakarta": {Lat: -6.2383, Lng: 106.8306},
	})
	return mock, mock
}
