package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/patrickmn/go-cache"
	"github.com/username/lotfolio/backend/src/config"
	"github.com/username/lotfolio/backend/src/database"
	"github.com/username/lotfolio/backend/src/handlers"
	"github.com/username/lotfolio/backend/src/logger"
	"github.com/username/lotfolio/backend/src/services"
	"github.com/username/lotfolio/backend/src/store"
	"github.com/username/lotfolio/backend/src/utils"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Lotfolio backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	tickerStore := store.NewTickerStore(database.DB)
	priceStore := store.NewPriceStore(database.DB)
	fxStore := store.NewFXStore(database.DB)

	logger.L.Info("Initializing lookup cache...")
	lookupCache := cache.New(24*time.Hour, 48*time.Hour)

	logger.L.Info("Initializing services and handlers...")
	marketData := services.NewMarketDataService(config.Cfg.MarketDataBaseURL, config.Cfg.PriceLookupTimeout)
	tickerService := services.NewTickerService(
		marketData, tickerStore, priceStore, fxStore, lookupCache,
		config.Cfg.LookupConcurrency, config.Cfg.PriceLookupTimeout,
		config.Cfg.HistoryStartDate,
	)

	calendar := utils.NewUSTradingCalendar(2010, time.Now().Year()+1)
	metricsService := services.NewMetricsService(
		tickerService, fxStore, priceStore, calendar, config.Cfg.FXFallback,
	)
	uploadHandler := handlers.NewUploadHandler(metricsService)

	logger.L.Info("Configuring routes...")
	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(rateLimitMiddleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Lotfolio backend is running"})
	})
	router.Post("/upload", uploadHandler.HandleUpload)

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
