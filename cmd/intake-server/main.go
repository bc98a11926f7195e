package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/shipdesk/intake/config"
	"github.com/shipdesk/intake/internal/cache"
	"github.com/shipdesk/intake/internal/events"
	"github.com/shipdesk/intake/internal/httpapi"
	"github.com/shipdesk/intake/internal/notify"
	"github.com/shipdesk/intake/internal/rateapi"
	"github.com/shipdesk/intake/internal/session"
	"github.com/shipdesk/intake/internal/store"
	"github.com/shipdesk/intake/internal/ws"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg := config.LoadConfig()

	client := rateapi.NewClient(cfg.BackofficeURL, cfg.RequestTimeout, logger)
	logger.WithField("url", cfg.BackofficeURL).Info("Back-office client configured")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.New(cfg.PostgresDSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()

	if err := db.WaitReady(ctx, 30); err != nil {
		logger.WithError(err).Fatal("Database not reachable")
	}
	if err := db.Migrate(cfg.MigrationsDir); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	sideEffects := &httpapi.SideEffects{
		Store:  db,
		Logger: logger,
	}

	var quoteCache *cache.QuoteCache
	if cfg.RedisAddr != "" {
		quoteCache = cache.NewQuoteCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.QuoteCacheTTL)
		if err := quoteCache.Ping(ctx); err != nil {
			logger.WithError(err).Warn("Redis not reachable, quote cache disabled")
			quoteCache = nil
		} else {
			sideEffects.Cache = quoteCache
			defer quoteCache.Close()
			logger.WithField("addr", cfg.RedisAddr).Info("Quote cache configured")
		}
	}

	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	// With Kafka up, bookings reach the hub through the bus, which also fans
	// in bookings made by peer instances. Without it the observer broadcasts
	// directly and clients only see this instance's bookings.
	var consumer *events.KafkaConsumer
	if cfg.KafkaBrokers != "" {
		producer, err := events.NewKafkaProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.WithError(err).Warn("Kafka not reachable, booking events disabled")
		} else {
			sideEffects.Publisher = producer
			defer producer.Close()
			logger.WithField("brokers", cfg.KafkaBrokers).Info("Kafka producer configured")

			groupID := "intake-server-" + uuid.New().String()
			consumer, err = events.NewBroadcastConsumer(cfg.KafkaBrokers, groupID, &ws.BookingFanIn{Hub: wsHub}, logger)
			if err != nil {
				logger.WithError(err).Warn("Kafka consumer group unavailable, booking fan-in disabled")
			} else {
				defer consumer.Close()
				go func() {
					if err := consumer.Start(ctx); err != nil {
						logger.WithError(err).Error("Booking fan-in consumer stopped")
					}
				}()
				logger.WithField("group_id", groupID).Info("Booking fan-in consumer configured")
			}
		}
	}
	if consumer == nil {
		sideEffects.Hub = wsHub
	}

	registry := httpapi.NewRegistry(client, sideEffects, logger)
	handler := httpapi.NewHandler(registry, client, logger)
	handler.SetBookingLister(db)
	if quoteCache != nil {
		handler.SetQuoteCache(quoteCache)
	}
	handler.SetWebSocketHub(wsHub)

	// The notification poller authenticates as a service account when one is
	// configured; without it the feed stays quiet.
	if cfg.ServiceEmail != "" {
		sess, err := client.Login(ctx, cfg.ServiceEmail, cfg.ServicePassword)
		if err != nil {
			logger.WithError(err).Warn("Service account login failed, notification feed disabled")
			sess = session.FromToken("")
		}
		if !sess.Anonymous() {
			poller := notify.NewPoller(client, wsHub, sess, cfg.PollInterval, logger)
			poller.Start(ctx)
			defer poller.Stop()
		}
	}

	router := mux.NewRouter()
	handler.Register(router)
	router.Use(corsMiddleware())
	router.Use(loggingMiddleware(logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting intake server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).Info("Request received")

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).Milliseconds(),
			}).Info("Request completed")
		})
	}
}

func corsMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Allow all origins for development
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
