package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticket-engine/internal/config"
	"github.com/iliyamo/cinema-ticket-engine/internal/database"
	"github.com/iliyamo/cinema-ticket-engine/internal/inventory"
	"github.com/iliyamo/cinema-ticket-engine/internal/logger"
	"github.com/iliyamo/cinema-ticket-engine/internal/queue"
	"github.com/iliyamo/cinema-ticket-engine/internal/repository"
	"github.com/iliyamo/cinema-ticket-engine/internal/router"
	"github.com/iliyamo/cinema-ticket-engine/internal/service"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine outside development

	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.NeedsMySQL() {
		var err error
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			fatal(log, "connect mysql", err)
		}
		defer db.Close()
		if cfg.DBMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				fatal(log, "migrate schema", err)
			}
			log.Info("schema applied")
		}
	}

	// Redis backs the response cache and rate limiter, and optionally seat state.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	catalog, holidays, tickets := buildStores(cfg, db, log)
	store := buildInventoryStore(cfg, db, rdb, log)

	static, err := service.NewStaticHolidays(cfg.Holidays)
	if err != nil {
		fatal(log, "HOLIDAYS", err)
	}
	calendar := service.NewCalendar(catalog, service.MultiHolidayCalendar{holidays, static})

	var events service.Publisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		pub := service.NewAMQPPublisher(cfg.RabbitMQURL, log)
		defer pub.Close()
		events = pub
	}
	if cfg.AuditConsumerEnabled {
		go queue.NewAuditConsumer(cfg.RabbitMQURL, cfg.AuditLogPath, log).Run(ctx)
	}

	inv := inventory.New(store, inventory.WithOpTimeout(cfg.InventoryOpTimeout))
	coord := service.NewCoordinator(service.Deps{
		Catalog:   catalog,
		Calendar:  calendar,
		Pricing:   service.NewResolver(catalog, calendar),
		Inventory: inv,
		Tickets:   tickets,
		Events:    events,
		Log:       log,
	}, service.Options{ThinkHoldTTL: cfg.ThinkHoldTTL, ConfirmHoldTTL: cfg.ConfirmHoldTTL})

	go inventory.NewSweeper(inv, cfg.SweepInterval, log).Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(log.RequestLogger())
	router.Register(e, router.Deps{
		Coord:     coord,
		Log:       log,
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env,
			"store", cfg.StoreBackend, "inventory", cfg.InventoryBackend)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "http server", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func buildStores(cfg config.Config, db *sql.DB, log *logger.Logger) (service.Catalog, service.HolidayCalendar, service.TicketStore) {
	if cfg.StoreBackend == config.BackendMemory {
		cat, err := repository.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			fatal(log, "load seed catalog", err)
		}
		log.Info("catalog loaded from seed", "file", cfg.SeedFile)
		return cat, cat, repository.NewMemoryTicketStore()
	}
	cat := repository.NewCatalogRepo(db)
	return cat, cat.Holidays, repository.NewTicketRepo(database.Wrap(db))
}

func buildInventoryStore(cfg config.Config, db *sql.DB, rdb *redis.Client, log *logger.Logger) inventory.Store {
	switch cfg.InventoryBackend {
	case config.BackendRedis:
		if rdb == nil {
			fatal(log, "INVENTORY_BACKEND=redis", errors.New("redis is unreachable"))
		}
		return repository.NewRedisSeatStore(rdb, "seats")
	case config.BackendMemory:
		return inventory.NewMemoryStore()
	default:
		return repository.NewSeatInventoryRepo(db)
	}
}

func fatal(log *logger.Logger, what string, err error) {
	log.Error(what, "error", err)
	os.Exit(1)
}
