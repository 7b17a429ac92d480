package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/exam-seating/internal/allocation"
	"github.com/iliyamo/exam-seating/internal/config"
	"github.com/iliyamo/exam-seating/internal/database"
	"github.com/iliyamo/exam-seating/internal/handler"
	"github.com/iliyamo/exam-seating/internal/jobs"
	"github.com/iliyamo/exam-seating/internal/metrics"
	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/queue"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/router"
	"github.com/iliyamo/exam-seating/internal/service"
	"github.com/iliyamo/exam-seating/internal/utils"
)

const allocationLockKey = "exam:lock:allocation"

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not read .env: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	// ---- Storage ----
	rooms := repository.NewRoomRepo(db)
	students := repository.NewStudentRepo(db)
	staff := repository.NewStaffRepo(db)
	sessions := repository.NewSessionRepo(db)
	txm := repository.NewMySQLTxManager(db)

	// ---- Allocation engine ----
	strategy, err := allocation.StrategyByName(cfg.Allocation.Strategy)
	if err != nil {
		log.Fatalf("allocation: %v", err)
	}
	engine := allocation.NewEngine(repository.NewSeatingStore(txm), strategy,
		allocation.WithTimeout(cfg.Allocation.Timeout),
		allocation.WithLocker(allocation.ChainLock{
			&allocation.LocalLock{},
			allocation.NewRedisLock(rdb, allocationLockKey, cfg.Allocation.LockTTL),
		}),
	)

	// ---- Cross-cutting ----
	m := metrics.New()
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	var publisher service.EventPublisher
	if cfg.EventsEnabled {
		url := config.AMQPURL()
		publisher = queue.NewPublisher(url)
		go func() {
			if err := queue.StartAllocationConsumer(ctx, url, cfg.LogDir); err != nil {
				log.Printf("allocation consumer stopped: %v", err)
			}
		}()
	}

	// ---- Services ----
	ttl := time.Duration(cfg.AccessTTLMin) * time.Minute
	if err := utils.SetBurnCost(cfg.BcryptCost); err != nil {
		log.Fatalf("password hashing: %v", err)
	}
	authSvc := service.NewAuthService(staff, students, sessions, cfg.JWTSecret, ttl, m)
	roomSvc := service.NewRoomService(rooms, cache)
	rosterSvc := service.NewRosterService(repository.NewRosterStore(txm), cache, m)
	allocSvc := service.NewAllocationService(engine, publisher, cache, m)
	recordSvc := service.NewRecordService(students, cache)
	statusSvc := service.NewStatusService(repository.NewStatusReader(db))
	datasetSvc := service.NewDatasetService(repository.NewDatasetStore(db, txm), cache, time.Now)

	scheduler := jobs.NewManager(sessions)
	if err := scheduler.Start(cfg.SessionCleanup); err != nil {
		log.Fatalf("cron: %v", err)
	}
	defer scheduler.Stop()

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLog())
	e.Use(m.Middleware())
	e.Use(echomw.BodyLimit(bodyLimit(cfg.UploadMaxBytes)))

	router.RegisterRoutes(e, db, m.Handler())
	router.RegisterAPI(e, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Rooms:      handler.NewRoomHandler(roomSvc),
		Uploads:    handler.NewUploadHandler(rosterSvc, allocSvc, cfg.UploadMaxBytes),
		Allocation: handler.NewAllocationHandler(allocSvc),
		Records:    handler.NewRecordHandler(recordSvc),
		Status:     handler.NewStatusHandler(statusSvc),
		Datasets:   handler.NewDatasetHandler(datasetSvc),
	}, router.Middleware{
		Auth:      authSvc,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     cache.Middleware(),
	})

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(sctx); err != nil {
			log.Printf("http shutdown error: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, strategy=%s)", addr, cfg.Env, engine.Strategy())
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// bodyLimit leaves headroom over the CSV limit for multipart framing so the
// upload handler, not Echo, reports oversized files.
func bodyLimit(maxUpload int64) string {
	kb := maxUpload/1024 + 64
	return strconv.FormatInt(kb, 10) + "K"
}
