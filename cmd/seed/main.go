// Command seed prepares a database for an exam: staff accounts, the default
// room grid, room availability and allocation resets.
//
//	seed -rooms -staff          first install
//	seed -enable-all -reset     before re-running allocation from scratch
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/exam-seating/internal/config"
	"github.com/iliyamo/exam-seating/internal/database"
	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/repository"
)

func main() {
	var (
		rooms     = flag.Bool("rooms", false, "create the default room grid (floors G,1-5 x rooms 01-09)")
		capacity  = flag.Uint("capacity", defaultCapacity, "capacity of rooms created by -rooms")
		staff     = flag.Bool("staff", false, "create or reset the admin and faculty accounts from ADMIN_*/FACULTY_*")
		enableAll = flag.Bool("enable-all", false, "mark every room available")
		reset     = flag.Bool("reset", false, "delete the active dataset's allocations so its students are pending again")
	)
	flag.Parse()
	if !*rooms && !*staff && !*enableAll && !*reset {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not read .env: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	s := &seeder{
		rooms:       repository.NewRoomRepo(db),
		staff:       repository.NewStaffRepo(db),
		allocations: repository.NewAllocationRepo(db),
		datasets:    repository.NewDatasetRepo(db),
		cost:        cfg.BcryptCost,
	}

	if *staff {
		for _, acct := range staffFromEnv() {
			if err := s.ensureStaff(ctx, acct); err != nil {
				log.Fatalf("staff %s: %v", acct.username, err)
			}
		}
	}
	if *rooms {
		n, err := s.createRooms(ctx, defaultRoomNumbers(), uint32(*capacity))
		if err != nil {
			log.Fatalf("rooms: %v", err)
		}
		log.Printf("created %d rooms", n)
	}
	if *enableAll {
		n, err := s.rooms.SetAllAvailable(ctx, true)
		if err != nil {
			log.Fatalf("enable-all: %v", err)
		}
		log.Printf("enabled %d rooms", n)
	}
	if *reset {
		ds, n, err := s.resetAllocations(ctx)
		if err != nil {
			log.Fatalf("reset: %v", err)
		}
		log.Printf("reset %d allocations in %q; its students are pending", n, ds.Name)
	}

	// a running server may still hold cached room or status pages
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		middleware.NewResponseCache(config.LoadCacheConfig(), rdb).Invalidate(ctx)
		_ = rdb.Close()
	}
}
