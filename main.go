package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/quickly-call/auth"
	"github.com/danielhkuo/quickly-call/cliparse"
	"github.com/danielhkuo/quickly-call/coordinator"
	"github.com/danielhkuo/quickly-call/db"
	"github.com/danielhkuo/quickly-call/display"
	"github.com/danielhkuo/quickly-call/handlers"
	"github.com/danielhkuo/quickly-call/issuance"
	"github.com/danielhkuo/quickly-call/middleware"
	"github.com/danielhkuo/quickly-call/notify"
	"github.com/danielhkuo/quickly-call/render"
	"github.com/danielhkuo/quickly-call/retry"
	"github.com/danielhkuo/quickly-call/router"
	"github.com/danielhkuo/quickly-call/sequence"
	"github.com/danielhkuo/quickly-call/store"
	"github.com/danielhkuo/quickly-call/store/filestore"
	"github.com/danielhkuo/quickly-call/store/redisstore"
	"github.com/danielhkuo/quickly-call/store/sqlstore"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Ledger database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL, cfg.ClaimTimeout)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Queue state
	queue, err := openStore(cfg, dbConn)
	if err != nil {
		slog.Error("queue state store failed", "store", cfg.StoreType, "error", err)
		os.Exit(1)
	}
	defer queue.Close()
	slog.Info("Queue state ready", "store", cfg.StoreType)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := retry.DefaultPolicy()
	policy.MaxTries = uint(cfg.ClaimRetries)

	ledger := issuance.NewLedger(dbConn)
	allocator, err := sequence.New(ctx, ledger, queue, sequence.Options{Retry: policy})
	if err != nil {
		slog.Error("sequence recovery failed", "error", err)
		os.Exit(1)
	}

	if cfg.PrintKeys {
		if err := auth.WriteRoomKeys(os.Stdout, cfg.Rooms, cfg.RoomKeySalt); err != nil {
			slog.Error("print room keys", "error", err)
		}
	}

	renderer := render.NewLog(slog.Default())
	var actors sync.WaitGroup

	// One coordinator per room, each on its own refresh loop
	rooms := make([]*coordinator.Room, 0, len(cfg.Rooms))
	for _, name := range cfg.Rooms {
		room := coordinator.New(name, queue, ledger, renderer, coordinator.Options{Retry: policy})
		rooms = append(rooms, room)
		slog.Info("room ready", "room", name)

		actors.Add(1)
		go func() {
			defer actors.Done()
			room.Run(ctx)
		}()
	}

	h := router.Handlers{
		Station: handlers.NewStationHandler(allocator, ledger, nil),
		Rooms:   handlers.NewRoomHandler(rooms, cfg),
	}

	var scheduler *notify.Scheduler
	if cfg.Display {
		scheduler = notify.New(renderer, notify.Options{
			Blinks:   cfg.BlinkCount,
			Interval: cfg.BlinkInterval,
			Sound:    cfg.SoundFile,
			Player:   notify.CommandPlayer{Command: cfg.SoundCommand},
		})
		aggregator := display.New(queue, renderer, scheduler, display.Options{Interval: cfg.PollInterval})
		h.Display = handlers.NewDisplayHandler(aggregator, renderer)

		actors.Add(1)
		go func() {
			defer actors.Done()
			aggregator.Run(ctx)
		}()
	}

	server := http.Server{
		Handler: middleware.CORS(router.NewRouter(h)),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown", "error", err)
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "rooms", len(rooms), "display", cfg.Display)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
		stop()
	} else {
		slog.Info("Server closed")
	}

	actors.Wait()
	if scheduler != nil {
		scheduler.Wait()
	}
}

// openStore selects the queue state backend.
func openStore(cfg cliparse.Config, conn *sql.DB) (store.Store, error) {
	switch cfg.StoreType {
	case cliparse.StoreSQL:
		return sqlstore.New(conn, cfg.DatabaseType, cfg.ClaimTimeout), nil
	case cliparse.StoreFile:
		return filestore.Open(cfg.StatePath, cfg.ClaimTimeout)
	case cliparse.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ClaimTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return redisstore.New(client, "quickly-call", cfg.ClaimTimeout), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.StoreType)
	}
}
