package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/akash27nik/Chat-App/internal/auth"
	"github.com/akash27nik/Chat-App/internal/chat"
	"github.com/akash27nik/Chat-App/internal/config"
	"github.com/akash27nik/Chat-App/internal/conversations"
	"github.com/akash27nik/Chat-App/internal/messages"
	"github.com/akash27nik/Chat-App/internal/presence"
	"github.com/akash27nik/Chat-App/internal/profile"
	"github.com/akash27nik/Chat-App/internal/status"
	"github.com/akash27nik/Chat-App/internal/storage/postgres"
	"github.com/akash27nik/Chat-App/internal/storage/sqlite"
	"github.com/akash27nik/Chat-App/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const schemaPath = "sql/schema.sql"

func main() {
	fmt.Println("Entry point of ChatApp")
	migrate := flag.Bool("migrate", false, "run migrations and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "err", err)
	}
	cfg := config.MustLoad()

	db, migrateFn, closeFn, err := openDB(cfg)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	defer closeFn()

	if *migrate {
		if err := migrateFn(schemaPath); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		slog.Info("migration completed")
		return
	}

	registry := presence.NewRegistry()
	registry.LastSeen = users.LastSeen{DB: db}
	hub := chat.NewHub(registry)

	convStore := conversations.New(db)
	msgStore := messages.NewStore(db)
	delivery := messages.NewDelivery(db, registry, hub)
	stEngine := status.NewEngine(status.NewStore(db), hub)

	// Client-originated delivery signals arriving over the websocket.
	hub.MarkSeen = func(senderID, receiverID int64) {
		if _, err := delivery.MarkSeen(context.Background(), senderID, receiverID); err != nil {
			slog.Warn("ws markSeen failed", "sender_id", senderID, "receiver_id", receiverID, "err", err)
		}
	}
	hub.MarkDelivered = func(senderID, receiverID int64) {
		if _, err := delivery.MarkDelivered(context.Background(), senderID, receiverID); err != nil {
			slog.Warn("ws markDelivered failed", "sender_id", senderID, "receiver_id", receiverID, "err", err)
		}
	}

	r := gin.Default()

	api := r.Group("/api")
	users.RegisterPublic(api.Group("/auth"), db, cfg)

	authed := api.Group("")
	authed.Use(auth.JWTMiddleware(cfg.JWTSecret))
	profile.Register(authed, db, convStore)
	messages.Register(authed, msgStore, convStore, delivery, hub)
	status.Register(authed, stEngine)

	chat.RegisterWS(&r.RouterGroup, hub, cfg.JWTSecret)

	slog.Info("listening", "addr", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func openDB(cfg config.Config) (*sql.DB, func(string) error, func() error, error) {
	switch cfg.DBDriver {
	case "postgres":
		pg, err := postgres.New(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return pg.Db, pg.Migrate, pg.Db.Close, nil
	default:
		sq, err := sqlite.New(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return sq.Db, sq.Migrate, sq.Db.Close, nil
	}
}
