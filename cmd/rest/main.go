package main

import (
	"context"
	"log"

	"gorm.io/gorm"

	"ai-flashdeck-be/internal/bootstrap"
	"ai-flashdeck-be/internal/config"
	"ai-flashdeck-be/internal/server"
	"ai-flashdeck-be/internal/tracer"
	"ai-flashdeck-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (only needed for the postgres store backend)
	var gormDB *gorm.DB
	if cfg.Store.Backend == "postgres" {
		db, err := database.NewGormDBFromDSN(cfg.Store.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	// Note: In a larger app, we might use an errgroup or supervisor here
	go func() {
		log.Println("Background: Starting Snapshot Consumer...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()
	if err := container.NotificationService.Start(); err != nil {
		log.Printf("Background Notification Error: %v", err)
	}
	go container.WebSocketHub.Run()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
