package bootstrap

import (
	"context"
	"log"
	"os"

	"ai-flashdeck-be/internal/config"
	"ai-flashdeck-be/internal/controller"
	"ai-flashdeck-be/internal/pkg/logger"
	"ai-flashdeck-be/internal/repository/contract"
	"ai-flashdeck-be/internal/repository/implementation"
	"ai-flashdeck-be/internal/repository/memory"
	"ai-flashdeck-be/internal/service"
	"ai-flashdeck-be/internal/websocket"
	"ai-flashdeck-be/pkg/cardgen"
	"ai-flashdeck-be/pkg/deck"
	"ai-flashdeck-be/pkg/extractor"
	"ai-flashdeck-be/pkg/llm/factory"

	pktNats "ai-flashdeck-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	DeckController     controller.IDeckController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// Redis (shared by the redis store backend and the websocket hub relay)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// Durable KV store backend
	var store contract.Store
	switch cfg.Store.Backend {
	case "redis":
		if rdb == nil {
			log.Fatalf("[FATAL] STORE_BACKEND=redis requires REDIS_URL")
		}
		store = implementation.NewRedisStore(rdb)
		log.Printf("[INFO] Using Store Backend: REDIS")
	case "postgres":
		if db == nil {
			log.Fatalf("[FATAL] STORE_BACKEND=postgres requires DB_CONNECTION_STRING")
		}
		store = implementation.NewGormStore(db)
		log.Printf("[INFO] Using Store Backend: POSTGRES")
	default:
		store = memory.NewMemoryStore()
		log.Printf("[INFO] Using Store Backend: MEMORY")
	}

	// NATS (best effort; the app works without realtime push)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/deck_events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 3. Domain
	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	generator := cardgen.NewGenerator(llmProvider)
	sessionRepo := memory.NewSessionRepository()
	machine := deck.NewManager(log.New(os.Stdout, "", log.LstdFlags))
	textExtractor := extractor.New()

	publisherService := service.NewPublisherService(cfg.App.SnapshotTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.SnapshotTopic,
		sessionRepo,
		machine,
		store,
	)

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	deckService := service.NewDeckService(
		sessionRepo,
		machine,
		generator, // Injected
		store,
		publisherService,
		eventPublisher,
		sysLogger,
	)

	notificationService := service.NewNotificationService(natsSub, wsHub, wsLogger)

	// 4. Controllers
	documentController := controller.NewDocumentController(deckService, textExtractor)
	deckController := controller.NewDeckController(deckService, wsHub)

	return &Container{
		DocumentController:  documentController,
		DeckController:      deckController,
		ConsumerService:     consumerService,
		NotificationService: notificationService,
		WebSocketHub:        wsHub,
	}
}
