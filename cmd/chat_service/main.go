package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"smartchat/internal/chat_service/api"
	"smartchat/internal/chat_service/escalation"
	"smartchat/internal/chat_service/qa"
	"smartchat/internal/chat_service/rag/index"
	"smartchat/internal/chat_service/rag/loaders"
	"smartchat/internal/chat_service/rag/splitters"
	"smartchat/internal/chat_service/rag/storages/vectorstore"
	"smartchat/internal/chat_service/service"
	"smartchat/internal/chat_service/store"
	"smartchat/internal/config"
	"smartchat/internal/database/milvus"
	"smartchat/internal/database/mysql"
	"smartchat/internal/email"
	"smartchat/internal/embedding"
	"smartchat/internal/llm"
	"smartchat/pkg/logger"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(cfg.App.Name, "", "")
	appLogger.Info("Starting chat service...")

	ctx := context.Background()

	// Relational persistence is optional. Without it the chatbot still
	// answers, it just cannot remember users or record exchanges.
	var historyStore *store.Store
	var history service.HistoryStore
	if cfg.Databases.MySQL.Address != "" {
		db, err := mysql.Open(&cfg.Databases.MySQL)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		historyStore = store.New(db)
		if err := historyStore.Migrate(); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
		history = historyStore
	} else {
		appLogger.Warn("MySQL address not configured, user persistence disabled")
	}

	// Vector storage: Milvus when configured, otherwise an in-process store
	// for local development.
	var vstore vectorstore.VectorStore
	if cfg.Databases.Milvus.Address != "" {
		milvusClient, err := milvus.Connect(ctx, &cfg.Databases.Milvus)
		if err != nil {
			log.Fatalf("Failed to connect to Milvus: %v", err)
		}
		defer milvusClient.Close()
		if err := milvusClient.EnsureCollection(ctx); err != nil {
			log.Fatalf("Failed to ensure Milvus collection: %v", err)
		}
		vstore, err = vectorstore.NewMilvusStore(milvusClient, appLogger)
		if err != nil {
			log.Fatalf("Failed to create Milvus vector store: %v", err)
		}
	} else {
		appLogger.Warn("Milvus address not configured, using in-memory vector store")
		vstore = vectorstore.NewInMemoryStore()
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	completer, err := llm.NewCompleter(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create completion client: %v", err)
	}

	table, err := qa.Load(cfg.Chatbot.QuestionsFile)
	if err != nil {
		log.Fatalf("Failed to load question table: %v", err)
	}
	appLogger.WithPayload(map[string]interface{}{"questions": table.Len()}).Info("Question table loaded")

	splitter := splitters.NewWordSplitter(cfg.Chatbot.ChunkSize)
	crawler := loaders.NewSiteCrawler(
		cfg.Crawler.BaseURL,
		cfg.Crawler.Paths,
		splitter,
		cfg.Crawler.ParsedFetchTimeout(),
		cfg.Crawler.ParsedFetchDelay(),
		cfg.Crawler.UserAgent,
		appLogger,
	)

	contentIndex := index.New(embedder, vstore, appLogger)
	detector := escalation.NewDetector(cfg.Chatbot.EscalationPhrases)
	resolver := service.NewResolver(table, contentIndex, crawler, completer, detector, history, cfg.LLM, cfg.Chatbot, appLogger)

	// Cold start: fill an empty index so the first question already has
	// content to retrieve against.
	if err := resolver.Bootstrap(ctx, cfg.Chatbot.BootstrapMaxPages); err != nil {
		appLogger.WithError(err).Warn("Bootstrap crawl failed, continuing with empty index")
	}

	mailer := email.NewSender(cfg.SMTP)
	handler := api.NewHandler(resolver, historyStore, mailer, cfg.App.Name, cfg.Chatbot.BootstrapMaxPages)
	router := api.SetupRouter(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		appLogger.Info("HTTP server listening at " + cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server shutdown failed")
	}
	appLogger.Info("Server gracefully stopped")
}
