package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/proximachat/proxima/internal/ai"
	"github.com/proximachat/proxima/internal/chat"
	"github.com/proximachat/proxima/internal/config"
	"github.com/proximachat/proxima/internal/db"
	"github.com/proximachat/proxima/internal/httpapi"
	"github.com/proximachat/proxima/internal/httpapi/handlers"
	"github.com/proximachat/proxima/internal/library"
	"github.com/proximachat/proxima/internal/models"
	"github.com/proximachat/proxima/internal/store/rabbitmq"
	"github.com/proximachat/proxima/internal/store/redisstore"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	if err := gdb.AutoMigrate(&models.User{}, &library.File{}, &library.Chunk{}, &library.Job{}, &chat.Entry{}); err != nil {
		log.Fatalf("automigrate: %v", err)
	}

	provider := ai.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel)

	libRepo := library.NewRepo(gdb)
	libSvc := library.NewService(libRepo, provider, cfg.UploadDir, cfg.MaxFiles)

	chatRepo := chat.NewRepo(gdb)
	chatSvc := chat.NewService(chatRepo, libSvc, provider, cfg.RetrieverTopK, cfg.HistoryWindow)

	var rds *redisstore.Store
	if cfg.RedisAddr != "" {
		rds = redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rds.Close()
	}

	var rabbit *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Printf("rabbit unavailable, async processing disabled: %v", err)
		} else {
			rabbit = p
			defer rabbit.Close()
		}
	}

	h := handlers.NewHandler(gdb, cfg, libSvc, chatSvc, rds, rabbit)
	r := httpapi.NewRouter(h)

	log.Printf("server listening addr=%s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
