package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/proximachat/proxima/internal/ai"
	"github.com/proximachat/proxima/internal/config"
	"github.com/proximachat/proxima/internal/db"
	"github.com/proximachat/proxima/internal/library"
	amqp "github.com/rabbitmq/amqp091-go"
)

type jobMsg struct {
	JobID string `json:"job_id"`
}

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	provider := ai.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel)
	repo := library.NewRepo(gdb)
	svc := library.NewService(repo, provider, cfg.UploadDir, cfg.MaxFiles)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	// args must match the publisher's declaration
	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	})
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m jobMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := svc.RunJob(ctx, m.JobID); err != nil {
					log.Printf("worker=%d job %s failed cost=%s err=%v", workerID, m.JobID, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed job=%s err=%v", workerID, m.JobID, err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}
