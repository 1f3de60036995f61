package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mehmetcanozen/minilink-sub001/internal/cache"
	"github.com/mehmetcanozen/minilink-sub001/internal/config"
	"github.com/mehmetcanozen/minilink-sub001/internal/queue"
	"github.com/mehmetcanozen/minilink-sub001/internal/shortcode"
)

const jobQueueName = "minilink:jobs"

// Worker that processes short-code pool replenishment jobs.
func main() {
	log.Println("Starting replenishment worker...")

	_ = godotenv.Load()
	cfg := config.Load()

	redisClient, err := cache.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()

	jobs := queue.NewClient(redisClient.Client, jobQueueName)
	generator := shortcode.NewGenerator(&cfg.Pool)
	pool := shortcode.NewPool(redisClient, jobs, cfg.Pool.MinPoolSize, cfg.Pool.MaxPoolSize, cfg.Pool.EntryTTLSeconds)
	replenisher := shortcode.NewReplenisher(generator, pool)

	log.Println("Connections established. Worker ready to process jobs.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	stopChan := make(chan bool)

	go processJobs(jobs, replenisher, stopChan)

	<-sigChan
	log.Println("Received interrupt signal. Shutting down worker...")
	close(stopChan)

	// Give the in-flight job a moment to finish
	time.Sleep(2 * time.Second)
	log.Println("Worker stopped.")
}

// processJobs consumes the job queue until stopped.
func processJobs(jobs *queue.Client, replenisher *shortcode.Replenisher, stopChan chan bool) {
	ctx := context.Background()

	for {
		select {
		case <-stopChan:
			log.Println("Stopping job processing...")
			return
		default:
			job, err := jobs.Dequeue(ctx, 5*time.Second)
			if err != nil {
				if errors.Is(err, redis.Nil) {
					// Timeout, keep polling
					continue
				}
				log.Printf("Failed to read from queue: %v", err)
				time.Sleep(1 * time.Second)
				continue
			}

			handleJob(ctx, replenisher, job)
		}
	}
}

func handleJob(ctx context.Context, replenisher *shortcode.Replenisher, job *queue.Job) {
	log.Printf("Processing job %s (%s)", job.ID, job.Type)

	switch job.Type {
	case shortcode.ReplenishJobType:
		if err := replenisher.HandleReplenish(ctx, job.Payload); err != nil {
			log.Printf("Failed to process job %s: %v", job.ID, err)
			// At-least-once: the next watermark check re-enqueues the
			// deficit, so no explicit retry here
		}
	default:
		log.Printf("Unknown job type %q, dropping job %s", job.Type, job.ID)
	}
}
