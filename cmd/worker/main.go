package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/suPer8Hu/intake-chat/internal/analytics"
	"github.com/suPer8Hu/intake-chat/internal/config"
	"github.com/suPer8Hu/intake-chat/internal/db"
	"github.com/suPer8Hu/intake-chat/internal/events"
	"github.com/suPer8Hu/intake-chat/internal/store/rabbitmq"
)

const (
	maxAttempts = 3
	retryDelay  = 5 * time.Second
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	cfg := config.Load()

	if cfg.RabbitURL == "" {
		slog.Error("RABBIT_URL is required for the worker")
		os.Exit(1)
	}

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	repo := analytics.NewRepo(gdb)
	if err := repo.Migrate(); err != nil {
		slog.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		slog.Error("rabbit dial failed", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		slog.Error("rabbit channel failed", "err", err)
		os.Exit(1)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		slog.Error("queue declare failed", "err", err)
		os.Exit(1)
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		slog.Error("qos failed", "err", err)
		os.Exit(1)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		slog.Error("consume failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)
	// the channel is shared by all workers for retry publishes
	var pubMu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				handleDelivery(ctx, workerID, repo, d, func(attempt int) error {
					pubMu.Lock()
					defer pubMu.Unlock()
					return rabbitmq.Retry(ctx, ch, cfg.RabbitQueue, d, attempt, retryDelay)
				})
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				slog.Warn("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

// handleDelivery persists one event. Bad payloads go straight to the DLQ;
// store failures are retried through the retry queue up to maxAttempts.
func handleDelivery(ctx context.Context, workerID int, repo *analytics.Repo, d amqp.Delivery, retry func(attempt int) error) {
	var ev events.Event
	if err := json.Unmarshal(d.Body, &ev); err != nil || ev.ID == "" || ev.Type == "" {
		slog.Warn("bad event message", "worker", workerID, "err", err)
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	inserted, err := repo.Persist(ctx, ev)
	if err != nil {
		attempt := rabbitmq.Attempt(d) + 1
		slog.Error("persist event failed",
			"worker", workerID, "event_id", ev.ID, "attempt", attempt, "cost", time.Since(start), "err", err)

		if attempt < maxAttempts {
			rerr := retry(attempt)
			if rerr == nil {
				_ = d.Ack(false)
				return
			}
			slog.Error("retry publish failed", "event_id", ev.ID, "err", rerr)
		}
		_ = d.Nack(false, false)
		return
	}

	if !inserted {
		slog.Info("duplicate event skipped", "worker", workerID, "event_id", ev.ID)
	}
	if err := d.Ack(false); err != nil {
		slog.Error("ack failed", "worker", workerID, "event_id", ev.ID, "err", err)
	}
}
