package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/LukhazD/pyform-sub000/internal/config"
	"github.com/LukhazD/pyform-sub000/internal/database"
	"github.com/LukhazD/pyform-sub000/internal/mq"
	"github.com/LukhazD/pyform-sub000/internal/submission"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.Connect(cfg.PostgresDSN)
	if err := db.AutoMigrate(&submission.Record{}, &submission.FormStats{}); err != nil {
		log.Fatalf("worker: failed to run migrations: %v", err)
	}

	store := submission.NewGormStore(db)
	worker := submission.NewWorker(store)

	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Brokers: cfg.Brokers(),
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroupID,
	}, worker.HandleEvent)
	if err != nil {
		log.Fatalf("worker: failed to create consumer: %v", err)
	}
	defer consumer.Close()

	log.Printf("worker consuming topic=%s group=%s", cfg.KafkaTopic, cfg.KafkaGroupID)

	if err := worker.RunConsumer(ctx, consumer); err != nil && err != context.Canceled {
		log.Fatalf("worker stopped: %v", err)
	}

	log.Println("worker stopped")
}
