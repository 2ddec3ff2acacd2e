package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LukhazD/pyform-sub000/internal/config"
	"github.com/LukhazD/pyform-sub000/internal/database"
	"github.com/LukhazD/pyform-sub000/internal/editor"
	"github.com/LukhazD/pyform-sub000/internal/form"
	"github.com/LukhazD/pyform-sub000/internal/httpx"
	"github.com/LukhazD/pyform-sub000/internal/module"
	"github.com/LukhazD/pyform-sub000/internal/mq"
	"github.com/LukhazD/pyform-sub000/internal/observability"
	"github.com/LukhazD/pyform-sub000/internal/session"
	"github.com/LukhazD/pyform-sub000/internal/snapshot"
	"github.com/LukhazD/pyform-sub000/internal/submission"
	"github.com/LukhazD/pyform-sub000/internal/upload"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.Connect(cfg.PostgresDSN)
	if err := db.AutoMigrate(&form.Form{}, &module.Record{}, &submission.Record{}, &submission.FormStats{}); err != nil {
		log.Fatalf("pyform: failed to run migrations: %v", err)
	}

	snapshots, err := snapshot.Open(cfg.SnapshotDir)
	if err != nil {
		log.Fatalf("pyform: failed to open snapshot store: %v", err)
	}
	defer snapshots.Close()

	var producer *mq.Producer
	if len(cfg.Brokers()) > 0 {
		producer, err = mq.NewProducer(mq.ProducerConfig{
			Brokers: cfg.Brokers(),
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			log.Printf("pyform: submission events disabled: %v", err)
			producer = nil
		} else {
			defer producer.Close()
		}
	}

	formRepo := form.NewGormRepository(db)
	moduleRepo := module.NewGormRepository(db)
	submissionStore := submission.NewGormStore(db)
	coordinator := submission.NewCoordinator(submissionStore, producer)

	sessions := session.NewManager(formRepo, moduleRepo, snapshots, coordinator, session.Config{
		Cooldown: cfg.NavigationCooldown,
	})
	editors := editor.NewManager(formRepo, moduleRepo, cfg.AutosaveDebounce)

	server := httpx.New()
	form.NewHandler(formRepo).Mount(server.Router, "")
	module.NewHandler(moduleRepo).Mount(server.Router, "")
	editor.NewHandler(editors).Mount(server.Router, "")
	session.NewHandler(sessions).Mount(server.Router, "")
	submission.NewHandler(submissionStore).Mount(server.Router, "")

	if cfg.UploadSigningKey != "" {
		signer, err := upload.NewHMACSigner(cfg.UploadBaseURL, cfg.UploadSigningKey, cfg.UploadTTL)
		if err != nil {
			log.Fatalf("pyform: failed to build upload signer: %v", err)
		}
		upload.NewHandler(signer).Mount(server.Router, "")
	} else {
		log.Printf("pyform: UPLOAD_SIGNING_KEY not set, presigned uploads disabled")
	}

	ops := observability.NewOpsEngine()
	go func() {
		addr := fmt.Sprintf(":%s", cfg.OpsPort)
		log.Printf("pyform ops listening on %s", addr)
		if err := ops.Run(addr); err != nil {
			log.Printf("pyform ops stopped: %v", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.HTTPPort)
		log.Printf("pyform listening on %s", addr)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("pyform stopped: %v", err)
		}
	}()

	<-ctx.Done()

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	editors.FlushAll(flushCtx)

	if err := server.Shutdown(flushCtx); err != nil {
		log.Printf("pyform: shutdown: %v", err)
	}
	log.Println("pyform stopped")
}
