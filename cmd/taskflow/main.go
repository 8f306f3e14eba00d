package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"taskflow/internal/bot"
	"taskflow/internal/config"
	"taskflow/internal/notify"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	now := func() time.Time { return time.Now().In(cfg.Location) }

	collection := repository.NewCollection(repository.NewEntryRepository(db), cfg.StorageKey)
	notificationRepo := repository.NewNotificationRepository(db)
	scheduler := service.NewSchedulerService(cfg.Location)

	// The dispatcher needs the bot as its sink and the bot needs the store,
	// which needs the dispatcher; the relay closes the loop.
	sink := &sinkRelay{}
	dispatcher := notify.NewDispatcher(notificationRepo, scheduler, sink)
	reminders := service.NewReminderScheduler(dispatcher, now)
	store := service.NewTaskStore(collection, reminders, service.WithClock(now))
	if err := store.Initialize(ctx); err != nil {
		log.Fatalf("task store: %v", err)
	}

	digest := service.NewDigestService(store)
	telegramBot, err := bot.New(cfg.TelegramToken, cfg.OwnerChatID, store, digest, now)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}
	sink.target = telegramBot

	armed, err := dispatcher.Restore(ctx, now(), store.LiveHandles())
	if err != nil {
		log.Printf("restore notifications: %v", err)
	} else {
		log.Printf("[info] restored %d notifications", armed)
	}

	if cfg.DigestTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.DigestTime, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDigest(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("digest: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule digest: %v", err)
		}
	}
	scheduler.Start()

	botCtx, stopBot := context.WithCancel(ctx)
	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		if err := telegramBot.Start(botCtx); err != nil {
			log.Printf("bot stopped with error: %v", err)
		}
	}()

	log.Println("TaskFlow started.")

	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"telegram": func(ctx context.Context) error {
			stopBot()
			select {
			case <-botDone:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		"scheduler": func(_ context.Context) error {
			scheduler.Stop()
			return nil
		},
	})

	exitCode := <-wait
	store.Dispose()
	if err := sqlDB.Close(); err != nil {
		log.Printf("close db: %v", err)
	}
	log.Printf("Shutdown complete, exit code %d.", exitCode)
	os.Exit(exitCode)
}
