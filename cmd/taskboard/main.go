package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"taskboard/internal/bot"
	"taskboard/internal/category"
	"taskboard/internal/config"
	"taskboard/internal/metrics"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	kvRepo := repository.NewKVRepository(db)
	sessions := session.NewManager(func(chatID int64) category.KV {
		return kvRepo.Scope(strconv.FormatInt(chatID, 10))
	}, time.Now)

	m := metrics.New()
	telegramBot, err := bot.New(&cfg, bot.Deps{
		Sessions:   sessions,
		Tasks:      service.NewTaskService(m),
		Categories: service.NewCategoryService(m),
		Reminders:  service.NewReminderService(),
		Metrics:    m,
	})
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(m),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("[info] metrics listening on %s", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("metrics shutdown: %v", err)
			}
		}()
	}

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("report: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule reports: %v", err)
		}
	}
	if cfg.DailyReportTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.DailyReportTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("daily report: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule daily report: %v", err)
		}
	}
	if _, err := scheduler.ScheduleInterval(time.Hour, func() {
		if n := sessions.Prune(cfg.SessionIdle); n > 0 {
			log.Printf("[info] pruned %d idle sessions", n)
		}
		m.SetSessions(sessions.Len())
	}); err != nil {
		log.Fatalf("schedule prune: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Taskboard bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})
	return mux
}
