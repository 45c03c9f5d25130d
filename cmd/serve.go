package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Chamindu77/SFBS-Backend/internal/artifact"
	"github.com/Chamindu77/SFBS-Backend/internal/config"
	"github.com/Chamindu77/SFBS-Backend/internal/db"
	"github.com/Chamindu77/SFBS-Backend/internal/grpcserver"
	"github.com/Chamindu77/SFBS-Backend/internal/handlers"
	"github.com/Chamindu77/SFBS-Backend/internal/lock"
	"github.com/Chamindu77/SFBS-Backend/internal/model"
	"github.com/Chamindu77/SFBS-Backend/internal/mq"
	"github.com/Chamindu77/SFBS-Backend/internal/notify"
	"github.com/Chamindu77/SFBS-Backend/internal/obs"
	"github.com/Chamindu77/SFBS-Backend/internal/repository"
	"github.com/Chamindu77/SFBS-Backend/internal/service"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	// 1. Конфиг приложения и БД из env (+ .env).
	app, err := config.Load()
	if err != nil {
		return err
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		return err
	}
	catalog, err := app.Catalog()
	if err != nil {
		return fmt.Errorf("slot catalog: %w", err)
	}

	shutdownTracer, err := obs.InitTracer("sfbs-core", app.Env, app.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	// 2. БД + миграции.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}
	defer sqlDB.Close()

	// 3. Репозитории.
	bookingRepo := repository.NewGormBookingRepository(gormDB)
	facilityRepo := repository.NewGormFacilityRepository(gormDB)

	// 4. Инфраструктура вокруг бронирования: лок, файлы, уведомления.
	locker, closeLocker, err := buildLocker(ctx, app)
	if err != nil {
		return err
	}
	defer closeLocker()

	store, err := artifact.NewLocalStore(app.UploadDir, app.PublicBaseURL)
	if err != nil {
		return err
	}

	notifier, closeNotifier, err := buildNotifier(app)
	if err != nil {
		return err
	}
	defer closeNotifier()

	// 5. Сервисы.
	admitter := service.NewAdmitter(bookingRepo, locker, artifact.NewQRGenerator(store), notifier)
	bookingSvc := service.NewBookingService(
		service.NewValidator(catalog, service.RealClock{}),
		service.NewAvailabilityResolver(catalog, bookingRepo, facilityRepo),
		admitter, bookingRepo, facilityRepo, store,
	)
	facilitySvc := service.NewFacilityService(facilityRepo, store)

	// 6. HTTP + gRPC.
	httpSrv := &http.Server{
		Addr: app.HTTPAddr,
		Handler: handlers.NewRouter(handlers.Deps{
			Bookings:   bookingSvc,
			Facilities: facilitySvc,
			JWTSecret:  app.JWTSecret,
			UploadDir:  store.Dir(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv := grpcserver.New(sqlDB, 10*time.Second)
	lis, err := net.Listen("tcp", app.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.GRPCAddr, err)
	}
	go grpcSrv.Watch(ctx)

	errCh := make(chan error, 2)
	go func() {
		log.Printf("[http] listening on %s", app.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	// 7. Грейсфул-шатдаун по сигналу или падению одного из серверов.
	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Println("shutting down...")
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		log.Printf("[http] shutdown: %v", err)
	}
	grpcSrv.GracefulStop()

	// дожидаемся фоновых уведомлений по уже принятым бронированиям
	admitter.Wait()
	return serveErr
}

// buildLocker returns the Redis lock when REDIS_ADDR is set and the
// in-process lock otherwise.
func buildLocker(ctx context.Context, app config.App) (lock.Locker, func(), error) {
	if app.RedisAddr == "" {
		log.Printf("[lock] REDIS_ADDR not set, using in-process lock")
		return lock.NewMemoryLocker(), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     app.RedisAddr,
		Password: app.RedisPassword,
		DB:       app.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return lock.NewRedisLocker(rdb, app.LockTTL), func() { _ = rdb.Close() }, nil
}

// buildNotifier publishes confirmations to RabbitMQ when RABBIT_URL is set,
// mirrors them to the staff Telegram chat when a bot token is set, and falls
// back to logging.
func buildNotifier(app config.App) (notify.Notifier, func(), error) {
	var (
		multi   notify.Multi
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if app.RabbitURL != "" {
		pub, err := mq.NewPublisher(app.RabbitURL, app.BookingExchange)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = pub.Close() })
		multi = append(multi, notify.NewMQNotifier(pub))
	}
	if app.TelegramBotToken != "" {
		bot, err := tgbotapi.NewBotAPI(app.TelegramBotToken)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("telegram bot: %w", err)
		}
		multi = append(multi, notify.NewTelegramNotifier(bot, app.TelegramStaffChatID))
	}
	if len(multi) == 0 {
		return notify.LogNotifier{}, closeAll, nil
	}
	return multi, closeAll, nil
}
