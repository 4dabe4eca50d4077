package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/admin-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/admin-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/admin-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/admin-backend/internal/infrastructure/auth"
	"github.com/DRSN-tech/admin-backend/internal/infrastructure/jobs"
	"github.com/DRSN-tech/admin-backend/internal/infrastructure/kafka"
	"github.com/DRSN-tech/admin-backend/internal/infrastructure/mailer"
	minioInfra "github.com/DRSN-tech/admin-backend/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/admin-backend/internal/repository/minio"
	"github.com/DRSN-tech/admin-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/admin-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/admin-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/admin-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/clients"
	"github.com/DRSN-tech/admin-backend/pkg/closer"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/DRSN-tech/admin-backend/pkg/postgres"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"golang.org/x/crypto/bcrypt"
)

const (
	shutdownTimeout = 15 * time.Second
	initTimeout     = 10 * time.Second
)

// App собирает зависимости и управляет жизненным циклом HTTP, gRPC и фоновых воркеров.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	// bgCtx отменяется первым при остановке: по нему завершаются воркеры и cron.
	bgCtx    context.Context
	bgCancel context.CancelFunc

	httpSrv      *v1Http.Server
	grpcSrv      *v1Grpc.GRPCServer
	runner       *jobs.Runner
	relay        *jobs.OutboxRelay
	cron         *jobs.CronScheduler
	outbox       *kafka.OutboxWorker // nil, если Kafka не настроена
	healthChecks map[string]v1Grpc.Checker
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      cfg,
		logger:   log,
		closer:   closer.NewCloser(0),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}

	if err := a.init(); err != nil {
		bgCancel()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := a.closer.Close(ctx); cerr != nil {
			log.Warnf("partial init cleanup: %v", cerr)
		}
		return nil, err
	}

	return a, nil
}

func (a *App) init() error {
	log := a.logger
	cfg := a.cfg
	loc := cfg.Jobs.Timezone

	db, err := initPGDB(log, cfg)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("postgres", func(_ context.Context) error {
		db.Close()
		log.Infof("PostgreSQL pool closed")
		return nil
	})

	txManager := manager.Must(trmpgx.NewDefaultFactory(db.Pool))

	adminConv := pgdbConv.NewAdminConverterImpl()
	catConv := pgdbConv.NewCategoryConverterImpl()
	prConv := pgdbConv.NewProductConverterImpl()
	imgConv := pgdbConv.NewProductImageConverterImpl()
	linkConv := pgdbConv.NewProductCategoryConverterImpl()
	custConv := pgdbConv.NewCustomerConverterImpl()
	purchaseConv := pgdbConv.NewPurchaseConverterImpl()
	auditConv := pgdbConv.NewAuditLogConverterImpl()
	outboxConv := pgdbConv.NewOutboxEventConverterImpl()

	adminRepo := pgdb.NewAdminRepo(db.Pool, adminConv)
	categoryRepo := pgdb.NewCategoryRepo(db.Pool, catConv)
	productRepo := pgdb.NewProductRepo(db.Pool, prConv, catConv, imgConv)
	linkRepo := pgdb.NewProductCategoryRepo(db.Pool, linkConv)
	productImageRepo := pgdb.NewProductImageRepo(db.Pool, imgConv)
	customerRepo := pgdb.NewCustomerRepo(db.Pool, custConv)
	purchaseRepo := pgdb.NewPurchaseRepo(db.Pool, purchaseConv, custConv, prConv)
	auditRepo := pgdb.NewAuditLogRepo(db.Pool, auditConv)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)

	minioClient, err := initMinIO(cfg.Minio)
	if err != nil {
		log.Errorf(err, "failed to initialize MinIO")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	// Очистка загруженных объектов переживает остановку серверов и прерывается только по таймауту завершения.
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	imagesInfra := minioInfra.NewMinioInfrastructure(s3Repo.NewImageRepo(minioClient), cfg.Minio, log, cleanupCtx)
	a.closer.Add("minio cleanup context", func(_ context.Context) error {
		cleanupCancel()
		return nil
	})

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), initTimeout)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		log.Errorf(err, "failed to connect to redis")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("redis", redisClient.Close)

	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, log)
	jobQueue := redis.NewJobQueueRepo(redisClient, redisConv.NewJobConverterImpl(), log)

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(log, cfg.Kafka)
		if err := producer.EnsureTopic(initTimeout); err != nil {
			// Топик мог быть создан заранее без прав на управление; события переждут в outbox.
			log.Warnf("failed to ensure kafka topic %s: %v", cfg.Kafka.Topic, err)
		}
		a.closer.Add("kafka producer", func(_ context.Context) error {
			return producer.Close()
		})
		a.outbox = kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)
	} else {
		log.Warnf("KAFKA_BROKERS is not set, purchase events stay in outbox")
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	mail := mailer.NewSMTPMailer(cfg.Mail, log)

	cron, err := jobs.NewCronScheduler(cfg.Jobs.DailyReportCron, loc, log)
	if err != nil {
		log.Errorf(err, "invalid DAILY_REPORT_CRON")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.cron = cron

	audit := usecase.NewAuditRecorder(auditRepo, log)
	authUC := usecase.NewAuthUC(adminRepo, hasher, tokens, log)
	productUC := usecase.NewProductUC(
		txManager,
		productRepo,
		categoryRepo,
		linkRepo,
		productImageRepo,
		purchaseRepo,
		auditRepo,
		imagesInfra,
		audit,
		cacheRepo,
		log,
	)
	categoryUC := usecase.NewCategoryUC(txManager, categoryRepo, linkRepo, auditRepo, audit, cacheRepo, log)
	customerUC := usecase.NewCustomerUC(txManager, customerRepo, cacheRepo, log)
	purchaseUC := usecase.NewPurchaseUC(
		txManager,
		purchaseRepo,
		productRepo,
		customerRepo,
		outboxRepo,
		cacheRepo,
		loc,
		log,
	)
	reportUC := usecase.NewReportUC(purchaseRepo, cacheRepo, loc, log)
	auditLogUC := usecase.NewAuditLogUC(auditRepo)
	schedulerUC := usecase.NewSchedulerUC(jobQueue, purchaseRepo, cron, loc, log)
	notificationUC := usecase.NewNotificationUC(reportUC, purchaseRepo, productRepo, customerRepo, adminRepo, mail, log)

	if err := cron.Register(a.bgCtx, schedulerUC.EnqueueYesterdayReport); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	seedCtx, seedCancel := context.WithTimeout(context.Background(), initTimeout)
	defer seedCancel()
	if err := authUC.SeedAdmin(seedCtx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName); err != nil {
		log.Errorf(err, "failed to seed default admin")
		return e.Wrap(whereami.WhereAmI(), err)
	}

	runner, err := jobs.NewRunner(jobQueue, jobs.NewDispatcher(notificationUC, loc), cfg.Jobs, log)
	if err != nil {
		log.Errorf(err, "failed to initialize job runner")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.runner = runner
	a.relay = jobs.NewOutboxRelay(outboxRepo, jobQueue, log)

	pingPostgres := func(ctx context.Context) error { return db.Pool.Ping(ctx) }
	pingMinIO := func(ctx context.Context) error {
		_, err := minioClient.BucketExists(ctx, cfg.Minio.BucketName)
		return err
	}

	health := v1Http.NewHealthHandler(map[string]v1Http.Pinger{
		"postgres": v1Http.PingFunc(pingPostgres),
		"redis":    redisClient,
		"minio":    v1Http.PingFunc(pingMinIO),
	})
	a.healthChecks = map[string]v1Grpc.Checker{
		"postgres": pingPostgres,
		"redis":    redisClient.Ping,
		"minio":    pingMinIO,
	}

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(&v1Http.UseCases{
		Auth:      authUC,
		Product:   productUC,
		Category:  categoryUC,
		Customer:  customerUC,
		Purchase:  purchaseUC,
		Report:    reportUC,
		AuditLog:  auditLogUC,
		Scheduler: schedulerUC,
	}, tokens, cfg.Minio, health)

	a.httpSrv = v1Http.NewServer(r, cfg.Http)
	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, log)

	// Закрываются в обратном порядке: сначала серверы, затем фоновые задачи, затем хранилища.
	a.closer.Add("minio cleanup", func(ctx context.Context) error {
		defer cleanupCancel()
		if err := imagesInfra.WaitForCleanup(ctx); err != nil {
			log.Warnf("MinIO cleanup did not finish, some objects may remain: %v", err)
			return nil
		}
		log.Infof("MinIO cleanup completed")
		return nil
	})
	a.closer.Add("background workers", func(ctx context.Context) error {
		a.cron.Stop(ctx)
		a.relay.Stop()
		a.runner.Stop()
		if a.outbox != nil {
			a.outbox.Stop()
		}
		log.Infof("Background workers stopped")
		return nil
	})
	a.closer.Add("background context", func(_ context.Context) error {
		a.bgCancel()
		return nil
	})
	a.closer.Add("grpc server", func(ctx context.Context) error {
		if err := a.grpcSrv.Stop(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				log.Warnf("gRPC server shutdown timeout")
				return nil
			}
			return err
		}
		log.Infof("gRPC server stopped")
		return nil
	})
	a.closer.Add("http server", func(ctx context.Context) error {
		if err := a.httpSrv.Stop(ctx); err != nil {
			return err
		}
		log.Infof("HTTP server stopped")
		return nil
	})

	return nil
}

// Run запускает серверы и воркеры и блокируется до сигнала остановки или падения сервера.
func (a *App) Run() error {
	a.runner.Start(a.bgCtx)
	a.relay.Start(a.bgCtx)
	a.cron.Start()
	if a.outbox != nil {
		a.outbox.Start(a.bgCtx)
	}
	go a.grpcSrv.WatchHealth(a.bgCtx, a.healthChecks)

	errCh := make(chan error, 2)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("gRPC server", err)
		}
	}()
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- e.Wrap("HTTP server", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case sig := <-shutdown:
		a.logger.Infof("Received %s, stopping gracefully...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		if appErr == nil {
			appErr = err
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

func initMinIO(cfg *config.MinIOCfg) (*minio.Client, error) {
	client, err := clients.NewMinIOClient(cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := clients.EnsureBucket(ctx, client, cfg.BucketName); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return client, nil
}
