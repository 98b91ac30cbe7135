package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/pinnacle-hris/payroll-engine/internal/config"
	appHTTP "github.com/pinnacle-hris/payroll-engine/internal/handler/http"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/cron"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/database"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/email"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/jobs"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/jwt"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/notify"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/storage"
	"github.com/pinnacle-hris/payroll-engine/internal/repository/postgresql"
	attendanceService "github.com/pinnacle-hris/payroll-engine/internal/service/attendance"
	encashmentService "github.com/pinnacle-hris/payroll-engine/internal/service/encashment"
	"github.com/pinnacle-hris/payroll-engine/internal/service/extractor"
	payrollService "github.com/pinnacle-hris/payroll-engine/internal/service/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/service/reconcile"
	recurringService "github.com/pinnacle-hris/payroll-engine/internal/service/recurring"
	shiftService "github.com/pinnacle-hris/payroll-engine/internal/service/shift"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.App.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules, err := config.LoadPayrollRules(ctx, cfg.Payroll, cfg.AWS)
	if err != nil {
		log.Fatal("Failed to load payroll rules: ", err)
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Pool.Close()

	// AWS is loaded lazily: only the s3 driver and the ses mailer need it.
	var awsCfg *aws.Config
	loadAWS := func() aws.Config {
		if awsCfg == nil {
			c, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
			if err != nil {
				log.Fatal("Failed to load AWS config: ", err)
			}
			awsCfg = &c
		}
		return *awsCfg
	}

	tx := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	allotmentRepo := postgresql.NewAllotmentRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	checkinRepo := postgresql.NewCheckinRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	historyRepo := postgresql.NewHistoryRepository(db)
	encashmentRepo := postgresql.NewEncashmentRepository(db)
	recurringRepo := postgresql.NewRecurringRepository(db)
	payslipRepo := postgresql.NewPayslipRepository(db)
	jobRunRepo := postgresql.NewJobRunRepository(db)

	var fileStorage storage.FileStorage
	switch cfg.Storage.Driver {
	case "local":
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.BaseURL)
		if err != nil {
			log.Fatal("Failed to initialize local storage: ", err)
		}
	case "s3":
		fileStorage = storage.NewS3Storage(loadAWS(), cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
	default:
		log.Fatal("Unsupported storage driver: ", cfg.Storage.Driver)
	}

	var mailer email.Mailer
	switch cfg.SMTP.Provider {
	case "ses":
		mailer = email.NewSESMailer(loadAWS())
	default:
		mailer = email.NewSMTPMailer(cfg.SMTP)
	}
	emailService, err := email.NewEmailService(cfg.SMTP, mailer)
	if err != nil {
		log.Fatal("Failed to initialize email service: ", err)
	}

	notifier := notify.New(cfg.Slack.Token, cfg.Slack.Channel)

	runner := jobs.NewRunner(jobRunRepo, 0)
	runner.Start(ctx)

	mobileApp := extractor.NewMobileApp(checkinRepo)
	reconciler := reconcile.NewReconciler(reconcile.NewAllotmentResolver(allotmentRepo, employeeRepo), mobileApp)
	attendanceSvc := attendanceService.NewAttendanceService(
		tx,
		attendanceRepo,
		checkinRepo,
		employeeRepo,
		extractor.NewDefaultRegistry(rules.DeviceBName),
		mobileApp,
		reconciler,
		runner,
		rules,
	)

	aggregator := payrollService.NewAggregator(
		rules,
		shiftService.NewResolver(shiftRepo, rules.OvertimeThreshold),
		attendanceRepo,
		holidayRepo,
		historyRepo,
		encashmentRepo,
		recurringRepo,
		payslipRepo,
	)
	materializer := payrollService.NewMaterializer(tx, payslipRepo, encashmentRepo, recurringRepo)
	payrollSvc := payrollService.NewPayrollService(
		employeeRepo,
		payslipRepo,
		aggregator,
		materializer,
		runner,
		notifier,
		emailService,
		fileStorage,
	)
	encashmentSvc := encashmentService.NewEncashmentService(employeeRepo, historyRepo, encashmentRepo)
	recurringSvc := recurringService.NewRecurringService(tx, employeeRepo, recurringRepo)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(
		JWTService,
		appHTTP.Handlers{
			Attendance: appHTTP.NewAttendanceHandler(attendanceSvc, fileStorage),
			Payroll:    appHTTP.NewPayrollHandler(payrollSvc),
			Encashment: appHTTP.NewEncashmentHandler(encashmentSvc),
			Recurring:  appHTTP.NewRecurringHandler(recurringSvc),
			Job:        appHTTP.NewJobHandler(runner),
		},
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
	)

	scheduler := cron.NewScheduler()
	cron.NewPayrollJobs(payrollSvc, encashmentSvc, employeeRepo, notifier, cfg.Payroll.RunDay).RegisterJobs(scheduler)
	scheduler.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()
	runner.Wait()
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitOrigins(v string) []string {
	var origins []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
