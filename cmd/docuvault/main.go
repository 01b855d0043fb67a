package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/docuvault/docuvault/internal/config"
	"github.com/docuvault/docuvault/internal/db"
	"github.com/docuvault/docuvault/internal/filestore"
	"github.com/docuvault/docuvault/internal/handler"
	"github.com/docuvault/docuvault/internal/job"
	"github.com/docuvault/docuvault/internal/middleware"
	"github.com/docuvault/docuvault/internal/repo"
	"github.com/docuvault/docuvault/internal/schedule"
	"github.com/docuvault/docuvault/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docuvault",
		Short: "docuvault document management server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docuvault server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(database)
	docRepo := repo.NewDocumentRepo(database)
	versionRepo := repo.NewVersionRepo(database)
	tagRepo := repo.NewTagRepo(database)
	docTagRepo := repo.NewDocumentTagRepo(database)
	checkoutRepo := repo.NewCheckoutRepo(database)
	activityRepo := repo.NewActivityRepo(database)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	documentService := service.NewDocumentService(docRepo, versionRepo, tagRepo, docTagRepo, checkoutRepo, activityRepo, store)
	tagService := service.NewTagService(tagRepo)

	deps := handler.RouterDeps{
		Auth:           handler.NewAuthHandler(authService),
		Users:          handler.NewUserHandler(authService),
		Documents:      handler.NewDocumentHandler(documentService),
		Versions:       handler.NewVersionHandler(documentService),
		Checkouts:      handler.NewCheckoutHandler(documentService),
		Tags:           handler.NewTagHandler(tagService),
		JWTSecret:      []byte(cfg.JWTSecret),
		LoginRateLimit: time.Duration(cfg.LoginRateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	staleJob := job.NewStaleCheckoutReportJob(checkoutRepo, time.Duration(cfg.StaleCheckout.MaxAgeHours)*time.Hour)
	if err := scheduler.AddJob(staleJob, cfg.StaleCheckout.CronSpec); err != nil {
		return fmt.Errorf("schedule stale checkout job: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
