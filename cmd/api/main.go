package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/law4percent/checkme-api/internal/handler"
	"github.com/law4percent/checkme-api/internal/middleware"
	"github.com/law4percent/checkme-api/internal/models"
	"github.com/law4percent/checkme-api/internal/repository"
	"github.com/law4percent/checkme-api/internal/service"
	"github.com/law4percent/checkme-api/pkg/config"
	"github.com/law4percent/checkme-api/pkg/jobs"
	"github.com/law4percent/checkme-api/pkg/logger"
	corsmiddleware "github.com/law4percent/checkme-api/pkg/middleware/cors"
	reqidmiddleware "github.com/law4percent/checkme-api/pkg/middleware/requestid"
	"github.com/law4percent/checkme-api/pkg/store"
)

// queueDispatcher feeds key-edit rescores into the background worker pool.
type queueDispatcher struct {
	queue *jobs.Queue
}

func (d *queueDispatcher) Dispatch(ctx context.Context, ownerID, code string) error {
	return d.queue.Enqueue(jobs.RescoreJob{ID: uuid.NewString(), OwnerID: ownerID, Code: code})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := store.NewRedisClient(cfg.Store)
	if err != nil {
		logr.Sugar().Fatalw("store connection failed", "error", err)
	}
	defer client.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	kv := store.NewRedisStore(client, metrics.ObserveStoreOp)

	assessments := repository.NewAssessmentRepository(kv)
	keys := repository.NewAnswerKeyRepository(kv)
	sheets := repository.NewAnswerSheetRepository(kv)
	enrollments := repository.NewEnrollmentRepository(kv)
	subjects := repository.NewSubjectRepository(kv)
	sections := repository.NewSectionRepository(kv)
	invites := repository.NewInviteCodeRepository(kv)
	cacheRepo := repository.NewCacheRepository(client, logr)

	validate := validator.New()
	cache := service.NewCacheService(cacheRepo, metrics, cfg.Resolver.CacheTTL, logr, cfg.Resolver.CacheEnabled)
	roster := service.NewRosterService(enrollments, cache, cfg.Resolver.CacheTTL, logr)

	// Scoring and the rescore queue reference each other, so the service
	// pointer is captured before the queue handler runs.
	var scoring *service.ScoringService
	queue := jobs.NewQueue("rescore", func(ctx context.Context, job jobs.RescoreJob) error {
		_, err := scoring.RescoreAssessment(ctx, job.OwnerID, job.Code)
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Rescore.Workers,
		BufferSize: cfg.Rescore.BufferSize,
		MaxRetries: cfg.Rescore.MaxRetries,
		RetryDelay: cfg.Rescore.RetryDelay,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	scoring = service.NewScoringService(keys, sheets, assessments, roster, &queueDispatcher{queue: queue}, metrics, validate, logr)
	lifecycle := service.NewLifecycleService(assessments, keys, sheets, subjects, sections, enrollments, invites, validate, logr)
	reassign := service.NewReassignService(sheets, assessments, roster, validate, logr)
	enrollment := service.NewEnrollmentService(enrollments, invites, roster, validate, logr)
	exports := service.NewExportService(scoring, assessments, logr)

	assessmentHandler := handler.NewAssessmentHandler(lifecycle)
	sheetHandler := handler.NewSheetHandler(scoring, reassign)
	subjectHandler := handler.NewSubjectHandler(lifecycle)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollment)
	exportHandler := handler.NewExportHandler(exports, cfg.Exports.Enabled)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := client.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT))

	teacher := api.Group("", middleware.RequireRoles(models.RoleTeacher))
	{
		teacher.POST("/sections", subjectHandler.CreateSection)
		teacher.DELETE("/sections/:id", subjectHandler.DeleteSection)
		teacher.POST("/subjects", subjectHandler.CreateSubject)
		teacher.GET("/subjects", subjectHandler.ListSubjects)
		teacher.DELETE("/subjects/:id", subjectHandler.DeleteSubject)
		teacher.POST("/subjects/:id/invite", subjectHandler.RegenerateInvite)

		teacher.GET("/subjects/:id/enrollments", enrollmentHandler.List)
		teacher.POST("/subjects/:id/enrollments", enrollmentHandler.Invite)
		teacher.PATCH("/subjects/:id/enrollments/:accountId", enrollmentHandler.Decide)
		teacher.DELETE("/subjects/:id/enrollments/:accountId", enrollmentHandler.Unenroll)

		teacher.POST("/assessments", assessmentHandler.Create)
		teacher.DELETE("/assessments/:code", assessmentHandler.Delete)
		teacher.PATCH("/assessments/:code/key", sheetHandler.EditKey)
		teacher.POST("/assessments/:code/rescore", sheetHandler.Rescore)
		teacher.GET("/assessments/:code/export", exportHandler.ScoreReport)

		teacher.GET("/assessments/:code/sheets", sheetHandler.List)
		teacher.POST("/assessments/:code/sheets", sheetHandler.Ingest)
		teacher.POST("/assessments/:code/sheets/reassign", sheetHandler.Reassign)
		teacher.GET("/assessments/:code/sheets/:schoolId", sheetHandler.Detail)
		teacher.PATCH("/assessments/:code/sheets/:schoolId/essay", sheetHandler.GradeEssay)
		teacher.PATCH("/assessments/:code/sheets/:schoolId/answer", sheetHandler.EditAnswer)
		teacher.PATCH("/assessments/:code/sheets/:schoolId/finality", sheetHandler.SetFinality)
	}

	student := api.Group("", middleware.RequireRoles(models.RoleStudent))
	{
		student.POST("/enrollments", enrollmentHandler.Join)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Sugar().Warnw("shutdown incomplete", "error", err)
		}
	}()

	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
