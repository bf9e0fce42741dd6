package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coldcall/coldcall-api/internal/handler"
	"github.com/coldcall/coldcall-api/internal/middleware"
	"github.com/coldcall/coldcall-api/internal/repository"
	"github.com/coldcall/coldcall-api/internal/service"
	"github.com/coldcall/coldcall-api/pkg/cache"
	"github.com/coldcall/coldcall-api/pkg/config"
	"github.com/coldcall/coldcall-api/pkg/database"
	"github.com/coldcall/coldcall-api/pkg/logger"
	corsmiddleware "github.com/coldcall/coldcall-api/pkg/middleware/cors"
	reqidmiddleware "github.com/coldcall/coldcall-api/pkg/middleware/requestid"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	// The roster cache is optional; the service degrades to direct reads.
	var cacheRepo *repository.CacheRepository
	if cfg.Roster.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, roster caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	validate := validator.New()

	professorRepo := repository.NewProfessorRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	metricsSvc := service.NewMetricsService()

	var rosterCache service.RosterCache
	if cacheRepo != nil {
		rosterCache = cacheRepo
	}
	rosterSvc := service.NewRosterService(classRepo, studentRepo, rosterCache, cfg.Roster.CacheTTL, logr)

	professorSvc := service.NewProfessorService(professorRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, validate, logr)
	ratingSvc := service.NewRatingService(ratingRepo, studentRepo, studentRepo, classRepo, rosterSvc, metricsSvc, validate, logr)
	randomizerSvc := service.NewRandomizerService(studentRepo, classRepo, metricsSvc, cfg.Randomizer.CallSlack, nil, logr)
	importSvc := service.NewImportService(studentRepo, ratingRepo, classRepo, rosterSvc, metricsSvc, logr)
	exportSvc := service.NewExportService(classRepo, studentRepo, ratingRepo, nil, nil, nil, metricsSvc, logr)
	noteSvc := service.NewNoteService(noteRepo, studentRepo, classRepo, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Professors: handler.NewProfessorHandler(professorSvc),
		Classes:    handler.NewClassHandler(classSvc, rosterSvc),
		Students:   handler.NewStudentHandler(studentSvc),
		Calls:      handler.NewCallHandler(randomizerSvc, ratingSvc),
		Data:       handler.NewDataHandler(importSvc, exportSvc),
		Notes:      handler.NewNoteHandler(noteSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
