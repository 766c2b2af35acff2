package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	batchHttp "github.com/amankumarsingh77/media-resolver/internal/batch/delivery/http"
	batchRepository "github.com/amankumarsingh77/media-resolver/internal/batch/repository"
	batchUsecase "github.com/amankumarsingh77/media-resolver/internal/batch/usecase"
	"github.com/amankumarsingh77/media-resolver/internal/download"
	downloadHttp "github.com/amankumarsingh77/media-resolver/internal/download/delivery/http"
	downloadRepository "github.com/amankumarsingh77/media-resolver/internal/download/repository"
	downloadUsecase "github.com/amankumarsingh77/media-resolver/internal/download/usecase"
	"github.com/amankumarsingh77/media-resolver/internal/middleware"
	resolveHttp "github.com/amankumarsingh77/media-resolver/internal/resolve/delivery/http"
	"github.com/amankumarsingh77/media-resolver/internal/resolve/resolvers"
	resolveUsecase "github.com/amankumarsingh77/media-resolver/internal/resolve/usecase"
	"github.com/amankumarsingh77/media-resolver/internal/transcoder"
)

const bodyLimit = "2M"

func (s *Server) MapHandlers(e *echo.Echo) error {
	transcoderClient := transcoder.NewClient(s.cfg, s.logger)
	resolverSet := resolvers.NewSet(s.cfg, transcoderClient, s.logger)
	// probes and file streams carry their own per-request deadlines
	streamClient := &http.Client{}

	var awsRepo download.AWSRepository
	if s.cfg.S3.Enabled && s.s3Client != nil {
		awsRepo = downloadRepository.NewAwsRepository(s.s3Client, s.preSignClient)
	}
	progressRepo := batchRepository.NewMemoryRepo(s.cfg.Redis.BatchTTL)
	if s.cfg.Redis.Enabled && s.redisClient != nil {
		progressRepo = batchRepository.NewBatchRedisRepo(s.redisClient, s.cfg.Redis.BatchTTL)
	}

	resolveUC := resolveUsecase.NewResolveUseCase(s.cfg, resolverSet, resolveUsecase.NewSizeProber(streamClient, s.logger), s.logger)
	downloadUC := downloadUsecase.NewDownloadUseCase(s.cfg, transcoderClient, streamClient, awsRepo, s.logger)
	batchUC := batchUsecase.NewBatchUseCase(s.cfg, resolveUC, progressRepo, s.logger)

	resolveHandlers := resolveHttp.NewResolveHandler(resolveUC, s.logger)
	downloadHandlers := downloadHttp.NewDownloadHandler(downloadUC, s.logger)
	batchHandlers := batchHttp.NewBatchHandler(batchUC, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg, s.cfg.Server.AllowOrigins, s.logger)

	e.Use(echoMiddleware.RequestID())
	e.Use(mw.RequestLoggerMiddleware)
	e.Use(echoMiddleware.RecoverWithConfig(echoMiddleware.RecoverConfig{
		StackSize:         1 << 10,
		DisablePrintStack: true,
		DisableStackAll:   true,
	}))
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:  s.cfg.Server.AllowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
		ExposeHeaders: []string{downloadHttp.HeaderDownloadID, batchHttp.HeaderBatchID, echo.HeaderContentDisposition},
		MaxAge:        300,
	}))
	e.Use(echoMiddleware.BodyLimit(bodyLimit))

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	resolveGroup := v1.Group("/resolve")
	downloadGroup := v1.Group("/download")
	batchGroup := v1.Group("/batch")

	resolveHttp.MapResolveRoutes(resolveGroup, resolveHandlers)
	downloadHttp.MapDownloadRoutes(downloadGroup, downloadHandlers)
	batchHttp.MapBatchRoutes(batchGroup, batchHandlers)
	v1.GET("/image-proxy", newImageProxyHandler(streamClient, s.logger))
	health.GET("", newHealthHandler(transcoderClient, s.cfg, s.logger))

	if s.cfg.Server.JwtSecretKey != "" {
		extensionGroup := v1.Group("/extension", mw.ExtensionJWTMiddleware())
		extensionGroup.POST("/resolve", resolveHandlers.Resolve())
		extensionGroup.POST("/download", downloadHandlers.Download())
	} else {
		s.logger.Warn("server.jwtSecretKey is empty, extension routes are disabled")
	}
	return nil
}
