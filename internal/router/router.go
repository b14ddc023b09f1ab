package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"docproc/internal/handler"
	"docproc/internal/middleware"
	"docproc/internal/service"
)

// Options controls the optional parts of the route table.
type Options struct {
	Debug          bool
	AllowedOrigins []string
	// MaxMultipartMemory caps the in-memory part of multipart parsing; the
	// rest spills to temp files.
	MaxMultipartMemory int64
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	logger *slog.Logger,
	opts Options,
	authSvc service.AuthService,
	authH *handler.AuthHandler,
	conversionH *handler.ConversionHandler,
	historyH *handler.HistoryHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}

	// Global middleware. RequestID runs first so recovered panics are still
	// correlated.
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Info and health checks
	r.GET("/", healthH.Info)
	r.GET("/health", healthH.Health)
	r.GET("/readyz", healthH.Readiness)

	if opts.Debug {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")

	// Protected routes - credentials are checked before the body is read
	protected := v1.Group("")
	protected.Use(middleware.Auth(authSvc))

	protected.POST("/convert", conversionH.Convert)
	protected.POST("/convert_n_chunk", conversionH.ConvertAndChunk)
	protected.GET("/conversions", historyH.List)
	protected.GET("/conversions/export/csv", historyH.ExportCSV)
	protected.POST("/auth/token", authH.IssueToken)

	return r
}
