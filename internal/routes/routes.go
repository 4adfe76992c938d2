// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"receipt-service/internal/config"
	"receipt-service/internal/database"
	"receipt-service/internal/handler"
	"receipt-service/internal/link"
	"receipt-service/internal/middleware"
	"receipt-service/internal/service"
	"receipt-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config       *config.Config
	logger       *zap.Logger
	db           *database.DB
	printService *service.PrintService
	printerLink  link.PrinterLink
	eventBus     *handler.EventBus
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *database.DB,
	printService *service.PrintService,
	printerLink link.PrinterLink,
	eventBus *handler.EventBus,
) *Router {
	return &Router{
		config:       cfg,
		logger:       logger,
		db:           db,
		printService: printService,
		printerLink:  printerLink,
		eventBus:     eventBus,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.printerLink, r.config, r.logger)
	printHandler := handler.NewPrintHandler(r.printService, r.config.Printer.FeedLines, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.eventBus, r.config.Security.AllowedOrigins, r.logger)

	healthHandler.RegisterRoutes(router.Group(""))

	apiV1 := router.Group("/api/v1")
	printHandler.RegisterRoutes(apiV1)

	wsHandler.RegisterRoutes(router.Group("/ws"))

	r.logger.Info("All routes configured successfully")
}
